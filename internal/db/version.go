package db

import (
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/persistorai/leadintake/internal/db/migrations"
)

// SchemaVersion is the highest migration version embedded in the binary,
// the schema version a fully migrated database reports.
func SchemaVersion() int64 {
	return latestVersion(migrations.FS)
}

func latestVersion(fsys fs.FS) int64 {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return 0
	}

	var latest int64

	for _, name := range names {
		v, err := goose.NumericComponent(name)
		if err == nil && v > latest {
			latest = v
		}
	}

	return latest
}
