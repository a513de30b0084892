package db

import (
	"testing"
	"testing/fstest"
)

func TestLatestVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"00001_users_buyers.sql": {},
		"00007_late.sql":         {},
		"00003_audit_log.sql":    {},
		"README.md":              {},
		"notes.sql":              {},
	}

	if got := latestVersion(fsys); got != 7 {
		t.Errorf("latestVersion = %d, want 7", got)
	}

	if got := latestVersion(fstest.MapFS{}); got != 0 {
		t.Errorf("latestVersion(empty) = %d, want 0", got)
	}
}

func TestSchemaVersion_Embedded(t *testing.T) {
	if got := SchemaVersion(); got != 2 {
		t.Errorf("SchemaVersion = %d, want 2", got)
	}
}
