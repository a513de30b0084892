// Package migrations holds the goose SQL migrations for the PostgreSQL
// backend, compiled into the binary.
package migrations

import "embed"

// FS holds every NNNNN_name.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
