package migrations

import "embed"

// FS contains the embedded SQLite session migrations.
//
//go:embed *.sql
var FS embed.FS
