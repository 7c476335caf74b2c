package appfs

import "embed"

// FS holds the SQL migrations of the relational store.
//
//go:embed migrations/*.sql
var FS embed.FS

// MigrationsDir is the directory of FS holding the migrations.
const MigrationsDir = "migrations"
