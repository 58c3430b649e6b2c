package repository

import "embed"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

const (
	sqliteMigrationsDir   = "migrations/sqlite"
	postgresMigrationsDir = "migrations/postgres"
)
