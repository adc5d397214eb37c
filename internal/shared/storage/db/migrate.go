package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

var errNoDatabase = errors.New("database not configured")

func gooseInit() error {
	goose.SetBaseFS(migrationFiles)
	return goose.SetDialect("postgres")
}

// RunMigrations applies embedded SQL migrations via goose. A nil database is a no-op
// so in-memory dev setups can call it unconditionally.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := gooseInit(); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, migrationsDir)
}

// MigrationVersion reports the schema version recorded by goose.
func MigrationVersion(database *sql.DB) (int64, error) {
	if database == nil {
		return 0, errNoDatabase
	}
	if err := gooseInit(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(database)
}
