package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

var (
	migrationDriver string
	migrationLogger goose.Logger
)

// SetMigrationLogger routes goose output through the service logger.
func SetMigrationLogger(l goose.Logger) {
	if l != nil {
		migrationLogger = l
		goose.SetLogger(l)
	}
}

func prepareGoose(db *DB) (string, error) {
	if db == nil || db.DB == nil {
		return "", fmt.Errorf("db is nil")
	}
	migrationDriver = db.Driver

	switch db.Driver {
	case DriverPostgres:
		if err := goose.SetDialect("postgres"); err != nil {
			return "", err
		}
		goose.SetBaseFS(postgresMigrations)
		return "migrations/postgres", nil
	default:
		if err := goose.SetDialect("sqlite3"); err != nil {
			return "", err
		}
		goose.SetBaseFS(sqliteMigrations)
		return "migrations/sqlite", nil
	}
}

// Migrate applies embedded SQL/Go migrations up to head using goose.
// Running it against a database already at head is a no-op.
func Migrate(ctx context.Context, db *DB) error {
	dir, err := prepareGoose(db)
	if err != nil {
		return err
	}
	return goose.UpContext(ctx, db.DB.DB, dir)
}

// Version returns the current schema version.
func Version(ctx context.Context, db *DB) (int64, error) {
	if _, err := prepareGoose(db); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db.DB.DB)
}

// Status logs the applied/pending state of every migration.
func Status(ctx context.Context, db *DB) error {
	dir, err := prepareGoose(db)
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB.DB, dir)
}
