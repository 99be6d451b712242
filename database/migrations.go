// Package database provides schema migration tooling for the catalog stores.
package database

import (
	"embed"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // registers sqlite://
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Dialect selects the migration set and database driver
type Dialect string

const (
	// DialectPostgres migrates a PostgreSQL database through pgx
	DialectPostgres Dialect = "postgres"

	// DialectSQLite migrates an embedded SQLite database
	DialectSQLite Dialect = "sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrationsFromSource returns a migration source driver for the dialect.
func migrationsFromSource(dialect Dialect) (source.Driver, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
		return iofs.New(migrationsFS, "migrations/"+string(dialect))
	default:
		return nil, fmt.Errorf("unsupported migration dialect: %q", dialect)
	}
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

// NewMigrator returns a migration instance for the given dialect.
// For postgres, connString is a postgres:// URL; for sqlite it is a file path.
func NewMigrator(dialect Dialect, connString string) (Migrator, error) {
	d, err := migrationsFromSource(dialect)
	if err != nil {
		return nil, err
	}

	databaseURL, err := databaseURL(dialect, connString)
	if err != nil {
		return nil, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

func databaseURL(dialect Dialect, connString string) (string, error) {
	if connString == "" {
		return "", fmt.Errorf("connection string is required")
	}

	switch dialect {
	case DialectPostgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if rest, ok := strings.CutPrefix(connString, prefix); ok {
				return "pgx5://" + rest, nil
			}
		}
		if strings.HasPrefix(connString, "pgx5://") {
			return connString, nil
		}
		return "", fmt.Errorf("postgres connection string must be a postgres:// URL")
	case DialectSQLite:
		if strings.HasPrefix(connString, "sqlite://") {
			return connString, nil
		}
		return "sqlite://" + connString, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect: %q", dialect)
	}
}
