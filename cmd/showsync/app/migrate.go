package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stacklok/showsync/database"
	"github.com/stacklok/showsync/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long: `Database migration tool for managing schema versions of the sqlite and
postgres stores. Use with 'up' or 'down' subcommands. Both stores also apply
pending migrations on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrate(func(dialect database.Dialect, connString string) error {
				return database.MigrateUp(dialect, connString)
			})
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back database migrations",
		Long:  `Roll back the given number of migrations (default 1).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			return runMigrate(func(dialect database.Dialect, connString string) error {
				return database.MigrateDown(dialect, connString, steps)
			})
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}

func runMigrate(migrate func(dialect database.Dialect, connString string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dialect, connString, err := migrationTarget(cfg)
	if err != nil {
		return err
	}

	slog.Info("Running database migrations", "dialect", dialect)
	if err := migrate(dialect, connString); err != nil {
		return err
	}
	slog.Info("Migrations completed successfully")
	return nil
}

// migrationTarget resolves the dialect and connection string of the configured store
func migrationTarget(cfg *config.Config) (database.Dialect, string, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeSQLite:
		path := cfg.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return "", "", fmt.Errorf("failed to create data directory: %w", err)
		}
		return database.DialectSQLite, path, nil
	case config.StorageTypePostgres:
		connString, err := cfg.Database.GetConnectionString()
		if err != nil {
			return "", "", fmt.Errorf("failed to build connection string: %w", err)
		}
		return database.DialectPostgres, connString, nil
	default:
		return "", "", fmt.Errorf("storage type %s has no schema to migrate", cfg.GetStorageType())
	}
}
