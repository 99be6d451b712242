package database

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestMigrations_Postgres(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, connString, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	// SetupTestDBContainer already applied everything; walk down and up again.
	fnames, err := fs.Glob(migrationsFS, "migrations/postgres/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	require.NoError(t, MigrateDown(DialectPostgres, connString, len(fnames)))
	require.NoError(t, MigrateUp(DialectPostgres, connString))
	require.NoError(t, MigrateUp(DialectPostgres, connString), "second up is a no-op")
}

func TestMigrations_SQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.db")

	m, err := NewMigrator(DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { closeMigrator(m) })

	fnames, err := fs.Glob(migrationsFS, "migrations/sqlite/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, fnames)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
	}

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"series", "episodes", "sync_info"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestDatabaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect Dialect
		conn    string
		want    string
		wantErr bool
	}{
		{name: "postgres scheme", dialect: DialectPostgres, conn: "postgres://u:p@h:5432/db", want: "pgx5://u:p@h:5432/db"},
		{name: "postgresql scheme", dialect: DialectPostgres, conn: "postgresql://h/db", want: "pgx5://h/db"},
		{name: "pgx5 passthrough", dialect: DialectPostgres, conn: "pgx5://h/db", want: "pgx5://h/db"},
		{name: "postgres keyword string", dialect: DialectPostgres, conn: "host=h dbname=db", wantErr: true},
		{name: "sqlite path", dialect: DialectSQLite, conn: "/var/lib/showsync/catalog.db", want: "sqlite:///var/lib/showsync/catalog.db"},
		{name: "sqlite url", dialect: DialectSQLite, conn: "sqlite://x.db", want: "sqlite://x.db"},
		{name: "empty", dialect: DialectSQLite, conn: "", wantErr: true},
		{name: "unknown dialect", dialect: "mysql", conn: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := databaseURL(tt.dialect, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
