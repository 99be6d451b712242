package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/database"
	"github.com/stacklok/showsync/internal/config"
	pkgsync "github.com/stacklok/showsync/internal/sync"
	"github.com/stacklok/showsync/internal/versions"
)

// These tests share the global viper instance and do not run in parallel.

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info versions.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versions.Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "showsync "+versions.Version)
}

func TestMigrateUpSQLite(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	path := writeConfig(t, `provider:
  endpoint: http://localhost:8081
storage:
  type: sqlite
  dataDir: `+dataDir)

	_, err := execute(t, "migrate", "up", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "catalog.db"))

	// Applying again is a no-op
	_, err = execute(t, "migrate", "up", "--config", path)
	require.NoError(t, err)

	_, err = execute(t, "migrate", "down", "1", "--config", path)
	require.NoError(t, err)

	_, err = execute(t, "migrate", "down", "zero", "--config", path)
	require.Error(t, err)
}

func TestSyncCmdValidation(t *testing.T) {
	_, err := execute(t, "sync", "--force")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force requires --series")

	_, err = execute(t, "sync", "--series", "-3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

func TestSyncCmdMemoryStore(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `provider:
  endpoint: http://127.0.0.1:1
storage:
  type: memory
  dataDir: `+dataDir)

	// No watermark yet: the first pass sees an empty change set and succeeds
	out, err := execute(t, "sync", "--config", path)
	require.NoError(t, err)

	var summary passSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Zero(t, summary.WatermarkBefore)
	assert.Positive(t, summary.WatermarkAfter)
	assert.Zero(t, summary.SeriesChecked)

	// The lock is released on exit
	_, err = execute(t, "sync", "--config", path)
	require.NoError(t, err)
}

func TestMigrationTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dialect, conn, err := migrationTarget(&config.Config{
		Storage: &config.StorageConfig{Type: config.StorageTypeSQLite, DataDir: dir},
	})
	require.NoError(t, err)
	assert.Equal(t, database.DialectSQLite, dialect)
	assert.Equal(t, filepath.Join(dir, "catalog.db"), conn)

	_, _, err = migrationTarget(&config.Config{Storage: &config.StorageConfig{Type: config.StorageTypeMemory}})
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, &pkgsync.Result{
		RunID:           "run-1",
		Forced:          true,
		WatermarkBefore: 10,
		WatermarkAfter:  20,
		SeriesChecked:   3,
		SeriesUpdated:   2,
		SeriesFailed:    1,
		EpisodesUpdated: 7,
	}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, true, got["forced"])
	assert.InDelta(t, 20, got["watermark_after"], 0)
	assert.InDelta(t, 1, got["series_failed"], 0)
}

func TestTraceHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewLogHandler(&buf, slog.LevelInfo)).With("component", "test")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "with span")
	logger.DebugContext(ctx, "filtered")
	logger.Info("without span")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var withSpan, withoutSpan map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &withSpan))
	require.NoError(t, json.Unmarshal(lines[1], &withoutSpan))

	assert.Equal(t, traceID.String(), withSpan["trace_id"])
	assert.Equal(t, spanID.String(), withSpan["span_id"])
	assert.Equal(t, "test", withSpan["component"])
	assert.NotContains(t, withoutSpan, "trace_id")
}
