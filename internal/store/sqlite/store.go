// Package sqlite provides an embedded SQLite implementation of store.Store
// built on the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/stacklok/showsync/database"
	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/store"
)

const (
	// TracerName is the name used for the SQLite store tracer
	TracerName = "github.com/stacklok/showsync/store/sqlite"

	dateLayout = "2006-01-02"
)

type sqliteStore struct {
	db     *sql.DB
	tracer trace.Tracer
	now    func() time.Time
}

var _ store.Store = (*sqliteStore)(nil)

// Option is a functional option for the SQLite store
type Option func(*sqliteStore)

// WithTracer sets the tracer used for store spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *sqliteStore) {
		s.tracer = tracer
	}
}

// WithClock overrides the clock used for UpdatedAt stamps
func WithClock(now func() time.Time) Option {
	return func(s *sqliteStore) {
		s.now = now
	}
}

// Open migrates and opens the SQLite database at path, creating parent directories as needed.
func Open(ctx context.Context, path string, opts ...Option) (store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := database.MigrateUp(database.DialectSQLite, path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &sqliteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	slog.Debug("SQLite store opened", "path", path)
	return s, nil
}

func (s *sqliteStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, s.tracer, name, trace.WithSpanKind(trace.SpanKindClient))
}

func (s *sqliteStore) ListSeries(ctx context.Context) (_ []catalog.Series, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.ListSeries")
	defer func() { otel.End(span, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, overview, network, status, first_aired, runtime, genres, updated_at
		FROM series ORDER BY id`)
	if err != nil {
		return nil, store.Wrap("list series", err)
	}
	defer rows.Close()

	var result []catalog.Series
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, store.Wrap("list series", err)
		}
		result = append(result, *series)
	}
	return result, store.Wrap("list series", rows.Err())
}

func (s *sqliteStore) GetSeries(ctx context.Context, seriesID int64) (_ *catalog.Series, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.GetSeries")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, overview, network, status, first_aired, runtime, genres, updated_at
		FROM series WHERE id = ?`, seriesID)
	series, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("series %d: %w", seriesID, store.ErrNotFound)
	}
	return series, store.Wrap("get series", err)
}

func (s *sqliteStore) SaveSeries(ctx context.Context, series *catalog.Series) (err error) {
	ctx, span := s.startSpan(ctx, "sqlite.SaveSeries")
	defer func() { otel.End(span, err) }()

	if series == nil || series.ID == 0 {
		return store.Wrap("save series", fmt.Errorf("series id is required"))
	}
	span.SetAttributes(otel.AttrSeriesID.Int64(series.ID))

	genres, err := json.Marshal(nonNil(series.Genres))
	if err != nil {
		return store.Wrap("save series", err)
	}

	updatedAt := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO series (id, name, overview, network, status, first_aired, runtime, genres, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			overview = excluded.overview,
			network = excluded.network,
			status = excluded.status,
			first_aired = excluded.first_aired,
			runtime = excluded.runtime,
			genres = excluded.genres,
			updated_at = excluded.updated_at`,
		series.ID, series.Name, series.Overview, series.Network, series.Status,
		formatDate(series.FirstAired), series.Runtime, string(genres), updatedAt.UnixMilli(),
	)
	if err != nil {
		return store.Wrap("save series", err)
	}
	series.UpdatedAt = updatedAt
	return nil
}

func (s *sqliteStore) GetEpisode(ctx context.Context, key catalog.EpisodeKey) (_ *catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.GetEpisode")
	span.SetAttributes(otel.EpisodeAttributes(key)...)
	defer func() { otel.End(span, err) }()

	row := s.db.QueryRowContext(ctx, `
		SELECT series_id, season, number, remote_id, name, overview, air_date, updated_at
		FROM episodes WHERE series_id = ? AND season = ? AND number = ?`,
		key.SeriesID, key.Season, key.Number)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("episode %s: %w", key, store.ErrNotFound)
	}
	return ep, store.Wrap("get episode", err)
}

func (s *sqliteStore) ListEpisodes(ctx context.Context, seriesID int64) (_ []catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.ListEpisodes")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT series_id, season, number, remote_id, name, overview, air_date, updated_at
		FROM episodes WHERE series_id = ? ORDER BY season, number`, seriesID)
	if err != nil {
		return nil, store.Wrap("list episodes", err)
	}
	defer rows.Close()

	var result []catalog.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, store.Wrap("list episodes", err)
		}
		result = append(result, *ep)
	}
	return result, store.Wrap("list episodes", rows.Err())
}

func (s *sqliteStore) SaveEpisode(ctx context.Context, episode *catalog.Episode) (err error) {
	ctx, span := s.startSpan(ctx, "sqlite.SaveEpisode")
	defer func() { otel.End(span, err) }()

	if episode == nil || episode.SeriesID == 0 {
		return store.Wrap("save episode", fmt.Errorf("episode series id is required"))
	}
	span.SetAttributes(otel.EpisodeAttributes(episode.EpisodeKey)...)

	updatedAt := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO episodes (series_id, season, number, remote_id, name, overview, air_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_id, season, number) DO UPDATE SET
			remote_id = CASE WHEN excluded.remote_id = 0 THEN episodes.remote_id ELSE excluded.remote_id END,
			name = excluded.name,
			overview = excluded.overview,
			air_date = excluded.air_date,
			updated_at = excluded.updated_at`,
		episode.SeriesID, episode.Season, episode.Number, episode.RemoteID,
		episode.Name, episode.Overview, formatDate(episode.AirDate), updatedAt.UnixMilli(),
	)
	if err != nil {
		return store.Wrap("save episode", err)
	}
	episode.UpdatedAt = updatedAt
	return nil
}

func (s *sqliteStore) NewestEpisode(ctx context.Context, seriesID int64) (_ *catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.NewestEpisode")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	// ISO dates sort lexically
	row := s.db.QueryRowContext(ctx, `
		SELECT series_id, season, number, remote_id, name, overview, air_date, updated_at
		FROM episodes
		WHERE series_id = ? AND air_date IS NOT NULL AND season >= 0 AND number >= 0
		ORDER BY air_date DESC, season DESC, number DESC
		LIMIT 1`, seriesID)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ep, store.Wrap("newest episode", err)
}

func (s *sqliteStore) GetWatermark(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "sqlite.GetWatermark")
	defer func() { otel.End(span, err) }()

	var value int64
	err = s.db.QueryRowContext(ctx, `SELECT value FROM sync_info WHERE key = ?`, store.WatermarkKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Wrap("get watermark", err)
	}
	return value, nil
}

func (s *sqliteStore) SetWatermark(ctx context.Context, value int64) (err error) {
	ctx, span := s.startSpan(ctx, "sqlite.SetWatermark")
	span.SetAttributes(otel.AttrWatermark.Int64(value))
	defer func() { otel.End(span, err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_info (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		store.WatermarkKey, value)
	return store.Wrap("set watermark", err)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSeries(row scanner) (*catalog.Series, error) {
	var (
		series     catalog.Series
		firstAired sql.NullString
		genres     string
		updatedAt  int64
	)
	if err := row.Scan(&series.ID, &series.Name, &series.Overview, &series.Network, &series.Status,
		&firstAired, &series.Runtime, &genres, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(genres), &series.Genres); err != nil {
		return nil, fmt.Errorf("invalid genres for series %d: %w", series.ID, err)
	}
	if len(series.Genres) == 0 {
		series.Genres = nil
	}
	series.FirstAired = parseDate(firstAired)
	series.UpdatedAt = time.UnixMilli(updatedAt)
	return &series, nil
}

func scanEpisode(row scanner) (*catalog.Episode, error) {
	var (
		ep        catalog.Episode
		airDate   sql.NullString
		updatedAt int64
	)
	if err := row.Scan(&ep.SeriesID, &ep.Season, &ep.Number, &ep.RemoteID, &ep.Name, &ep.Overview,
		&airDate, &updatedAt); err != nil {
		return nil, err
	}
	ep.AirDate = parseDate(airDate)
	ep.UpdatedAt = time.UnixMilli(updatedAt)
	return &ep, nil
}

func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(dateLayout), Valid: true}
}

func parseDate(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
