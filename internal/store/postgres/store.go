// Package postgres provides a PostgreSQL implementation of store.Store backed by a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/otel"
	"github.com/stacklok/showsync/internal/store"
)

const (
	// TracerName is the name used for the Postgres store tracer
	TracerName = "github.com/stacklok/showsync/store/postgres"

	// DefaultConnectTimeout bounds how long WaitForPool keeps retrying
	DefaultConnectTimeout = 30 * time.Second
)

type pgStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ store.Store = (*pgStore)(nil)

// Option is a functional option for the Postgres store
type Option func(*pgStore)

// WithTracer sets the tracer used for store spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *pgStore) {
		s.tracer = tracer
	}
}

// New creates a store on top of an existing pool. The pool's lifecycle stays with the caller.
func New(pool *pgxpool.Pool, opts ...Option) (store.Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	s := &pgStore{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WaitForPool pings the pool with exponential backoff until it answers or maxElapsed passes.
func WaitForPool(ctx context.Context, pool *pgxpool.Pool, maxElapsed time.Duration) error {
	if maxElapsed <= 0 {
		maxElapsed = DefaultConnectTimeout
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Database not reachable yet, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

// startSpan starts a span for database operations.
// All spans carry the db.system attribute per OTEL semantic conventions.
func (s *pgStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, s.tracer, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.DBSystemPostgreSQL),
	)
}

const seriesColumns = `id, name, overview, network, status, first_aired, runtime, genres, updated_at`

const episodeColumns = `series_id, season, number, remote_id, name, overview, air_date, updated_at`

func (s *pgStore) ListSeries(ctx context.Context) (_ []catalog.Series, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListSeries")
	defer func() { otel.End(span, err) }()

	rows, err := s.pool.Query(ctx, `SELECT `+seriesColumns+` FROM series ORDER BY id`)
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
	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	return result, store.Wrap("list series", rows.Err())
}

func (s *pgStore) GetSeries(ctx context.Context, seriesID int64) (_ *catalog.Series, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetSeries")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	series, err := scanSeries(s.pool.QueryRow(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = $1`, seriesID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("series %d: %w", seriesID, store.ErrNotFound)
	}
	return series, store.Wrap("get series", err)
}

func (s *pgStore) SaveSeries(ctx context.Context, series *catalog.Series) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.SaveSeries")
	defer func() { otel.End(span, err) }()

	if series == nil || series.ID == 0 {
		return store.Wrap("save series", fmt.Errorf("series id is required"))
	}
	span.SetAttributes(otel.AttrSeriesID.Int64(series.ID))

	genres := series.Genres
	if genres == nil {
		genres = []string{}
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO series (id, name, overview, network, status, first_aired, runtime, genres, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			overview = EXCLUDED.overview,
			network = EXCLUDED.network,
			status = EXCLUDED.status,
			first_aired = EXCLUDED.first_aired,
			runtime = EXCLUDED.runtime,
			genres = EXCLUDED.genres,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		series.ID, series.Name, series.Overview, series.Network, series.Status,
		toDate(series.FirstAired), series.Runtime, genres,
	).Scan(&series.UpdatedAt)
	return store.Wrap("save series", err)
}

func (s *pgStore) GetEpisode(ctx context.Context, key catalog.EpisodeKey) (_ *catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetEpisode")
	span.SetAttributes(otel.EpisodeAttributes(key)...)
	defer func() { otel.End(span, err) }()

	ep, err := scanEpisode(s.pool.QueryRow(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE series_id = $1 AND season = $2 AND number = $3`,
		key.SeriesID, key.Season, key.Number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("episode %s: %w", key, store.ErrNotFound)
	}
	return ep, store.Wrap("get episode", err)
}

func (s *pgStore) ListEpisodes(ctx context.Context, seriesID int64) (_ []catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "postgres.ListEpisodes")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	rows, err := s.pool.Query(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE series_id = $1 ORDER BY season, number`, seriesID)
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
	span.SetAttributes(otel.AttrResultCount.Int(len(result)))
	return result, store.Wrap("list episodes", rows.Err())
}

func (s *pgStore) SaveEpisode(ctx context.Context, episode *catalog.Episode) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.SaveEpisode")
	defer func() { otel.End(span, err) }()

	if episode == nil || episode.SeriesID == 0 {
		return store.Wrap("save episode", fmt.Errorf("episode series id is required"))
	}
	span.SetAttributes(otel.EpisodeAttributes(episode.EpisodeKey)...)

	err = s.pool.QueryRow(ctx, `
		INSERT INTO episodes (series_id, season, number, remote_id, name, overview, air_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (series_id, season, number) DO UPDATE SET
			remote_id = CASE WHEN EXCLUDED.remote_id = 0 THEN episodes.remote_id ELSE EXCLUDED.remote_id END,
			name = EXCLUDED.name,
			overview = EXCLUDED.overview,
			air_date = EXCLUDED.air_date,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		episode.SeriesID, episode.Season, episode.Number, episode.RemoteID,
		episode.Name, episode.Overview, toDate(episode.AirDate),
	).Scan(&episode.UpdatedAt)
	return store.Wrap("save episode", err)
}

func (s *pgStore) NewestEpisode(ctx context.Context, seriesID int64) (_ *catalog.Episode, err error) {
	ctx, span := s.startSpan(ctx, "postgres.NewestEpisode")
	span.SetAttributes(otel.AttrSeriesID.Int64(seriesID))
	defer func() { otel.End(span, err) }()

	ep, err := scanEpisode(s.pool.QueryRow(ctx, `
		SELECT `+episodeColumns+` FROM episodes
		WHERE series_id = $1 AND air_date IS NOT NULL AND season >= 0 AND number >= 0
		ORDER BY air_date DESC, season DESC, number DESC
		LIMIT 1`, seriesID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ep, store.Wrap("newest episode", err)
}

func (s *pgStore) GetWatermark(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "postgres.GetWatermark")
	defer func() { otel.End(span, err) }()

	var value int64
	err = s.pool.QueryRow(ctx, `SELECT value FROM sync_info WHERE key = $1`, store.WatermarkKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, store.Wrap("get watermark", err)
	}
	return value, nil
}

func (s *pgStore) SetWatermark(ctx context.Context, value int64) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.SetWatermark")
	span.SetAttributes(otel.AttrWatermark.Int64(value))
	defer func() { otel.End(span, err) }()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sync_info (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		store.WatermarkKey, value)
	return store.Wrap("set watermark", err)
}

// Close is a no-op: the pool belongs to whoever created it.
func (*pgStore) Close() error {
	return nil
}

func scanSeries(row pgx.Row) (*catalog.Series, error) {
	var (
		series     catalog.Series
		firstAired pgtype.Date
	)
	if err := row.Scan(&series.ID, &series.Name, &series.Overview, &series.Network, &series.Status,
		&firstAired, &series.Runtime, &series.Genres, &series.UpdatedAt); err != nil {
		return nil, err
	}
	if len(series.Genres) == 0 {
		series.Genres = nil
	}
	series.FirstAired = fromDate(firstAired)
	return &series, nil
}

func scanEpisode(row pgx.Row) (*catalog.Episode, error) {
	var (
		ep      catalog.Episode
		airDate pgtype.Date
	)
	if err := row.Scan(&ep.SeriesID, &ep.Season, &ep.Number, &ep.RemoteID, &ep.Name, &ep.Overview,
		&airDate, &ep.UpdatedAt); err != nil {
		return nil, err
	}
	ep.AirDate = fromDate(airDate)
	return &ep, nil
}

func toDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.UTC().Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func fromDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}
