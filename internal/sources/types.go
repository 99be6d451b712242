package sources

import (
	"context"
	"time"

	"github.com/stacklok/showsync/internal/catalog"
)

//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks -source=types.go DeltaClient,SeriesFetcher,SupplementalSource

// DeltaClient queries the provider for entities changed since a watermark
type DeltaClient interface {
	// QueryChanges returns the change set since the given watermark.
	// A since of 0 yields an empty Known set without contacting the provider.
	// Transport failures yield an Unknown set and a nil error; a malformed
	// response yields a *ParseError.
	QueryChanges(ctx context.Context, since int64) (*ChangeSet, error)
}

// SeriesFetcher fetches authoritative snapshots. Failures are *FetchError.
type SeriesFetcher interface {
	// FetchSeries returns the full series snapshot
	FetchSeries(ctx context.Context, seriesID int64) (*catalog.Series, error)
	// FetchEpisode returns a single episode
	FetchEpisode(ctx context.Context, key catalog.EpisodeKey) (*catalog.Episode, error)
	// FetchEpisodes returns every episode of the series
	FetchEpisodes(ctx context.Context, seriesID int64) ([]catalog.Episode, error)
}

// SupplementalSource discovers episodes the provider may not list yet
type SupplementalSource interface {
	// EpisodesAiringAfter returns episodes of the series with an air date after cutoff
	EpisodesAiringAfter(ctx context.Context, series catalog.Series, cutoff time.Time) ([]catalog.Episode, error)
}
