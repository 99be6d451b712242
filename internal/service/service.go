// Package service provides the read and trigger operations behind the HTTP API.
package service

import (
	"context"
	"errors"

	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/filtering"
	"github.com/stacklok/showsync/internal/status"
	pkgsync "github.com/stacklok/showsync/internal/sync"
)

var (
	// ErrSeriesNotFound is returned when a series is not in the catalog
	ErrSeriesNotFound = errors.New("series not found")
	// ErrInvalidCursor is returned for a cursor that does not decode
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrInvalidFilter is returned for a name pattern that does not compile
	ErrInvalidFilter = errors.New("invalid filter")
)

const (
	// DefaultPageSize is used when a listing does not ask for a limit
	DefaultPageSize = 100
	// MaxPageSize caps the limit of a listing
	MaxPageSize = 1000
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go CatalogService

// CatalogService defines the operations served by the API
type CatalogService interface {
	// CheckReadiness reports whether storage is reachable
	CheckReadiness(ctx context.Context) error

	// ListSeries returns one page of the catalog ordered by series ID
	ListSeries(ctx context.Context, opts ListSeriesOptions) (*SeriesPage, error)

	// GetSeries returns a series and its episodes
	GetSeries(ctx context.Context, seriesID int64) (*SeriesDetail, error)

	// SyncStatus returns the last known state of every pass mode
	SyncStatus() map[status.Mode]status.PassStatus

	// SyncSeries runs a single-series pass and waits for it
	SyncSeries(ctx context.Context, seriesID int64, force bool) (*pkgsync.Result, *pkgsync.Error)
}

// ListSeriesOptions selects a page of the catalog
type ListSeriesOptions struct {
	Cursor string
	Limit  int
	// Filter narrows the listing before pagination
	Filter *filtering.Criteria
}

// SeriesPage is one page of series
type SeriesPage struct {
	Series []catalog.Series
	// NextCursor is empty on the last page
	NextCursor string
}

// SeriesDetail is a series with its episodes, ordered by key
type SeriesDetail struct {
	Series   catalog.Series
	Episodes []catalog.Episode
}
