// Package store defines persistence for the local catalog and the sync watermark.
//
// Implementations live in subpackages: sqlite (embedded, default), postgres
// (shared server) and inmemory (tests and ephemeral runs).
package store

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/stacklok/showsync/internal/store Store

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/showsync/internal/catalog"
)

const (
	// WatermarkKey is the info key holding the last successful sync time.
	WatermarkKey = "last_sync"
)

// ErrNotFound is returned when a requested series or episode does not exist
var ErrNotFound = errors.New("not found")

// SeriesStore reads and writes series rows
type SeriesStore interface {
	ListSeries(ctx context.Context) ([]catalog.Series, error)
	GetSeries(ctx context.Context, seriesID int64) (*catalog.Series, error)
	// SaveSeries inserts or updates the series identified by series.ID
	SaveSeries(ctx context.Context, series *catalog.Series) error
}

// EpisodeStore reads and writes episode rows
type EpisodeStore interface {
	GetEpisode(ctx context.Context, key catalog.EpisodeKey) (*catalog.Episode, error)
	ListEpisodes(ctx context.Context, seriesID int64) ([]catalog.Episode, error)
	// SaveEpisode is get-or-create on (series, season, number): it never produces a duplicate key.
	SaveEpisode(ctx context.Context, episode *catalog.Episode) error
	// NewestEpisode returns the stored episode with the latest known air date,
	// or nil when no episode of the series has season, number and air date all known.
	NewestEpisode(ctx context.Context, seriesID int64) (*catalog.Episode, error)
}

// WatermarkStore reads and writes the single-row sync watermark
type WatermarkStore interface {
	// GetWatermark returns 0 when no watermark has been written
	GetWatermark(ctx context.Context) (int64, error)
	SetWatermark(ctx context.Context, value int64) error
}

// Store is the full persistence surface used by the sync engine
type Store interface {
	SeriesStore
	EpisodeStore
	WatermarkStore

	// Close releases any underlying resources
	Close() error
}

// Error reports a persistence failure. Sync passes treat it as fatal.
type Error struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap wraps err in an *Error for op. It returns nil for a nil err and leaves
// ErrNotFound and existing *Error values untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *Error
	if errors.Is(err, ErrNotFound) || errors.As(err, &storeErr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorageError reports whether err is, or wraps, an *Error
func IsStorageError(err error) bool {
	var storeErr *Error
	return errors.As(err, &storeErr)
}
