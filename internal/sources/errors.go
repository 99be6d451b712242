package sources

import (
	"fmt"

	"github.com/stacklok/showsync/internal/catalog"
)

// ParseError reports a provider response that could not be interpreted.
// It aborts the sync pass without advancing the watermark.
type ParseError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed provider response: %v", e.Err)
	}
	return fmt.Sprintf("malformed provider response: field %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed series or episode fetch.
// It fails the affected series only.
type FetchError struct {
	SeriesID int64
	// Episode is set when a single episode fetch failed
	Episode *catalog.EpisodeKey
	Err     error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Episode != nil {
		return fmt.Sprintf("failed to fetch episode %s: %v", e.Episode, e.Err)
	}
	return fmt.Sprintf("failed to fetch series %d: %v", e.SeriesID, e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}
