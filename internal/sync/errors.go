package sync

import (
	"errors"

	"github.com/stacklok/showsync/internal/sources"
	"github.com/stacklok/showsync/internal/store"
)

// Pass failure reasons
const (
	// ReasonParseError means the provider's delta response was malformed
	ReasonParseError = "parse-error"

	// ReasonDeltaFailed means the delta query failed in an unexpected way
	ReasonDeltaFailed = "delta-query-failed"

	// ReasonStorageFailed means a catalog or watermark write or read failed
	ReasonStorageFailed = "storage-failed"

	// ReasonSeriesNotFound means a single-series pass named an unknown series
	ReasonSeriesNotFound = "series-not-found"

	// ReasonInterrupted means the pass stopped on a non-storage error, such as
	// a cancelled context while waiting for a series lock
	ReasonInterrupted = "interrupted"
)

// Error is the structured failure of a sync pass
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// isFetchError reports whether err only fails the affected series
func isFetchError(err error) bool {
	var fetchErr *sources.FetchError
	return errors.As(err, &fetchErr) && !store.IsStorageError(err)
}

// abortReason classifies an error that stops a pass
func abortReason(err error) string {
	if store.IsStorageError(err) {
		return ReasonStorageFailed
	}
	return ReasonInterrupted
}
