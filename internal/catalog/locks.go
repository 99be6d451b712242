package catalog

import (
	"context"
	"sync"
)

// LockRegistry hands out exclusive per-series locks.
// Any reader or writer of a series' persisted state acquires the same lock,
// so no reader observes a half-applied remote snapshot.
type LockRegistry struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLockRegistry creates an empty lock registry
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{entries: make(map[int64]*lockEntry)}
}

// Acquire blocks until the lock for seriesID is held or ctx is done.
// The returned release function is safe to call more than once.
func (r *LockRegistry) Acquire(ctx context.Context, seriesID int64) (func(), error) {
	entry := r.ref(seriesID)

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		r.unref(seriesID, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			r.unref(seriesID, entry)
		})
	}, nil
}

// WithLock runs fn while holding the lock for seriesID.
func (r *LockRegistry) WithLock(ctx context.Context, seriesID int64, fn func(ctx context.Context) error) error {
	release, err := r.Acquire(ctx, seriesID)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Len returns the number of series with an outstanding lock reference.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *LockRegistry) ref(seriesID int64) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[seriesID]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		r.entries[seriesID] = entry
	}
	entry.refs++
	return entry
}

func (r *LockRegistry) unref(seriesID int64, entry *lockEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(r.entries, seriesID)
	}
}
