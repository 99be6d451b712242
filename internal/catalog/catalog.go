package catalog

import (
	"context"
)

// Reader reads series from persistent storage
type Reader interface {
	ListSeries(ctx context.Context) ([]Series, error)
	GetSeries(ctx context.Context, seriesID int64) (*Series, error)
}

// Catalog is the enumerable, lockable collection of series the sync engine walks.
type Catalog interface {
	// List returns every series in the catalog ordered by ID
	List(ctx context.Context) ([]Series, error)

	// Get returns a single series
	Get(ctx context.Context, seriesID int64) (*Series, error)

	// Locks returns the lock registry guarding per-series state
	Locks() *LockRegistry
}

type storeCatalog struct {
	reader Reader
	locks  *LockRegistry
}

// New creates a Catalog backed by reader. A nil locks argument creates a private registry.
func New(reader Reader, locks *LockRegistry) Catalog {
	if locks == nil {
		locks = NewLockRegistry()
	}
	return &storeCatalog{reader: reader, locks: locks}
}

func (c *storeCatalog) List(ctx context.Context) ([]Series, error) {
	return c.reader.ListSeries(ctx)
}

func (c *storeCatalog) Get(ctx context.Context, seriesID int64) (*Series, error) {
	return c.reader.GetSeries(ctx, seriesID)
}

func (c *storeCatalog) Locks() *LockRegistry {
	return c.locks
}
