package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistry_AcquireRelease(t *testing.T) {
	t.Parallel()

	reg := NewLockRegistry()
	release, err := reg.Acquire(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	release()
	release()
	assert.Equal(t, 0, reg.Len())
}

func TestLockRegistry_Exclusive(t *testing.T) {
	t.Parallel()

	reg := NewLockRegistry()
	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := reg.WithLock(context.Background(), 7, func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, reg.Len())
}

func TestLockRegistry_IndependentSeries(t *testing.T) {
	t.Parallel()

	reg := NewLockRegistry()
	releaseA, err := reg.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := reg.Acquire(ctx, 2)
	require.NoError(t, err)
	releaseB()
}

func TestLockRegistry_AcquireHonoursContext(t *testing.T) {
	t.Parallel()

	reg := NewLockRegistry()
	release, err := reg.Acquire(context.Background(), 3)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = reg.Acquire(ctx, 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	assert.Equal(t, 0, reg.Len())
}

func TestLockRegistry_WithLockReleasesOnError(t *testing.T) {
	t.Parallel()

	reg := NewLockRegistry()
	err := reg.WithLock(context.Background(), 5, func(context.Context) error {
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	release, err := reg.Acquire(context.Background(), 5)
	require.NoError(t, err)
	release()
}
