package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/showsync/database"
	"github.com/stacklok/showsync/internal/store"
	"github.com/stacklok/showsync/internal/store/storetest"
)

func TestPGStore_Conformance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool, _, cleanup := database.SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanup)

	require.NoError(t, WaitForPool(ctx, pool, 10*time.Second))

	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		_, err := pool.Exec(ctx, `TRUNCATE episodes, series, sync_info`)
		require.NoError(t, err)

		s, err := New(pool)
		require.NoError(t, err)
		return s
	})
}

func TestNew_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}
