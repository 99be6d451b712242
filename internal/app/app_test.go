package app

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	syncmocks "github.com/stacklok/showsync/internal/sync/mocks"
)

// freeAddress returns a loopback address nothing is listening on
func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestSyncAppStartStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	addr := freeAddress(t)
	app, err := NewSyncApp(ctx,
		WithConfig(createValidTestConfig(t)),
		WithAddress(addr),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.NoError(t, err)

	started := make(chan error, 1)
	go func() {
		started <- app.Start()
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestSyncAppStartFailsWhenPortTaken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	app, err := NewSyncApp(ctx,
		WithConfig(createValidTestConfig(t)),
		WithAddress(l.Addr().String()),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(ctx) })

	// The coordinator is stopped as well, so Start returns
	err = app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")
}
