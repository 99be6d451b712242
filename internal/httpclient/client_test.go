package httpclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/showsync/internal/httpclient"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestDefaultClient_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantBody   string
		wantStatus int
		wantErr    bool
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.Equal(t, httpclient.UserAgent, r.Header.Get("User-Agent"))
				_, _ = fmt.Fprint(w, `{"time": 1}`)
			},
			wantBody: `{"time": 1}`,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			wantStatus: http.StatusNotFound,
			wantErr:    true,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantErr:    true,
		},
		{
			name: "declared length too large",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", fmt.Sprint(httpclient.MaxResponseSize+1))
				_, _ = w.Write([]byte(strings.Repeat("x", 10)))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(tt.handler)
			defer server.Close()

			client := httpclient.NewDefaultClient(5 * time.Second)
			body, err := client.Get(context.Background(), server.URL)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
				return
			}

			require.Error(t, err)
			if tt.wantStatus != 0 {
				var httpErr *httpclient.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
				assert.Equal(t, server.URL, httpErr.URL)
				assert.Equal(t, tt.wantStatus == http.StatusNotFound, httpclient.IsNotFound(err))
			}
		})
	}
}

func TestDefaultClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := httpclient.NewDefaultClient(50 * time.Millisecond)
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
}

func TestDefaultClient_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := httpclient.NewDefaultClient(time.Second).Get(ctx, server.URL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefaultClient_UserAgentOption(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(time.Second, httpclient.WithUserAgent("custom/2"))
	body, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "custom/2", string(body))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, httpclient.IsNotFound(fmt.Errorf("wrapped: %w", httpclient.NewHTTPError(404, "u", "404 Not Found"))))
	assert.False(t, httpclient.IsNotFound(httpclient.NewHTTPError(500, "u", "boom")))
	assert.False(t, httpclient.IsNotFound(assert.AnError))
}
