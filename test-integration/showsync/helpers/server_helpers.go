package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	"github.com/stacklok/showsync/internal/app"
	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/config"
	"github.com/stacklok/showsync/internal/store/sqlite"
	pkgsync "github.com/stacklok/showsync/internal/sync"
)

// NewConfig returns a SQLite-backed configuration pointing at provider
func NewConfig(provider *FakeProvider, dataDir string) *config.Config {
	return &config.Config{
		Sync: &config.SyncConfig{
			Interval: "1h",
			Tick:     "50ms",
		},
		Provider:     config.ProviderConfig{Endpoint: provider.URL(), APIKey: "test-key"},
		Supplemental: &config.SupplementalConfig{Endpoint: provider.SupplementalURL()},
		Storage: &config.StorageConfig{
			Type:    config.StorageTypeSQLite,
			DataDir: dataDir,
		},
	}
}

// SeedCatalog writes series straight into the SQLite catalog before the server starts
func SeedCatalog(ctx context.Context, cfg *config.Config, series ...catalog.Series) {
	st, err := sqlite.Open(ctx, cfg.GetSQLitePath())
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() { _ = st.Close() }()

	for i := range series {
		gomega.Expect(st.SaveSeries(ctx, &series[i])).To(gomega.Succeed())
	}
}

// ServerTestHelper manages the application lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	cfg        *config.Config
	baseURL    string
	address    string
	httpClient *http.Client
	app        *app.SyncApp
}

// NewServerTestHelper creates a helper listening on a free loopback port
func NewServerTestHelper(ctx context.Context, cfg *config.Config) (*ServerTestHelper, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}
	address := l.Addr().String()
	if err := l.Close(); err != nil {
		return nil, err
	}

	return &ServerTestHelper{
		ctx:        ctx,
		cfg:        cfg,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// StartServer builds the application and starts it in the background
func (s *ServerTestHelper) StartServer() error {
	syncApp, err := app.NewSyncApp(s.ctx,
		app.WithConfig(s.cfg),
		app.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = syncApp

	go func() {
		if err := syncApp.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()
	return nil
}

// StopServer gracefully stops the application
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits until /readiness answers 200
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() int {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return 0
		}
		_ = resp.Body.Close()
		return resp.StatusCode
	}, timeout, 50*time.Millisecond).Should(gomega.Equal(http.StatusOK))
}

// RunFullSync runs a full pass as the scheduler would
func (s *ServerTestHelper) RunFullSync() (*pkgsync.Result, *pkgsync.Error) {
	return s.app.Components().SyncManager.RunFullSync(s.ctx)
}

// GetJSON decodes the response of GET path into out and returns the status code
func (s *ServerTestHelper) GetJSON(path string, out any) int {
	return s.do(http.MethodGet, path, out)
}

// PostJSON decodes the response of POST path into out and returns the status code
func (s *ServerTestHelper) PostJSON(path string, out any) int {
	return s.do(http.MethodPost, path, out)
}

func (s *ServerTestHelper) do(method, path string, out any) int {
	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	resp, err := s.httpClient.Do(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		gomega.Expect(json.Unmarshal(body, out)).To(gomega.Succeed(), string(body))
	}
	return resp.StatusCode
}
