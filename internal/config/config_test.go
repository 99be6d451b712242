package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/showsync/internal/telemetry"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		yamlContent      string
		skipFileCreation bool
		wantConfig       *Config
		wantErr          bool
	}{
		{
			name: "full_config",
			yamlContent: `sync:
  interval: 30m
  tick: 2s
  requestTimeout: 60s
  stalenessThreshold: 12h
  runOnStart: true
provider:
  endpoint: https://provider.example.com/api
  apiKey: secret
supplemental:
  endpoint: https://supplemental.example.com
storage:
  type: sqlite
  dataDir: /var/lib/showsync
logging:
  level: debug
  file: /var/log/showsync.log
  maxSizeMB: 10`,
			wantConfig: &Config{
				Sync: &SyncConfig{
					Interval:           "30m",
					Tick:               "2s",
					RequestTimeout:     "60s",
					StalenessThreshold: "12h",
					RunOnStart:         true,
				},
				Provider:     ProviderConfig{Endpoint: "https://provider.example.com/api", APIKey: "secret"},
				Supplemental: &SupplementalConfig{Endpoint: "https://supplemental.example.com"},
				Storage:      &StorageConfig{Type: "sqlite", DataDir: "/var/lib/showsync"},
				Logging:      &LoggingConfig{Level: "debug", File: "/var/log/showsync.log", MaxSizeMB: 10},
			},
		},
		{
			name: "minimal_config",
			yamlContent: `provider:
  endpoint: http://localhost:8081`,
			wantConfig: &Config{
				Provider: ProviderConfig{Endpoint: "http://localhost:8081"},
			},
		},
		{
			name: "postgres_with_telemetry",
			yamlContent: `provider:
  endpoint: http://localhost:8081
storage:
  type: postgres
database:
  host: db
  port: 5432
  user: sync
  database: catalog
telemetry:
  enabled: true
  metrics:
    enabled: true`,
			wantConfig: &Config{
				Provider: ProviderConfig{Endpoint: "http://localhost:8081"},
				Storage:  &StorageConfig{Type: "postgres"},
				Database: &DatabaseConfig{Host: "db", Port: 5432, User: "sync", Database: "catalog"},
				Telemetry: &telemetry.Config{
					Enabled: true,
					Metrics: &telemetry.MetricsConfig{Enabled: true},
				},
			},
		},
		{
			name:        "missing_provider",
			yamlContent: `storage: {type: memory}`,
			wantErr:     true,
		},
		{
			name:        "invalid_yaml",
			yamlContent: `provider: [invalid yaml`,
			wantErr:     true,
		},
		{
			name:             "file_not_found",
			skipFileCreation: true,
			wantErr:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			if tt.skipFileCreation {
				configPath = filepath.Join(tmpDir, "non-existent.yaml")
			} else {
				err := os.WriteFile(configPath, []byte(tt.yamlContent), 0600)
				require.NoError(t, err)
			}

			config, err := LoadConfig(WithConfigPath(configPath))

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, config)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{Provider: ProviderConfig{Endpoint: "https://provider.example.com"}}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "bad_scheme",
			mutate:  func(c *Config) { c.Provider.Endpoint = "ftp://provider" },
			wantErr: "scheme must be http or https",
		},
		{
			name:    "bad_interval",
			mutate:  func(c *Config) { c.Sync = &SyncConfig{Interval: "soon"} },
			wantErr: "sync.interval must be a valid duration",
		},
		{
			name:    "negative_tick",
			mutate:  func(c *Config) { c.Sync = &SyncConfig{Tick: "-1s"} },
			wantErr: "sync.tick must be positive",
		},
		{
			name:    "unknown_storage",
			mutate:  func(c *Config) { c.Storage = &StorageConfig{Type: "mongo"} },
			wantErr: "storage.type must be one of",
		},
		{
			name:    "postgres_without_database",
			mutate:  func(c *Config) { c.Storage = &StorageConfig{Type: "postgres"} },
			wantErr: "database configuration is required",
		},
		{
			name: "postgres_incomplete_database",
			mutate: func(c *Config) {
				c.Storage = &StorageConfig{Type: "postgres"}
				c.Database = &DatabaseConfig{Host: "db"}
			},
			wantErr: "port must be between",
		},
		{
			name:    "bad_log_level",
			mutate:  func(c *Config) { c.Logging = &LoggingConfig{Level: "loud"} },
			wantErr: "unknown log level",
		},
		{
			name:    "bad_supplemental",
			mutate:  func(c *Config) { c.Supplemental = &SupplementalConfig{} },
			wantErr: "supplemental.endpoint",
		},
		{
			name:    "unknown_auth_mode",
			mutate:  func(c *Config) { c.Auth = &AuthConfig{Mode: "basic"} },
			wantErr: "auth: mode must be anonymous or jwt",
		},
		{
			name:    "jwt_without_secret",
			mutate:  func(c *Config) { c.Auth = &AuthConfig{Mode: "jwt"} },
			wantErr: "jwt.secretFile is required",
		},
		{
			name: "jwt_bad_leeway",
			mutate: func(c *Config) {
				c.Auth = &AuthConfig{Mode: "JWT", JWT: &JWTConfig{SecretFile: "/run/secret", Leeway: "a bit"}}
			},
			wantErr: "jwt.leeway must be a valid duration",
		},
		{
			name: "jwt_valid",
			mutate: func(c *Config) {
				c.Auth = &AuthConfig{Mode: "jwt", JWT: &JWTConfig{SecretFile: "/run/secret", Leeway: "30s"}}
			},
		},
		{
			name: "bad_telemetry_sampling",
			mutate: func(c *Config) {
				c.Telemetry = &telemetry.Config{Enabled: true, Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: 2}}
			},
			wantErr: "sampling must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSyncDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, time.Hour, cfg.GetSyncInterval())
	assert.Equal(t, time.Second, cfg.GetTickInterval())
	assert.Equal(t, 180*time.Second, cfg.GetRequestTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetFetchTimeout())
	assert.Equal(t, 24*time.Hour, cfg.GetStalenessThreshold())
	assert.False(t, cfg.GetRunOnStart())

	cfg.Sync = &SyncConfig{Interval: "5m", Tick: "100ms", StalenessThreshold: "bogus", RunOnStart: true}
	assert.Equal(t, 5*time.Minute, cfg.GetSyncInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.GetTickInterval())
	assert.Equal(t, 24*time.Hour, cfg.GetStalenessThreshold())
	assert.True(t, cfg.GetRunOnStart())
}

func TestStorageDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, StorageTypeSQLite, cfg.GetStorageType())
	assert.Equal(t, DefaultAppName, filepath.Base(cfg.GetDataDir()))
	assert.Equal(t, filepath.Join(cfg.GetDataDir(), "catalog.db"), cfg.GetSQLitePath())

	cfg.Storage = &StorageConfig{Type: "Memory", DataDir: "/data"}
	assert.Equal(t, StorageTypeMemory, cfg.GetStorageType())
	assert.Equal(t, "/data/catalog.db", cfg.GetSQLitePath())

	cfg.Storage.Path = "/elsewhere/x.db"
	assert.Equal(t, "/elsewhere/x.db", cfg.GetSQLitePath())
}

func TestAuthDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, AuthModeAnonymous, cfg.GetAuthMode())

	cfg.Auth = &AuthConfig{Mode: "JWT"}
	assert.Equal(t, AuthModeJWT, cfg.GetAuthMode())

	jwtCfg := &JWTConfig{}
	assert.Zero(t, jwtCfg.GetLeeway())
	jwtCfg.Leeway = "1m"
	assert.Equal(t, time.Minute, jwtCfg.GetLeeway())
}

func TestJWTConfigGetSecret(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	secretFile := filepath.Join(dir, "secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("  s3cret\n"), 0o600))
	emptyFile := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("\n"), 0o600))

	secret, err := (&JWTConfig{SecretFile: secretFile}).GetSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), secret)

	_, err = (&JWTConfig{SecretFile: emptyFile}).GetSecret()
	assert.ErrorContains(t, err, "is empty")

	_, err = (&JWTConfig{SecretFile: filepath.Join(dir, "missing")}).GetSecret()
	assert.ErrorContains(t, err, "failed to read jwt secret")
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	loader := &loaderConfig{}
	require.Error(t, WithConfigPath("")(loader))
	require.Error(t, WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))(loader))

	real := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(real, []byte("provider: {}"), 0600))
	link := filepath.Join(t.TempDir(), "link.yaml")
	require.NoError(t, os.Symlink(real, link))

	require.NoError(t, WithConfigPath(link)(loader))
	assert.Equal(t, real, loader.path)
}

func TestDatabaseConfigGetPassword(t *testing.T) {
	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("  from-file\n"), 0600))

	t.Run("file_wins", func(t *testing.T) {
		t.Setenv(PasswordEnvVar, "from-env")
		pw, err := (&DatabaseConfig{PasswordFile: passwordFile}).GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "from-file", pw)
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(PasswordEnvVar, "from-env")
		pw, err := (&DatabaseConfig{}).GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "from-env", pw)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(PasswordEnvVar, "")
		_, err := (&DatabaseConfig{}).GetPassword()
		require.Error(t, err)
	})
}

func TestDatabaseConfigGetConnectionString(t *testing.T) {
	t.Setenv(PasswordEnvVar, "p@ss word")

	cfg := &DatabaseConfig{Host: "db", Port: 5432, User: "sync", Database: "catalog"}
	conn, err := cfg.GetConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://sync:p%40ss+word@db:5432/catalog?sslmode=require", conn)

	cfg.SSLMode = "disable"
	conn, err = cfg.GetConnectionString()
	require.NoError(t, err)
	assert.Contains(t, conn, "sslmode=disable")
}

func TestProviderGetAPIKey(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("file-key\n"), 0600))

	t.Setenv(APIKeyEnvVar, "env-key")

	key, err := (&ProviderConfig{APIKeyFile: keyFile, APIKey: "inline"}).GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "file-key", key)

	key, err = (&ProviderConfig{APIKey: "inline"}).GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "inline", key)

	key, err = (&ProviderConfig{}).GetAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	_, err = (&ProviderConfig{APIKeyFile: filepath.Join(t.TempDir(), "missing")}).GetAPIKey()
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	require.Error(t, err)

	assert.Equal(t, slog.LevelInfo, (*Config)(nil).GetLogLevel())
	assert.Equal(t, slog.LevelDebug, (&Config{Logging: &LoggingConfig{Level: "debug"}}).GetLogLevel())
}
