// Package config provides configuration loading and management for the sync service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/showsync/internal/telemetry"
)

const (
	// StorageTypeSQLite keeps the catalog in an embedded SQLite database
	StorageTypeSQLite = "sqlite"

	// StorageTypePostgres keeps the catalog in PostgreSQL
	StorageTypePostgres = "postgres"

	// StorageTypeMemory keeps the catalog in process memory; only the watermark is persisted
	StorageTypeMemory = "memory"
)

const (
	// AuthModeAnonymous serves the API without authentication
	AuthModeAnonymous = "anonymous"

	// AuthModeJWT requires a bearer JWT signed with a shared HMAC secret
	AuthModeJWT = "jwt"
)

const (
	// DefaultSyncInterval is how often a full sync pass runs
	DefaultSyncInterval = time.Hour

	// DefaultTickInterval is how often the scheduler wakes up to check for due work and shutdown
	DefaultTickInterval = time.Second

	// DefaultRequestTimeout bounds the changed-since query
	DefaultRequestTimeout = 180 * time.Second

	// DefaultFetchTimeout bounds single series and episode fetches
	DefaultFetchTimeout = 30 * time.Second

	// DefaultStalenessThreshold is the age after which an unknown delta forces a resync
	DefaultStalenessThreshold = 24 * time.Hour

	// DefaultAppName names the data directory and the lock file
	DefaultAppName = "showsync"

	// EnvPrefix prefixes environment variables read through viper
	EnvPrefix = "SHOWSYNC"

	// PasswordEnvVar is consulted when no database password file is configured
	PasswordEnvVar = "SHOWSYNC_DATABASE_PASSWORD"

	// APIKeyEnvVar is consulted when no provider api key is configured
	APIKeyEnvVar = "SHOWSYNC_PROVIDER_API_KEY"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Sync         *SyncConfig         `yaml:"sync,omitempty"`
	Provider     ProviderConfig      `yaml:"provider"`
	Supplemental *SupplementalConfig `yaml:"supplemental,omitempty"`
	Storage      *StorageConfig      `yaml:"storage,omitempty"`
	Database     *DatabaseConfig     `yaml:"database,omitempty"`
	Logging      *LoggingConfig      `yaml:"logging,omitempty"`
	Auth         *AuthConfig         `yaml:"auth,omitempty"`
	Telemetry    *telemetry.Config   `yaml:"telemetry,omitempty"`
}

// SyncConfig defines scheduling and sync policy. Durations use Go syntax ("1h", "30s").
type SyncConfig struct {
	// Interval between full sync passes
	Interval string `yaml:"interval,omitempty"`

	// Tick is the scheduler polling granularity; shutdown is observed once per tick
	Tick string `yaml:"tick,omitempty"`

	// RequestTimeout bounds the changed-since query
	RequestTimeout string `yaml:"requestTimeout,omitempty"`

	// FetchTimeout bounds each series or episode fetch
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`

	// StalenessThreshold is how old the watermark must be before an unknown delta forces a resync
	StalenessThreshold string `yaml:"stalenessThreshold,omitempty"`

	// RunOnStart runs the first pass immediately instead of one interval after start
	RunOnStart bool `yaml:"runOnStart,omitempty"`
}

// ProviderConfig defines the authoritative metadata provider
type ProviderConfig struct {
	// Endpoint is the provider base URL
	Endpoint string `yaml:"endpoint"`

	// APIKey is sent as the apikey query parameter
	APIKey string `yaml:"apiKey,omitempty"`

	// APIKeyFile is a file holding the api key; it takes precedence over APIKey
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`
}

// SupplementalConfig defines the optional secondary source used to discover newly aired episodes
type SupplementalConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// StorageConfig selects where the catalog lives
type StorageConfig struct {
	// Type is one of sqlite, postgres or memory. Defaults to sqlite.
	Type string `yaml:"type,omitempty"`

	// DataDir holds the SQLite database, the file watermark and the process lock.
	// Defaults to $XDG_DATA_HOME/showsync.
	DataDir string `yaml:"dataDir,omitempty"`

	// Path is the SQLite database file. Defaults to <dataDir>/catalog.db.
	Path string `yaml:"path,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// ConnectTimeout is how long start-up keeps retrying an unreachable database
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
}

// AuthConfig protects the HTTP API
type AuthConfig struct {
	// Mode is anonymous (default) or jwt
	Mode string `yaml:"mode,omitempty"`

	JWT *JWTConfig `yaml:"jwt,omitempty"`

	// PublicPaths bypass authentication. Defaults to /health, /readiness and /version.
	PublicPaths []string `yaml:"publicPaths,omitempty"`
}

// JWTConfig defines how bearer tokens are validated
type JWTConfig struct {
	// SecretFile holds the HMAC signing secret
	SecretFile string `yaml:"secretFile"`

	Issuer   string `yaml:"issuer,omitempty"`
	Audience string `yaml:"audience,omitempty"`

	// Leeway tolerates clock skew on exp and nbf
	Leeway string `yaml:"leeway,omitempty"`

	// Realm is reported in WWW-Authenticate
	Realm string `yaml:"realm,omitempty"`
}

// GetSecret reads the signing secret, trimming surrounding whitespace
func (j *JWTConfig) GetSecret() ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(j.SecretFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read jwt secret from file %s: %w", j.SecretFile, err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return nil, fmt.Errorf("jwt secret file %s is empty", j.SecretFile)
	}
	return []byte(secret), nil
}

// GetLeeway returns the clock skew tolerance, zero by default
func (j *JWTConfig) GetLeeway() time.Duration {
	return durationOr(j.Leeway, 0)
}

// GetAuthMode returns the configured auth mode, defaulting to anonymous
func (c *Config) GetAuthMode() string {
	if c.Auth == nil || c.Auth.Mode == "" {
		return AuthModeAnonymous
	}
	return strings.ToLower(c.Auth.Mode)
}

func (a *AuthConfig) validate() error {
	switch mode := strings.ToLower(a.Mode); mode {
	case "", AuthModeAnonymous:
		return nil
	case AuthModeJWT:
		if a.JWT == nil || a.JWT.SecretFile == "" {
			return fmt.Errorf("jwt.secretFile is required for mode %q", AuthModeJWT)
		}
		if a.JWT.Leeway != "" {
			if _, err := time.ParseDuration(a.JWT.Leeway); err != nil {
				return fmt.Errorf("jwt.leeway must be a valid duration: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("mode must be %s or %s, got %q", AuthModeAnonymous, AuthModeJWT, a.Mode)
	}
}

// LoggingConfig defines optional file logging with rotation
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level,omitempty"`

	// File, when set, receives logs in addition to stderr
	File string `yaml:"file,omitempty"`

	MaxSizeMB  int  `yaml:"maxSizeMB,omitempty"`
	MaxBackups int  `yaml:"maxBackups,omitempty"`
	MaxAgeDays int  `yaml:"maxAgeDays,omitempty"`
	Compress   bool `yaml:"compress,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Provider.Endpoint == "" {
		errs = append(errs, fmt.Errorf("provider.endpoint is required"))
	} else if err := validateURL(c.Provider.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("provider.endpoint: %w", err))
	}

	if c.Supplemental != nil {
		if err := validateURL(c.Supplemental.Endpoint); err != nil {
			errs = append(errs, fmt.Errorf("supplemental.endpoint: %w", err))
		}
	}

	if c.Sync != nil {
		errs = append(errs, c.Sync.validate()...)
	}

	switch c.GetStorageType() {
	case StorageTypeSQLite, StorageTypeMemory:
	case StorageTypePostgres:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database configuration is required for storage type %q", StorageTypePostgres))
		} else if err := c.Database.validate(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be one of %s, %s or %s, got %q",
			StorageTypeSQLite, StorageTypePostgres, StorageTypeMemory, c.Storage.Type))
	}

	if c.Logging != nil && c.Logging.Level != "" {
		if _, err := ParseLogLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}

	if c.Auth != nil {
		if err := c.Auth.validate(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func (s *SyncConfig) validate() []error {
	var errs []error
	fields := []struct {
		name  string
		value string
	}{
		{"sync.interval", s.Interval},
		{"sync.tick", s.Tick},
		{"sync.requestTimeout", s.RequestTimeout},
		{"sync.fetchTimeout", s.FetchTimeout},
		{"sync.stalenessThreshold", s.StalenessThreshold},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", f.name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", f.name, f.value))
		}
	}
	return errs
}

func (d *DatabaseConfig) validate() error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, fmt.Errorf("host is required"))
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, fmt.Errorf("user is required"))
	}
	if d.Database == "" {
		errs = append(errs, fmt.Errorf("database is required"))
	}
	for name, value := range map[string]string{
		"connMaxLifetime": d.ConnMaxLifetime,
		"connectTimeout":  d.ConnectTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s must be a valid duration: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetSyncInterval returns the interval between full passes
func (c *Config) GetSyncInterval() time.Duration {
	if c.Sync == nil {
		return DefaultSyncInterval
	}
	return durationOr(c.Sync.Interval, DefaultSyncInterval)
}

// GetTickInterval returns the scheduler tick
func (c *Config) GetTickInterval() time.Duration {
	if c.Sync == nil {
		return DefaultTickInterval
	}
	return durationOr(c.Sync.Tick, DefaultTickInterval)
}

// GetRequestTimeout returns the changed-since query timeout
func (c *Config) GetRequestTimeout() time.Duration {
	if c.Sync == nil {
		return DefaultRequestTimeout
	}
	return durationOr(c.Sync.RequestTimeout, DefaultRequestTimeout)
}

// GetFetchTimeout returns the per-entity fetch timeout
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Sync == nil {
		return DefaultFetchTimeout
	}
	return durationOr(c.Sync.FetchTimeout, DefaultFetchTimeout)
}

// GetStalenessThreshold returns how old a watermark must be to force a resync on an unknown delta
func (c *Config) GetStalenessThreshold() time.Duration {
	if c.Sync == nil {
		return DefaultStalenessThreshold
	}
	return durationOr(c.Sync.StalenessThreshold, DefaultStalenessThreshold)
}

// GetRunOnStart reports whether the first pass runs immediately
func (c *Config) GetRunOnStart() bool {
	return c.Sync != nil && c.Sync.RunOnStart
}

// GetStorageType returns the configured storage type, defaulting to sqlite
func (c *Config) GetStorageType() string {
	if c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeSQLite
	}
	return strings.ToLower(c.Storage.Type)
}

// GetDataDir returns the data directory, defaulting to $XDG_DATA_HOME/showsync
func (c *Config) GetDataDir() string {
	if c.Storage != nil && c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return filepath.Join(xdg.DataHome, DefaultAppName)
}

// GetSQLitePath returns the SQLite database path
func (c *Config) GetSQLitePath() string {
	if c.Storage != nil && c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.GetDataDir(), "catalog.db")
}

// GetAPIKey returns the provider api key from APIKeyFile, APIKey or the
// SHOWSYNC_PROVIDER_API_KEY environment variable, in that order. An empty key is valid.
func (p *ProviderConfig) GetAPIKey() (string, error) {
	if p.APIKeyFile != "" {
		data, err := os.ReadFile(filepath.Clean(p.APIKeyFile))
		if err != nil {
			return "", fmt.Errorf("failed to read api key from file %s: %w", p.APIKeyFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if p.APIKey != "" {
		return p.APIKey, nil
	}
	return os.Getenv(APIKeyEnvVar), nil
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from SHOWSYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		data, err := os.ReadFile(filepath.Clean(d.PasswordFile))
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection URL.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// GetConnectTimeout returns how long start-up retries an unreachable database
func (d *DatabaseConfig) GetConnectTimeout() time.Duration {
	return durationOr(d.ConnectTimeout, 30*time.Second)
}
