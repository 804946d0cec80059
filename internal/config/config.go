// Package config provides configuration loading and management for the share engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ResolverPolicyFailFast aborts contact resolution on the first lookup error
	ResolverPolicyFailFast = "failFast"

	// ResolverPolicyCollectPartial returns resolved participants plus itemized failures
	ResolverPolicyCollectPartial = "collectPartial"
)

const (
	// CatalogSourceGit is the type for template catalogs stored in Git repositories
	CatalogSourceGit = "git"

	// CatalogSourceAPI is the type for template catalogs fetched from API endpoints
	CatalogSourceAPI = "api"

	// CatalogSourceFile is the type for template catalogs stored in local files
	CatalogSourceFile = "file"
)

// defaultResolverConcurrency bounds parallel directory lookups so batches of
// invitees do not overwhelm the remote directory.
const defaultResolverConcurrency = 4

// Option customizes how configuration is loaded.
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath selects the YAML file to load configuration from. The path
// is resolved through symlinks and relative paths must stay local.
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

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

// Config is the root of the engine's YAML configuration.
type Config struct {
	Remote   RemoteConfig    `yaml:"remote"`
	Resolver ResolverConfig  `yaml:"resolver,omitempty"`
	Catalog  *CatalogConfig  `yaml:"catalog,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Server   ServerConfig    `yaml:"server,omitempty"`
}

// RemoteConfig defines the remote replicated store connection settings
type RemoteConfig struct {
	// Endpoint is the base URL of the remote store API (without path)
	Endpoint string `yaml:"endpoint"`

	// Zone is the name of the isolation zone used for published record graphs
	Zone string `yaml:"zone"`

	// TokenFile is the path to a file containing the identity bearer token.
	// Falls back to the MBK_REMOTE_TOKEN environment variable when empty.
	TokenFile string `yaml:"tokenFile,omitempty"`

	// Timeout is the per-request timeout (e.g., "15s"). Defaults to 15s.
	Timeout string `yaml:"timeout,omitempty"`
}

// ResolverConfig defines participant resolution behaviour
type ResolverConfig struct {
	// Policy is failFast or collectPartial. Defaults to collectPartial.
	Policy string `yaml:"policy,omitempty"`

	// Concurrency bounds parallel directory lookups. Defaults to 4.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// CatalogConfig defines the shared label-template catalog source
type CatalogConfig struct {
	// Name is the identifier for this catalog
	Name string `yaml:"name"`

	// Exactly one source below must be set.
	Git  *GitConfig  `yaml:"git,omitempty"`
	API  *APIConfig  `yaml:"api,omitempty"`
	File *FileConfig `yaml:"file,omitempty"`

	// RefreshInterval is how often the notifier checks the catalog for
	// remote mutation (e.g., "30m")
	RefreshInterval string `yaml:"refreshInterval"`

	// CachePath is the directory the refreshed catalog is written to
	CachePath string `yaml:"cachePath"`
}

// GitConfig defines Git catalog source settings
type GitConfig struct {
	// Repository is the clone URL of the catalog repository
	Repository string `yaml:"repository"`

	// Branch overrides the repository's default branch
	Branch string `yaml:"branch,omitempty"`

	// Path locates the catalog file inside the repository tree
	Path string `yaml:"path,omitempty"`
}

// APIConfig defines API catalog source settings
type APIConfig struct {
	// Endpoint is the full URL the catalog JSON document is fetched from
	Endpoint string `yaml:"endpoint"`
}

// FileConfig defines local file catalog source settings
type FileConfig struct {
	// Path is the path to the catalog JSON file on the local filesystem
	Path string `yaml:"path"`
}

// ServerConfig defines the operational HTTP API settings
type ServerConfig struct {
	// Address is the listen address, defaults to ":8080"
	Address string `yaml:"address,omitempty"`
}

// DatabaseConfig defines the Postgres connection for the local store.
type DatabaseConfig struct {
	// Host of the Postgres server
	Host string `yaml:"host"`

	// Port of the Postgres server
	Port int `yaml:"port"`

	// User to connect as
	User string `yaml:"user"`

	// PasswordFile holds the password, nothing else. Surrounding whitespace
	// is tolerated and trimmed.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database name to connect to
	Database string `yaml:"database"`

	// SSLMode passed through to the driver (disable, require, verify-ca,
	// verify-full). Defaults to require.
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns caps the connection pool size
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// ConnMaxLifetime recycles pooled connections after this duration
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword reads the database password from PasswordFile, or from the
// MBK_DATABASE_PASSWORD environment variable when no file is configured.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		data, err := os.ReadFile(filepath.Clean(d.PasswordFile))
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if password := os.Getenv("MBK_DATABASE_PASSWORD"); password != "" {
		return password, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or MBK_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString assembles the postgres:// connection string.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, password, d.Host, d.Port, d.Database, sslMode), nil
}

// LoadConfig reads, parses, and validates the engine configuration.
func LoadConfig(opts ...Option) (*Config, error) {
	var loader loaderConfig
	for _, opt := range opts {
		if err := opt(&loader); err != nil {
			return nil, err
		}
	}
	if loader.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loader.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// GetResolverPolicy returns the resolver policy, defaulting to collectPartial
func (c *Config) GetResolverPolicy() string {
	if c.Resolver.Policy == "" {
		return ResolverPolicyCollectPartial
	}
	return c.Resolver.Policy
}

// GetResolverConcurrency returns the resolver lookup concurrency bound
func (c *Config) GetResolverConcurrency() int {
	if c.Resolver.Concurrency <= 0 {
		return defaultResolverConcurrency
	}
	return c.Resolver.Concurrency
}

// GetServerAddress returns the HTTP listen address, defaulting to ":8080"
func (c *Config) GetServerAddress() string {
	if c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

// GetRemoteTimeout returns the per-request remote store timeout
func (c *Config) GetRemoteTimeout() time.Duration {
	if c.Remote.Timeout == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (c *Config) validate() error {
	if c.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required")
	}
	if c.Remote.Zone == "" {
		return fmt.Errorf("remote.zone is required")
	}
	if c.Remote.Timeout != "" {
		if _, err := time.ParseDuration(c.Remote.Timeout); err != nil {
			return fmt.Errorf("remote.timeout must be a valid duration (e.g., '15s'): %w", err)
		}
	}

	if err := c.validateResolver(); err != nil {
		return err
	}

	if c.Catalog != nil {
		if err := c.validateCatalog(c.Catalog); err != nil {
			return err
		}
	}

	return nil
}

// validateResolver validates the participant resolver configuration
func (c *Config) validateResolver() error {
	switch c.Resolver.Policy {
	case "", ResolverPolicyFailFast, ResolverPolicyCollectPartial:
	default:
		return fmt.Errorf("resolver.policy must be %s or %s, got %s",
			ResolverPolicyFailFast, ResolverPolicyCollectPartial, c.Resolver.Policy)
	}
	if c.Resolver.Concurrency < 0 {
		return fmt.Errorf("resolver.concurrency must not be negative")
	}
	return nil
}

// validateCatalog validates the template catalog configuration
func (*Config) validateCatalog(cat *CatalogConfig) error {
	if cat.Name == "" {
		return fmt.Errorf("catalog.name is required")
	}

	if cat.RefreshInterval == "" {
		return fmt.Errorf("catalog.refreshInterval is required")
	}
	if _, err := time.ParseDuration(cat.RefreshInterval); err != nil {
		return fmt.Errorf("catalog.refreshInterval must be a valid duration (e.g., '30m', '1h'): %w", err)
	}

	if cat.CachePath == "" {
		return fmt.Errorf("catalog.cachePath is required")
	}

	configCount := 0
	if cat.Git != nil {
		configCount++
	}
	if cat.API != nil {
		configCount++
	}
	if cat.File != nil {
		configCount++
	}
	if configCount == 0 {
		return fmt.Errorf("catalog: one of git, api, or file configuration must be specified")
	}
	if configCount > 1 {
		return fmt.Errorf("catalog: only one of git, api, or file configuration may be specified")
	}

	if cat.Git != nil && cat.Git.Repository == "" {
		return fmt.Errorf("catalog: git.repository is required")
	}
	if cat.API != nil && cat.API.Endpoint == "" {
		return fmt.Errorf("catalog: api.endpoint is required")
	}
	if cat.File != nil && cat.File.Path == "" {
		return fmt.Errorf("catalog: file.path is required")
	}

	return nil
}

// GetType reports which catalog source is configured.
func (c *CatalogConfig) GetType() string {
	if c.Git != nil {
		return CatalogSourceGit
	}
	if c.API != nil {
		return CatalogSourceAPI
	}
	if c.File != nil {
		return CatalogSourceFile
	}
	return ""
}
