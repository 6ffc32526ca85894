// Package config provides configuration types for the mentiondesk client.
//
// Durations are kept as strings ("15s", "5m") so that YAML files and
// environment variables share one syntax; they are checked by the custom
// "duration" validator and read through the accessor methods.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

// Config is the top-level configuration.
type Config struct {
	// API configures the backend the client talks to.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Session configures token persistence and re-verification.
	Session SessionConfig `yaml:"session" mapstructure:"session"`

	// Cache configures the response cache pools.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Metrics configures the optional Prometheus endpoint of the watch command.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Tracing configures the stdout span exporter.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode forces debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// APIConfig configures the REST backend.
type APIConfig struct {
	// BaseURL is the root of the API (e.g., "https://api.example.com").
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds every request. Defaults to "15s".
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// SessionConfig configures the session lifecycle.
type SessionConfig struct {
	// StorePath is the cookie-jar file. A leading "~/" is expanded to the
	// home directory. Defaults to "~/.mentiondesk/cookies.json".
	StorePath string `yaml:"store_path" mapstructure:"store_path" validate:"required"`

	// CookieMaxAge is the lifetime of the persisted cookies. Defaults to "168h".
	CookieMaxAge string `yaml:"cookie_max_age" mapstructure:"cookie_max_age" validate:"omitempty,duration"`

	// RecheckInterval is how often the watch command re-verifies the session.
	// Defaults to "5m".
	RecheckInterval string `yaml:"recheck_interval" mapstructure:"recheck_interval" validate:"omitempty,duration"`

	// DefaultTokenTTL applies when the server does not send an expiry.
	// Defaults to "24h".
	DefaultTokenTTL string `yaml:"default_token_ttl" mapstructure:"default_token_ttl" validate:"omitempty,duration"`
}

// CacheConfig configures the cache pools. The mentions pool has no TTL: its
// entries live until the server-provided expiry.
type CacheConfig struct {
	ProjectsTTL   string `yaml:"projects_ttl" mapstructure:"projects_ttl" validate:"omitempty,duration"`
	KeywordsTTL   string `yaml:"keywords_ttl" mapstructure:"keywords_ttl" validate:"omitempty,duration"`
	SubredditsTTL string `yaml:"subreddits_ttl" mapstructure:"subreddits_ttl" validate:"omitempty,duration"`
	SettingsTTL   string `yaml:"settings_ttl" mapstructure:"settings_ttl" validate:"omitempty,duration"`
	GenericTTL    string `yaml:"generic_ttl" mapstructure:"generic_ttl" validate:"omitempty,duration"`

	// MaxEntriesPerPool bounds each pool. Unset (0) defaults to 500; -1 means unbounded.
	MaxEntriesPerPool int `yaml:"max_entries_per_pool" mapstructure:"max_entries_per_pool" validate:"gte=-1"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	// Defaults to "info". DevMode=true overrides to "debug".
	Level string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// MetricsConfig configures the metrics listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g., "127.0.0.1:9090").
	// Empty disables the endpoint.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Enabled installs an SDK tracer provider writing spans to stderr.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Default values.
const (
	DefaultAPITimeout        = "15s"
	DefaultStorePath         = "~/.mentiondesk/cookies.json"
	DefaultCookieMaxAge      = "168h"
	DefaultRecheckInterval   = "5m"
	DefaultTokenTTL          = "24h"
	DefaultListTTL           = "2m"
	DefaultSettingsTTL       = "5m"
	DefaultGenericTTL        = "1m"
	DefaultMaxEntriesPerPool = 500
)

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	setDefault(&c.API.Timeout, DefaultAPITimeout)

	setDefault(&c.Session.StorePath, DefaultStorePath)
	setDefault(&c.Session.CookieMaxAge, DefaultCookieMaxAge)
	setDefault(&c.Session.RecheckInterval, DefaultRecheckInterval)
	setDefault(&c.Session.DefaultTokenTTL, DefaultTokenTTL)

	setDefault(&c.Cache.ProjectsTTL, DefaultListTTL)
	setDefault(&c.Cache.KeywordsTTL, DefaultListTTL)
	setDefault(&c.Cache.SubredditsTTL, DefaultListTTL)
	setDefault(&c.Cache.SettingsTTL, DefaultSettingsTTL)
	setDefault(&c.Cache.GenericTTL, DefaultGenericTTL)
	if c.Cache.MaxEntriesPerPool == 0 {
		c.Cache.MaxEntriesPerPool = DefaultMaxEntriesPerPool
	}

	setDefault(&c.Log.Level, "info")
	if c.DevMode {
		c.Log.Level = "debug"
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// APITimeout returns api.timeout.
func (c *Config) APITimeout() time.Duration { return mustDuration(c.API.Timeout) }

// MaxEntries returns the per-pool bound, 0 when pools are unbounded.
func (c *Config) MaxEntries() int {
	if c.Cache.MaxEntriesPerPool < 0 {
		return 0
	}
	return c.Cache.MaxEntriesPerPool
}

// CookieMaxAge returns session.cookie_max_age.
func (c *Config) CookieMaxAge() time.Duration { return mustDuration(c.Session.CookieMaxAge) }

// RecheckInterval returns session.recheck_interval.
func (c *Config) RecheckInterval() time.Duration { return mustDuration(c.Session.RecheckInterval) }

// DefaultTokenTTL returns session.default_token_ttl.
func (c *Config) DefaultTokenTTL() time.Duration { return mustDuration(c.Session.DefaultTokenTTL) }

// CacheTTLs returns the default TTL of every TTL-based pool, keyed by pool name.
func (c *Config) CacheTTLs() map[cache.PoolName]time.Duration {
	return map[cache.PoolName]time.Duration{
		cache.PoolProjects:        mustDuration(c.Cache.ProjectsTTL),
		cache.PoolKeywords:        mustDuration(c.Cache.KeywordsTTL),
		cache.PoolSubreddits:      mustDuration(c.Cache.SubredditsTTL),
		cache.PoolProjectSettings: mustDuration(c.Cache.SettingsTTL),
		cache.PoolGeneric:         mustDuration(c.Cache.GenericTTL),
	}
}

// StorePath returns session.store_path with "~/" expanded.
func (c *Config) StorePath() string {
	return expandHome(c.Session.StorePath)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// mustDuration parses a validated duration. Invalid input yields 0.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
