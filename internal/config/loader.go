package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for mentiondesk.yaml/.yml in standard locations.
// The search requires an explicit YAML extension so the binary itself is never
// picked up as a config file.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// ReadInConfig then returns ConfigFileNotFoundError, which LoadConfig tolerates.
		viper.SetConfigName("mentiondesk")
		viper.SetConfigType("yaml")
	}

	// MENTIONDESK_API_BASE_URL overrides api.base_url.
	viper.SetEnvPrefix("MENTIONDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".mentiondesk"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "mentiondesk"))
		}
	} else {
		paths = append(paths, "/etc/mentiondesk")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths returns the first mentiondesk.yaml or .yml found in paths.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "mentiondesk"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// envKeys are the nested keys that can be overridden from the environment.
// Viper's AutomaticEnv only resolves keys it already knows about, so each one
// is bound explicitly.
var envKeys = []string{
	"api.base_url",
	"api.timeout",
	"session.store_path",
	"session.cookie_max_age",
	"session.recheck_interval",
	"session.default_token_ttl",
	"cache.projects_ttl",
	"cache.keywords_ttl",
	"cache.subreddits_ttl",
	"cache.settings_ttl",
	"cache.generic_ttl",
	"cache.max_entries_per_pool",
	"log.level",
	"metrics.addr",
	"tracing.enabled",
	"dev_mode",
}

func bindNestedEnvKeys() {
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, validates, and returns the Config.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration and applies defaults but does not
// validate. Use it when CLI flags may still override values.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: environment variables only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path of the loaded configuration file, or "".
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
