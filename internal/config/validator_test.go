package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{API: APIConfig{BaseURL: "https://api.example.com"}}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: "Config.API.BaseURL is required",
		},
		{
			name:    "base url not a url",
			mutate:  func(c *Config) { c.API.BaseURL = "not a url" },
			wantErr: "Config.API.BaseURL must be a valid URL",
		},
		{
			name:    "bad timeout",
			mutate:  func(c *Config) { c.API.Timeout = "fast" },
			wantErr: "Config.API.Timeout must be a positive duration",
		},
		{
			name:    "negative ttl",
			mutate:  func(c *Config) { c.Cache.KeywordsTTL = "-1m" },
			wantErr: "Config.Cache.KeywordsTTL must be a positive duration",
		},
		{
			name:    "zero cookie age",
			mutate:  func(c *Config) { c.Session.CookieMaxAge = "0s" },
			wantErr: "Config.Session.CookieMaxAge must be a positive duration",
		},
		{
			name:    "negative max entries",
			mutate:  func(c *Config) { c.Cache.MaxEntriesPerPool = -2 },
			wantErr: "Config.Cache.MaxEntriesPerPool must be at least -1",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "Config.Log.Level must be one of",
		},
		{
			name:    "bad metrics addr",
			mutate:  func(c *Config) { c.Metrics.Addr = "nine-thousand" },
			wantErr: "Config.Metrics.Addr must be a valid host:port",
		},
		{
			name:    "missing store path",
			mutate:  func(c *Config) { c.Session.StorePath = "" },
			wantErr: "Config.Session.StorePath is required",
		},
		{
			name: "recheck shorter than timeout",
			mutate: func(c *Config) {
				c.API.Timeout = "1m"
				c.Session.RecheckInterval = "30s"
			},
			wantErr: "session.recheck_interval (30s) must not be shorter than api.timeout (1m)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_MetricsAddr(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Metrics.Addr = "127.0.0.1:9090"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_UnboundedPools(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Cache.MaxEntriesPerPool = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MultipleErrorsJoined(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.API.BaseURL = ""
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("error %q should join messages with \"; \"", err)
	}
}
