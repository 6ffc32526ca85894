// Package cmd provides the CLI commands for mentiondesk.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/app"
	"github.com/mentiondesk/mentiondesk/internal/config"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

var (
	cfgFile      string
	outputFormat string
	ephemeral    bool
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "mentiondesk",
	Short: "mentiondesk - track brand mentions from the terminal",
	Long: `mentiondesk is a command-line client for the mentions dashboard API.

It signs you in, manages projects with their keywords and subreddits, and
lists and triages the mentions found for each project.

Quick start:
  1. Set the API address: export MENTIONDESK_API_BASE_URL=https://api.example.com
  2. Sign in: mentiondesk login --email you@example.com --password-stdin
  3. List projects: mentiondesk projects list

Configuration:
  Config is loaded from mentiondesk.yaml in the current directory,
  $HOME/.mentiondesk/, or /etc/mentiondesk/.

  Environment variables can override config values with the MENTIONDESK_ prefix.
  Example: MENTIONDESK_API_TIMEOUT=30s`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mentiondesk.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override log.level")
}

func initConfig() {
	config.InitViper(cfgFile)
}

// loadConfig reads the config and applies flag overrides before validation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Log.Level)
	if cfg.DevMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openApp assembles an App for one command. With bootstrap set, the stored
// session is picked up and verified first.
func openApp(cmd *cobra.Command, bootstrap bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Debug("loaded config", "file", configFile)
	}

	a, err := app.New(cfg, app.Options{Ephemeral: ephemeral, Logger: logger})
	if err != nil {
		return nil, err
	}

	if bootstrap {
		if _, err := a.Lifecycle.Bootstrap(cmd.Context()); err != nil {
			if !errors.Is(err, session.ErrVerificationFailed) {
				closeApp(a)
				return nil, err
			}
			logger.Warn("stored session was rejected, signed out", "error", err)
		}
	}
	return a, nil
}

// closeApp releases what openApp built. Call it deferred.
func closeApp(a *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.Logger.Warn("shutdown incomplete", "error", err)
	}
}

// requireSession fails unless the App holds an authenticated session.
func requireSession(a *app.App) error {
	if state, _ := a.Lifecycle.Current(); state != session.StateAuthenticated {
		return errNotSignedIn
	}
	return nil
}

var errNotSignedIn = errors.New("not signed in: run 'mentiondesk login' first")

// describeError turns domain errors into a message for the terminal.
func describeError(err error) string {
	var reqErr *gateway.RequestError
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return "Your session has expired. Run 'mentiondesk login' to sign in again."
	case errors.As(err, &reqErr) && reqErr.QuotaExceeded():
		return fmt.Sprintf("Error: %s (plan limit reached, status %d)", reqErr.Message, reqErr.Status)
	case errors.As(err, &reqErr):
		return fmt.Sprintf("Error: %s (status %d)", reqErr.Message, reqErr.Status)
	default:
		return "Error: " + err.Error()
	}
}
