// Package app wires the mentiondesk components into one instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/cel"
	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/memory"
	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/metrics"
	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/tokenstore"
	"github.com/mentiondesk/mentiondesk/internal/config"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
	"github.com/mentiondesk/mentiondesk/internal/service"
)

// Options adjusts how an App is assembled.
type Options struct {
	// Ephemeral keeps the session in memory instead of the cookie jar.
	Ephemeral bool
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Clock defaults to the wall clock.
	Clock cache.Clock
	// HTTPClient overrides the gateway transport.
	HTTPClient *http.Client
	// TraceWriter receives exported spans when tracing is enabled. Default: stderr.
	TraceWriter io.Writer
}

// App is one fully wired client instance. There is no package-level state:
// two Apps never share a cache, a session or a metrics registry.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Cache     *cache.Manager[gateway.Response]
	Tokens    session.TokenStore
	Lifecycle *session.Lifecycle
	Gateway   *gateway.Client
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry

	Auth       *service.AuthService
	Projects   *service.ProjectService
	Keywords   *service.KeywordService
	Subreddits *service.SubredditService
	Settings   *service.SettingsService
	Mentions   *service.MentionService

	tracerProvider *sdktrace.TracerProvider
}

// New assembles an App from a validated configuration.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = cache.SystemClock{}
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = metrics.NewMetrics(a.Registry)

	a.Cache = cache.NewManager[gateway.Response](poolConfigs(cfg), cache.Options{
		Clock:    clock,
		Observer: a.Metrics,
	})

	if opts.Ephemeral {
		a.Tokens = memory.NewTokenStore()
	} else {
		a.Tokens = tokenstore.NewFileStore(cfg.StorePath(), tokenstore.Options{
			MaxAge: cfg.CookieMaxAge(),
			Clock:  clock,
			Logger: logger.With("component", "tokenstore"),
		})
	}

	a.Lifecycle = session.NewLifecycle(a.Tokens, a.Cache, session.Config{
		RecheckInterval: cfg.RecheckInterval(),
		Clock:           clock,
		Logger:          logger.With("component", "session"),
	})
	a.Lifecycle.OnChange(a.Metrics.SessionChanged)

	var tp trace.TracerProvider
	if cfg.Tracing.Enabled {
		w := opts.TraceWriter
		if w == nil {
			w = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create span exporter: %w", err)
		}
		a.tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		tp = a.tracerProvider
	}

	gwOpts := []gateway.Option{
		gateway.WithBaseURL(cfg.API.BaseURL),
		gateway.WithTimeout(cfg.APITimeout()),
		gateway.WithLogger(logger.With("component", "gateway")),
		gateway.WithCache(a.Cache),
		gateway.WithTokenSource(a.Lifecycle),
		gateway.WithMetrics(a.Metrics),
		gateway.WithClock(clock),
	}
	if opts.HTTPClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(opts.HTTPClient))
	}
	if tp != nil {
		gwOpts = append(gwOpts, gateway.WithTracerProvider(tp))
	}
	a.Gateway = gateway.NewClient(gwOpts...)

	filters, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter evaluator: %w", err)
	}

	a.Auth = service.NewAuthService(a.Gateway, a.Lifecycle, service.AuthConfig{
		DefaultTokenTTL: cfg.DefaultTokenTTL(),
		Clock:           clock,
		Logger:          logger,
	})
	a.Lifecycle.SetVerifier(a.Auth)

	a.Projects = service.NewProjectService(a.Gateway, logger)
	a.Keywords = service.NewKeywordService(a.Gateway, logger)
	a.Subreddits = service.NewSubredditService(a.Gateway, logger)
	a.Settings = service.NewSettingsService(a.Gateway, logger)
	a.Mentions = service.NewMentionService(a.Gateway, filters, logger)

	return a, nil
}

func poolConfigs(cfg *config.Config) map[cache.PoolName]cache.PoolConfig {
	ttls := cfg.CacheTTLs()
	pools := make(map[cache.PoolName]cache.PoolConfig, len(cache.DefaultPools))
	for _, name := range cache.DefaultPools {
		// Pools without a configured TTL (mentions) only hold absolute entries.
		pools[name] = cache.PoolConfig{
			DefaultTTL: ttls[name],
			MaxEntries: cfg.MaxEntries(),
		}
	}
	return pools
}

// Close stops the re-check loop and flushes spans.
func (a *App) Close(ctx context.Context) error {
	a.Lifecycle.Stop()
	var errs []error
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
