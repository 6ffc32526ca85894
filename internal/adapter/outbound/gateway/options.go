package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the backend base URL, e.g. "https://api.example.com".
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
// This is useful for testing, proxying, or custom transport configurations.
// When set, WithTimeout has no effect.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP request timeout.
// If not set, defaults to 15 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCache enables response caching for read endpoints and invalidation after
// writes. Without it every call goes to the network.
func WithCache(rc Cache) Option {
	return func(c *Client) {
		c.cache = rc
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithMetrics sets the request recorder.
func WithMetrics(r Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithClock sets the time source used to judge server expiry instants.
func WithClock(clock cache.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}
