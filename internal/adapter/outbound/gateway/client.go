// Package gateway is the single chokepoint for backend requests. It attaches the
// session token, consults and fills the response cache for read endpoints,
// invalidates stale entries after writes and maps every outcome to a Response or
// a typed error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentiondesk/mentiondesk/internal/ctxkey"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
)

// DefaultTimeout is the HTTP timeout used when none is configured.
const DefaultTimeout = 15 * time.Second

const tracerName = "github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"

// TokenSource provides the bearer token for authenticated endpoints.
// An empty token with a nil error sends the request unauthenticated. Any error is
// returned to the caller as-is and no request is sent.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Cache is the response store used for read endpoints.
// *cache.Manager[Response] implements it.
type Cache interface {
	Get(pool cache.PoolName, key string) (Response, bool)
	Set(pool cache.PoolName, key string, value Response, policy cache.Policy) error
	SetDefault(pool cache.PoolName, key string, value Response) error
	Invalidate(pool cache.PoolName, pattern string) int
}

// Recorder receives one observation per dispatched request. status is the HTTP
// status code, or 0 when no response was received.
type Recorder interface {
	ObserveRequest(endpoint string, status int, d time.Duration)
}

// Call is one invocation of an endpoint.
type Call struct {
	Endpoint *Endpoint
	// Params fills the placeholders of the endpoint path and cache scope.
	Params map[string]string
	// Query is appended to the URL and to the cache key.
	Query url.Values
	// Body, when non-nil, is sent as JSON.
	Body any
}

// Client is the request gateway.
type Client struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
	cache          Cache
	tokens         TokenSource
	metrics        Recorder
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	clock          cache.Clock
}

// NewClient creates a gateway client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		clock:   cache.SystemClock{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(tracerName)
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	return c
}

// Do executes a call.
//
// Cacheable reads are answered from the cache when a readable entry exists and
// stored after a successful fetch. Writes never read the cache; after a
// successful write the endpoint's invalidations have run by the time Do returns.
// The token is read before the cache is consulted, so a TokenSource error fails
// authenticated reads even when a cached answer exists.
// Failures are *NetworkError, *RequestError, or the TokenSource error.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	ep := call.Endpoint
	if ep == nil {
		return nil, errors.New("gateway: call without endpoint")
	}
	path, err := expand(ep.Path, call.Params, url.PathEscape)
	if err != nil {
		return nil, fmt.Errorf("gateway %s: %w", ep.Name, err)
	}

	ctx, span := c.tracer.Start(ctx, "gateway "+ep.Name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", ep.Method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	token, err := c.token(ctx, ep)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var key string
	cacheable := c.cache != nil && ep.cacheable()
	if cacheable {
		scope, err := expand(ep.Scope, call.Params, nil)
		if err != nil {
			return nil, fmt.Errorf("gateway %s: %w", ep.Name, err)
		}
		key = cache.Key(scope, "", call.Query)
		span.SetAttributes(attribute.String("cache.pool", string(ep.Pool)))

		if cached, ok := c.cache.Get(ep.Pool, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			hit := cached.clone()
			hit.Cached = true
			return hit, nil
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
	}

	resp, err := c.send(ctx, ep, path, token, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			span.SetAttributes(attribute.Int("http.response.status_code", reqErr.Status))
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))

	if cacheable {
		c.store(ctx, ep, key, resp)
	}
	if c.cache != nil && len(ep.Invalidates) > 0 {
		if err := c.invalidate(ctx, ep, call.Params); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// token reads the session token for a call. It runs before the cache so that an
// expired session is detected even when the answer is cached. Public endpoints
// attach a usable token but never fail on the token source.
func (c *Client) token(ctx context.Context, ep *Endpoint) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	t, err := c.tokens.Token(ctx)
	if err != nil {
		if ep.Public {
			return "", nil
		}
		return "", err
	}
	return t, nil
}

// send performs the HTTP exchange.
func (c *Client) send(ctx context.Context, ep *Endpoint, path, token string, call Call) (*Response, error) {
	target := c.baseURL + path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var bodyReader io.Reader
	if call.Body != nil {
		jsonBody, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, ep.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	logger := ctxkey.Logger(ctx, c.logger).With(
		"request_id", requestID,
		"endpoint", ep.Name,
	)

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if call.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(ep, 0, start)
		logger.Warn("request failed", "method", ep.Method, "path", path, "error", err)
		return nil, &NetworkError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	c.observe(ep, httpResp.StatusCode, start)
	if err != nil {
		logger.Warn("failed to read response", "method", ep.Method, "path", path, "error", err)
		return nil, &NetworkError{Cause: err}
	}

	logger.Debug("request completed",
		"method", ep.Method,
		"path", path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &RequestError{
			Status:  httpResp.StatusCode,
			Message: errorMessage(httpResp.StatusCode, respBody),
			Body:    respBody,
		}
	}

	resp, err := parseResponse(httpResp.StatusCode, respBody)
	if err != nil {
		logger.Warn("malformed response body", "method", ep.Method, "path", path, "status", httpResp.StatusCode)
		return nil, err
	}
	return resp, nil
}

// store caches a successful read.
func (c *Client) store(ctx context.Context, ep *Endpoint, key string, resp *Response) {
	logger := ctxkey.Logger(ctx, c.logger)
	value := *resp.clone()

	var err error
	if ep.ServerExpiry {
		if resp.Exp == nil {
			logger.Debug("response without exp not cached", "endpoint", ep.Name, "key", key)
			return
		}
		if !c.clock.Now().Before(*resp.Exp) {
			logger.Debug("response already past exp not cached", "endpoint", ep.Name, "exp", resp.Exp.Format(time.RFC3339))
			return
		}
		err = c.cache.Set(ep.Pool, key, value, cache.ExpiresAt(*resp.Exp))
	} else {
		err = c.cache.SetDefault(ep.Pool, key, value)
	}
	if err != nil {
		logger.Warn("failed to cache response", "endpoint", ep.Name, "pool", string(ep.Pool), "error", err)
	}
}

// invalidate applies the endpoint's invalidation list.
func (c *Client) invalidate(ctx context.Context, ep *Endpoint, params map[string]string) error {
	logger := ctxkey.Logger(ctx, c.logger)
	for _, inv := range ep.Invalidates {
		pattern, err := expand(inv.Pattern, params, nil)
		if err != nil {
			return fmt.Errorf("gateway %s: %w", ep.Name, err)
		}
		removed := c.cache.Invalidate(inv.Pool, pattern)
		logger.Debug("cache invalidated",
			"endpoint", ep.Name,
			"pool", string(inv.Pool),
			"pattern", pattern,
			"removed", removed,
		)
	}
	return nil
}

func (c *Client) observe(ep *Endpoint, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(ep.Name, status, time.Since(start))
	}
}

// StatusLabel formats a status code for metrics: the code itself, or "error"
// when no response was received.
func StatusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
