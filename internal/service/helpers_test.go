package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/memory"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// backend is a fake API server counting hits per "METHOD path".
type backend struct {
	t      *testing.T
	server *httptest.Server
	mux    *http.ServeMux

	mu   sync.Mutex
	hits map[string]int
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, mux: http.NewServeMux(), hits: make(map[string]int)}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// handle registers a handler for a Go 1.22 mux pattern such as "GET /projects".
func (b *backend) handle(pattern string, fn http.HandlerFunc) {
	b.mux.HandleFunc(pattern, fn)
}

// json registers a handler that always answers with status and body.
func (b *backend) json(pattern string, status int, body string) {
	b.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

type harness struct {
	backend   *backend
	clock     *testClock
	cache     *cache.Manager[gateway.Response]
	store     *memory.TokenStore
	lifecycle *session.Lifecycle
	gateway   *gateway.Client
	logger    *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: newBackend(t),
		clock:   &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)},
		store:   memory.NewTokenStore(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	pools := make(map[cache.PoolName]cache.PoolConfig, len(cache.DefaultPools))
	for _, p := range cache.DefaultPools {
		pools[p] = cache.PoolConfig{DefaultTTL: 2 * time.Minute}
	}
	h.cache = cache.NewManager[gateway.Response](pools, cache.Options{Clock: h.clock})
	h.lifecycle = session.NewLifecycle(h.store, h.cache, session.Config{Clock: h.clock, Logger: h.logger})
	h.gateway = gateway.NewClient(
		gateway.WithBaseURL(h.backend.server.URL),
		gateway.WithCache(h.cache),
		gateway.WithTokenSource(h.lifecycle),
		gateway.WithClock(h.clock),
		gateway.WithLogger(h.logger),
	)
	return h
}

// signIn stores a valid session directly.
func (h *harness) signIn(t *testing.T) {
	t.Helper()
	err := h.lifecycle.CompleteLogin(context.Background(), session.Token{
		Value:     "tok-test",
		User:      session.User{ID: "u-1", Name: "Ada", Email: "ada@example.com"},
		ExpiresAt: h.clock.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CompleteLogin() error = %v", err)
	}
}

func (h *harness) expFromNow(d time.Duration) string {
	return h.clock.Now().Add(d).UTC().Format(time.RFC3339)
}

func (h *harness) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-test" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthorized"}`)
			return
		}
		next(w, r)
	}
}
