// Package metrics exposes client-side Prometheus metrics for the gateway, the
// response cache and the session.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentiondesk/mentiondesk/internal/adapter/outbound/gateway"
	"github.com/mentiondesk/mentiondesk/internal/domain/cache"
	"github.com/mentiondesk/mentiondesk/internal/domain/session"
)

const namespace = "mentiondesk"

// Metrics holds all Prometheus metrics for mentiondesk.
// It implements gateway.Recorder and cache.Observer, and SessionChanged can be
// registered with session.Lifecycle.OnChange.
type Metrics struct {
	GatewayRequests        *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	CacheLookups           *prometheus.CounterVec
	CacheInvalidated       *prometheus.CounterVec
	SessionAuthenticated   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GatewayRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of backend requests dispatched",
			},
			[]string{"endpoint", "status"}, // status=200/404/error
		),
		GatewayRequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Backend request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		CacheLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total cache lookups",
			},
			[]string{"pool", "result"}, // result=hit/miss
		),
		CacheInvalidated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidated_entries_total",
				Help:      "Total cache entries removed by invalidation",
			},
			[]string{"pool"},
		),
		SessionAuthenticated: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "session_authenticated",
				Help:      "1 while a session is authenticated, 0 otherwise",
			},
		),
	}
}

// ObserveRequest implements gateway.Recorder.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.GatewayRequests.WithLabelValues(endpoint, gateway.StatusLabel(status)).Inc()
	m.GatewayRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// OnLookup implements cache.Observer.
func (m *Metrics) OnLookup(pool cache.PoolName, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(string(pool), result).Inc()
}

// OnInvalidate implements cache.Observer.
func (m *Metrics) OnInvalidate(pool cache.PoolName, removed int) {
	if removed <= 0 {
		return
	}
	m.CacheInvalidated.WithLabelValues(string(pool)).Add(float64(removed))
}

// SessionChanged tracks the session state.
func (m *Metrics) SessionChanged(_, to session.State) {
	if to == session.StateAuthenticated {
		m.SessionAuthenticated.Set(1)
		return
	}
	m.SessionAuthenticated.Set(0)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var (
	_ gateway.Recorder = (*Metrics)(nil)
	_ cache.Observer   = (*Metrics)(nil)
)
