package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction query metrics
	QueryFetches   *prometheus.CounterVec
	QueryCacheHits prometheus.Counter
	QueryDuration  prometheus.Histogram

	// Selection metrics
	SelectionSaves     *prometheus.CounterVec
	SelectionRollbacks prometheus.Counter

	// Upstream API metrics
	APIRequests *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	// Selection store metrics
	StoreOperations *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		QueryFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensesplit_query_fetches_total",
				Help: "Total transaction fetches by outcome",
			},
			[]string{"outcome"},
		),
		QueryCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "expensesplit_query_cache_hits_total",
			Help: "Total transaction queries served from cache",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "expensesplit_query_duration_seconds",
			Help:    "Duration of transaction fetches including retries",
			Buckets: prometheus.DefBuckets,
		}),

		SelectionSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensesplit_selection_saves_total",
				Help: "Total selection writes by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		SelectionRollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "expensesplit_selection_rollbacks_total",
			Help: "Total optimistic updates rolled back",
		}),

		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensesplit_api_requests_total",
				Help: "Total requests to the transactions API",
			},
			[]string{"endpoint", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "expensesplit_api_duration_seconds",
				Help:    "Transactions API request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		StoreOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensesplit_store_operations_total",
				Help: "Total selection store operations",
			},
			[]string{"backend", "operation"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expensesplit_store_errors_total",
				Help: "Total selection store errors",
			},
			[]string{"backend", "operation"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "expensesplit_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// The helpers below are safe to call on a nil *Metrics.

// ObserveFetch records one transaction fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryFetches.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(d.Seconds())
}

// CacheHit records a query served from cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.QueryCacheHits.Inc()
}

// SelectionSaved records a selection write.
func (m *Metrics) SelectionSaved(mode, outcome string) {
	if m == nil {
		return
	}
	m.SelectionSaves.WithLabelValues(mode, outcome).Inc()
}

// Rollback records a reverted optimistic update.
func (m *Metrics) Rollback() {
	if m == nil {
		return
	}
	m.SelectionRollbacks.Inc()
}

// ObserveAPI records one upstream request.
func (m *Metrics) ObserveAPI(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(endpoint, status).Inc()
	m.APIDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// StoreOp records a selection store operation and its error, if any.
func (m *Metrics) StoreOp(backend, operation string, err error) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(backend, operation).Inc()
	if err != nil {
		m.StoreErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RateLimited records a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.RateLimitHits.Inc()
}
