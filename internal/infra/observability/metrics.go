package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/moneystack/moneystack-go/internal/domain"
)

// Metrics holds all Prometheus metrics for MoneyStack.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	runDuration     prometheus.Histogram
	runsTotal       prometheus.Counter
	itemsSettled    *prometheus.CounterVec
	itemsFailed     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneystack_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moneystack_scheduler_run_duration_seconds",
				Help:    "Duration of full due-item settlement runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
		runsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moneystack_scheduler_runs_total",
				Help: "Total settlement runs executed.",
			},
		),
		itemsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneystack_scheduler_items_settled_total",
				Help: "Due items settled, by kind.",
			},
			[]string{"kind"},
		),
		itemsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneystack_scheduler_items_failed_total",
				Help: "Due items that failed to settle, by kind.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneystack_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneystack_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSchedulerRun records one completed settlement run.
func (m *Metrics) RecordSchedulerRun(d time.Duration) {
	m.runsTotal.Inc()
	m.runDuration.Observe(d.Seconds())
}

// IncrItemSettled increments the settled counter for a due-item kind
// ("subscription", "credit_payment", "recurring").
func (m *Metrics) IncrItemSettled(kind string) {
	m.itemsSettled.WithLabelValues(kind).Inc()
}

// IncrItemFailed increments the failure counter for a due-item kind.
func (m *Metrics) IncrItemFailed(kind string) {
	m.itemsFailed.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetSchedulerSnapshot returns a snapshot of settlement metrics suitable for
// the GET /v1/metrics/scheduler endpoint.
func (m *Metrics) GetSchedulerSnapshot() *domain.SchedulerMetrics {
	subs := getCounterValue(m.itemsSettled, "subscription")
	credits := getCounterValue(m.itemsSettled, "credit_payment")
	recurring := getCounterValue(m.itemsSettled, "recurring")
	settled := subs + credits + recurring
	failed := getCounterValue(m.itemsFailed, "subscription") +
		getCounterValue(m.itemsFailed, "credit_payment") +
		getCounterValue(m.itemsFailed, "recurring")
	cacheHits := getCounterValue(m.cacheHits, "dashboard")
	cacheMisses := getCounterValue(m.cacheMisses, "dashboard")

	failureRate := float64(0)
	if settled+failed > 0 {
		failureRate = failed / (settled + failed)
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	runs := &dto.Metric{}
	runsTotal := float64(0)
	if err := m.runsTotal.Write(runs); err == nil && runs.Counter != nil && runs.Counter.Value != nil {
		runsTotal = *runs.Counter.Value
	}

	return &domain.SchedulerMetrics{
		RunsTotal:          int64(runsTotal),
		ItemsSettled:       int64(settled),
		ItemsFailed:        int64(failed),
		SubscriptionsPaid:  int64(subs),
		CreditPaymentsPaid: int64(credits),
		RecurringCloned:    int64(recurring),
		FailureRate:        failureRate,
		CacheHitRate:       cacheHitRate,
		Period:             "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
