package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the resolver module.
type Metrics struct {
	// Resolution outcomes by chain and outcome (ok, unsupported_chain, ledger_error, ...)
	Resolutions *prometheus.CounterVec

	// End-to-end resolution latency by mode (live, historical)
	ResolveLatency *prometheus.HistogramVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Ledger reads by chain and call kind
	LedgerCalls *prometheus.CounterVec
}

// New creates a new Metrics instance with all resolver metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sdi_resolver_resolutions_total",
			Help: "Total DID resolutions by chain and outcome",
		}, []string{"chain_id", "outcome"}),

		ResolveLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sdi_resolver_resolve_duration_seconds",
			Help:    "Duration of DID resolution including ledger walk",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdi_resolver_cache_hits_total",
			Help: "Live resolutions served from a fresh cache entry",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdi_resolver_cache_misses_total",
			Help: "Live resolutions that had to walk the ledger",
		}),

		LedgerCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sdi_resolver_ledger_calls_total",
			Help: "Ledger reads issued during resolutions by chain and call kind",
		}, []string{"chain_id", "call"}),
	}
}

// IncrementOutcome records a resolution outcome.
func (m *Metrics) IncrementOutcome(chainID uint64, outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(strconv.FormatUint(chainID, 10), outcome).Inc()
	}
}

// ObserveResolveLatency records the total resolution duration.
func (m *Metrics) ObserveResolveLatency(historical bool, d time.Duration) {
	if m != nil {
		mode := "live"
		if historical {
			mode = "historical"
		}
		m.ResolveLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) IncrementCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// IncrementLedgerCall mirrors one diagnostics increment.
func (m *Metrics) IncrementLedgerCall(chainID uint64, call string) {
	if m != nil {
		m.LedgerCalls.WithLabelValues(strconv.FormatUint(chainID, 10), call).Inc()
	}
}
