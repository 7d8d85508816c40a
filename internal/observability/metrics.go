// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	UpdatesReceived  prometheus.Counter
	UpdatesCoalesced prometheus.Counter
	UpdatesApplied   prometheus.Counter
	UpdatesDiscarded prometheus.Counter
	FeedReconnects   *prometheus.CounterVec

	// Dataset metrics
	Flushes        prometheus.Counter
	MutationTicks  prometheus.Counter
	Arrivals       *prometheus.CounterVec
	Evictions      *prometheus.CounterVec
	ChainSwitches  *prometheus.CounterVec
	WorkingSetSize prometheus.Gauge
	ViewSize       *prometheus.GaugeVec

	// Latency metrics
	RecomputeLatency prometheus.Histogram

	// Health metrics
	LastRecompute prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_pulse"
	}

	return &Metrics{
		// Feed metrics
		UpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_received_total",
			Help:      "Total number of market updates received from the feed",
		}),
		UpdatesCoalesced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_coalesced_total",
			Help:      "Total number of updates superseded before a flush",
		}),
		UpdatesApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_applied_total",
			Help:      "Total number of updates merged into the working set",
		}),
		UpdatesDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_discarded_total",
			Help:      "Total number of updates for tokens not in the working set",
		}),
		FeedReconnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts by transport",
		}, []string{"transport"}),

		// Dataset metrics
		Flushes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "flushes_total",
			Help:      "Total number of non-empty coalescer flushes",
		}),
		MutationTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "mutation_ticks_total",
			Help:      "Total number of mutation ticks",
		}),
		Arrivals: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "arrivals_total",
			Help:      "Total number of token arrivals by chain",
		}, []string{"chain"}),
		Evictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "evictions_total",
			Help:      "Total number of tokens evicted by the retention cap",
		}, []string{"category"}),
		ChainSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "chain_switches_total",
			Help:      "Total number of chain switches by target chain",
		}, []string{"chain"}),
		WorkingSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "working_set_size",
			Help:      "Current number of tokens in the working set",
		}),
		ViewSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "view_size",
			Help:      "Current number of tokens shown per category",
		}, []string{"category"}),

		// Latency metrics
		RecomputeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "recompute_latency_seconds",
			Help:      "View recomputation latency in seconds",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		}),

		// Health metrics
		LastRecompute: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_recompute_timestamp",
			Help:      "Unix timestamp of the last view recomputation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordUpdatesReceived counts updates delivered by the feed and how many
// of them replaced a pending update.
func RecordUpdatesReceived(received, coalesced int) {
	DefaultMetrics.UpdatesReceived.Add(float64(received))
	DefaultMetrics.UpdatesCoalesced.Add(float64(coalesced))
}

// RecordFlush records a coalescer flush.
func RecordFlush(applied, discarded int) {
	DefaultMetrics.Flushes.Inc()
	DefaultMetrics.UpdatesApplied.Add(float64(applied))
	DefaultMetrics.UpdatesDiscarded.Add(float64(discarded))
}

// RecordMutationTick increments the mutation tick counter.
func RecordMutationTick() {
	DefaultMetrics.MutationTicks.Inc()
}

// RecordArrival increments the arrival counter for chain.
func RecordArrival(chain string) {
	DefaultMetrics.Arrivals.WithLabelValues(chain).Inc()
}

// RecordEvictions records tokens dropped by the retention cap.
func RecordEvictions(category string, n int) {
	DefaultMetrics.Evictions.WithLabelValues(category).Add(float64(n))
}

// RecordChainSwitch increments the chain switch counter.
func RecordChainSwitch(chain string) {
	DefaultMetrics.ChainSwitches.WithLabelValues(chain).Inc()
}

// RecordFeedReconnect increments the reconnect counter for transport.
func RecordFeedReconnect(transport string) {
	DefaultMetrics.FeedReconnects.WithLabelValues(transport).Inc()
}

// RecordRecompute records a view recomputation.
func RecordRecompute(seconds float64, unix int64) {
	DefaultMetrics.RecomputeLatency.Observe(seconds)
	DefaultMetrics.LastRecompute.Set(float64(unix))
}

// UpdateSizes updates the working set and per-category view gauges.
func UpdateSizes(workingSet int, views map[string]int) {
	DefaultMetrics.WorkingSetSize.Set(float64(workingSet))
	for category, n := range views {
		DefaultMetrics.ViewSize.WithLabelValues(category).Set(float64(n))
	}
}
