// Package metrics holds the Prometheus collectors for the briefing pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsNamespace = "newsbrief"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsTotal          *prometheus.CounterVec
	JobDurationSeconds prometheus.Histogram
	JobsRunning        prometheus.Gauge
	FetchFailures      *prometheus.CounterVec
	ItemsGenerated     prometheus.Gauge
	ReadFallbacks      *prometheus.CounterVec
	PersistFailures    *prometheus.CounterVec
}

// NewMetrics creates and registers every collector on reg, or on the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "job",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		}, []string{"outcome"}),
		JobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Wall time of a pipeline run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: "job",
			Name:      "running",
			Help:      "1 while a pipeline run is in progress",
		}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "feed",
			Name:      "fetch_failures_total",
			Help:      "Sources that failed on every candidate address",
		}, []string{"source"}),
		ItemsGenerated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: "job",
			Name:      "last_item_count",
			Help:      "Items in the last sanitized briefing",
		}),
		ReadFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "store",
			Name:      "read_fallbacks_total",
			Help:      "Reads served from the cache tier instead of the durable store",
		}, []string{"reason"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "Failed writes by tier",
		}, []string{"tier"}),
	}
}

func (m *Metrics) ObserveJob(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
	m.JobDurationSeconds.Observe(seconds)
}

func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.JobsRunning.Set(1)
		return
	}
	m.JobsRunning.Set(0)
}

func (m *Metrics) FetchFailed(source string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) Generated(n int) {
	if m == nil {
		return
	}
	m.ItemsGenerated.Set(float64(n))
}

func (m *Metrics) ReadFallback(reason string) {
	if m == nil {
		return
	}
	m.ReadFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) PersistFailed(tier string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(tier).Inc()
}
