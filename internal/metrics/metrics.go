// Package metrics exposes the Prometheus collectors for the validation
// engine. Metric names are stable: dashboards and alerts scrape them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ValidationsTotal  *prometheus.CounterVec
	ValidationSeconds *prometheus.HistogramVec
	CacheHitsTotal    *prometheus.CounterVec
}

// New registers the collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cpa_validations_total",
			Help: "Total number of CPA validations by result, option and affiliate",
		}, []string{"result", "option", "affiliate_id"}),

		ValidationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cpa_validation_duration_seconds",
			Help:    "Validation pipeline duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		}, []string{"option"}),

		CacheHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "config_cache_hits_total",
			Help: "Configuration lookups by key and tier that settled them",
		}, []string{"key", "hit_type"}),
	}
}

// RecordValidation counts one completed validation and observes its duration.
// Safe to call on a nil receiver.
func (m *Metrics) RecordValidation(result, option, affiliateID string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(result, option, affiliateID).Inc()
	m.ValidationSeconds.WithLabelValues(option).Observe(elapsed.Seconds())
}

// RecordCacheHit counts one configuration lookup. Safe to call on a nil
// receiver.
func (m *Metrics) RecordCacheHit(key, hitType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(key, hitType).Inc()
}
