// Package metrics exposes Prometheus counters for label normalization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome values for the outcome label.
const (
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the conversion counters. A nil *Metrics is valid and records
// nothing, so callers never need to guard their calls.
type Metrics struct {
	conversions *prometheus.CounterVec
	bulkRuns    *prometheus.CounterVec
}

// New registers the counters on reg and returns them.
// Pass prometheus.NewRegistry() in tests to keep runs independent.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		conversions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelcase",
			Subsystem: "labels",
			Name:      "conversions_total",
			Help:      "Corrective label checks by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		bulkRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labelcase",
			Subsystem: "labels",
			Name:      "bulk_runs_total",
			Help:      "Bulk conversion runs by status",
		}, []string{"status"}),
	}
}

// Conversion records one corrective check made by trigger.
func (m *Metrics) Conversion(trigger, outcome string) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(trigger, outcome).Inc()
}

// BulkRun records the end of one bulk conversion.
func (m *Metrics) BulkRun(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.bulkRuns.WithLabelValues(status).Inc()
}

// ConversionCounter returns the underlying counter for trigger and outcome.
// It exists for tests that read values with prometheus/testutil.
func (m *Metrics) ConversionCounter(trigger, outcome string) prometheus.Counter {
	return m.conversions.WithLabelValues(trigger, outcome)
}
