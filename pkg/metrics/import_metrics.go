package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Row outcomes recorded by ImportMetrics.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// ImportMetrics counts rows and times runs of the employee import.
type ImportMetrics struct {
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hrm_import_rows_total",
			Help: "Employee import rows by run mode and outcome.",
		}, []string{"mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrm_import_run_duration_seconds",
			Help:    "Wall time of employee import runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"mode"}),
	}
	if reg != nil {
		reg.MustRegister(m.rows, m.duration)
	}
	return m
}

var defaultImportMetrics = sync.OnceValue(func() *ImportMetrics {
	return NewImportMetrics(prometheus.DefaultRegisterer)
})

// DefaultImportMetrics is registered on the default prometheus registry once.
func DefaultImportMetrics() *ImportMetrics {
	return defaultImportMetrics()
}

func (m *ImportMetrics) ObserveRun(mode string, d time.Duration, processed, skipped, failed int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(mode, OutcomeProcessed).Add(float64(processed))
	m.rows.WithLabelValues(mode, OutcomeSkipped).Add(float64(skipped))
	m.rows.WithLabelValues(mode, OutcomeFailed).Add(float64(failed))
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}
