// Package metrics provides Prometheus instrumentation for the access layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects counters for safe reads and cloud downloads.
type Metrics struct {
	safeReads *prometheus.CounterVec
	downloads *prometheus.CounterVec
}

// New creates a metrics collector registered against reg. A nil registerer
// falls back to the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		safeReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyvault_safe_reads_total",
			Help: "Safe read operations by resulting status",
		}, []string{"status"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skyvault_cloud_downloads_total",
			Help: "Cloud materialization attempts by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.safeReads, m.downloads)
	return m
}

// RecordRead counts one safe read with the given status. Nil-safe.
func (m *Metrics) RecordRead(status string) {
	if m == nil {
		return
	}
	m.safeReads.WithLabelValues(status).Inc()
}

// RecordDownload counts one download attempt. Outcome is "ok" or "error".
// Nil-safe.
func (m *Metrics) RecordDownload(outcome string) {
	if m == nil {
		return
	}
	m.downloads.WithLabelValues(outcome).Inc()
}
