// SPDX-License-Identifier: MPL-2.0

// Package metrics records install statistics in a Prometheus registry that
// can be written out in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smaug"

// Dependency outcomes.
const (
	DependencyInstalled = "installed"
	DependencySkipped   = "skipped"
	DependencyFailed    = "failed"
)

// File outcomes.
const (
	FileCopied      = "copied"
	FileOverwritten = "overwritten"
	FileUnchanged   = "unchanged"
	FileDeclined    = "declined"
)

// Metrics holds the install counters. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	dependencies  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	files         *prometheus.CounterVec
	requires      prometheus.Gauge
}

// New creates Metrics backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		dependencies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependencies_total",
			Help:      "Dependencies processed, by source kind and outcome.",
		}, []string{"kind", "result"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken to fetch a dependency, by source kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "install_files_total",
			Help:      "Install directives applied to the project, by outcome.",
		}, []string{"result"}),
		requires: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requires",
			Help:      "Require paths written to the index by the last install.",
		}),
	}
}

// Dependency counts one dependency outcome.
func (m *Metrics) Dependency(kind, result string) {
	if m == nil {
		return
	}
	m.dependencies.WithLabelValues(kind, result).Inc()
}

// Fetch records how long fetching a dependency of kind took.
func (m *Metrics) Fetch(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// File counts one install directive outcome.
func (m *Metrics) File(result string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(result).Inc()
}

// Requires sets the number of require paths written.
func (m *Metrics) Requires(n int) {
	if m == nil {
		return
	}
	m.requires.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
