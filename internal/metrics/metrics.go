// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Frame counters
	FramesCaptured       atomic.Uint64
	FramesSkipped        atomic.Uint64 // motion gate said nothing changed
	CaptureErrors        atomic.Uint64
	ClassificationErrors atomic.Uint64
	FramesEnqueued       atomic.Uint64
	FramesDropped        atomic.Uint64
	FramesShown          atomic.Uint64
	WorkerPanics         atomic.Uint64

	// Alert counters
	AlertsViolence    atomic.Uint64
	AlertsLoneFemale  atomic.Uint64
	AlertsGesture     atomic.Uint64
	AlertsSuppressed  atomic.Uint64
	DispatchSubErrors atomic.Uint64

	queueDepth func() int

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

// SetQueueDepth installs the function reporting the display queue length.
func (m *Metrics) SetQueueDepth(fn func() int) {
	m.queueDepth = fn
}

func (m *Metrics) counter(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.counter("abhayam_frames_captured_total", "Total frames captured across regions", &m.FramesCaptured)
	m.counter("abhayam_frames_skipped_total", "Frames skipped by the motion gate", &m.FramesSkipped)
	m.counter("abhayam_capture_errors_total", "Total failed region captures", &m.CaptureErrors)
	m.counter("abhayam_classification_errors_total", "Tracks left unclassified", &m.ClassificationErrors)
	m.counter("abhayam_display_frames_enqueued_total", "Annotated frames accepted by the display queue", &m.FramesEnqueued)
	m.counter("abhayam_display_frames_dropped_total", "Annotated frames dropped on a full display queue", &m.FramesDropped)
	m.counter("abhayam_display_frames_shown_total", "Frames shown by the display consumer", &m.FramesShown)
	m.counter("abhayam_worker_panics_total", "Recovered worker panics", &m.WorkerPanics)

	m.counter("abhayam_alerts_violence_total", "Violence against a woman alerts dispatched", &m.AlertsViolence)
	m.counter("abhayam_alerts_lone_female_total", "Lone female alerts dispatched", &m.AlertsLoneFemale)
	m.counter("abhayam_alerts_gesture_total", "Distress gesture alerts dispatched", &m.AlertsGesture)
	m.counter("abhayam_alerts_suppressed_total", "Alerts suppressed by the cooldown", &m.AlertsSuppressed)
	m.counter("abhayam_dispatch_errors_total", "Failed dispatch steps", &m.DispatchSubErrors)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "abhayam_display_queue_depth",
			Help: "Frames waiting in the display queue",
		},
		func() float64 {
			if m.queueDepth == nil {
				return 0
			}
			return float64(m.queueDepth())
		},
	))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
