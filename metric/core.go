package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the acquisition engine
// (not per-component metrics, which components register themselves).
type Metrics struct {
	// Engine metrics
	EngineState   *prometheus.GaugeVec
	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec
	SamplesTotal  *prometheus.CounterVec
	Channels      *prometheus.GaugeVec

	// Failure and retry metrics
	HardwareErrors *prometheus.CounterVec
	Restarts       *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec

	// Event surface metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	Subscribers     prometheus.Gauge

	// Health metrics
	HealthCheckStatus *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EngineState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "state",
				Help:      "Acquisition engine state (0=stopped, 1=running)",
			},
			[]string{"board"},
		),

		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "cycles_total",
				Help:      "Total number of acquisition cycles",
			},
			[]string{"board", "status"},
		),

		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "cycle_duration_seconds",
				Help:      "Acquisition cycle duration in seconds (scan through publish)",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"board"},
		),

		SamplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "samples_total",
				Help:      "Total number of raw samples acquired across all channels",
			},
			[]string{"board"},
		),

		Channels: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "channels",
				Help:      "Number of configured channels",
			},
			[]string{"board"},
		),

		HardwareErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "device",
				Name:      "hardware_errors_total",
				Help:      "Total number of hardware operation failures by scan stage",
			},
			[]string{"board", "stage"},
		),

		Restarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "engine",
				Name:      "restarts_total",
				Help:      "Total number of automatic restart attempts",
			},
			[]string{"board"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by class",
			},
			[]string{"component", "class"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of events published to the bus",
			},
			[]string{"kind"},
		),

		EventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "daqcore",
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Total number of events dropped due to full subscriber queues",
			},
			[]string{"kind"},
		),

		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "daqcore",
				Subsystem: "events",
				Name:      "subscribers",
				Help:      "Current number of bus subscriptions",
			},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "daqcore",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),
	}
}

// RecordEngineState updates the engine state gauge
func (c *Metrics) RecordEngineState(board string, running bool) {
	value := 0.0
	if running {
		value = 1.0
	}
	c.EngineState.WithLabelValues(board).Set(value)
}

// RecordCycle records one completed acquisition cycle
func (c *Metrics) RecordCycle(board, status string, duration time.Duration) {
	c.CyclesTotal.WithLabelValues(board, status).Inc()
	if status == "ok" {
		c.CycleDuration.WithLabelValues(board).Observe(duration.Seconds())
	}
}

// RecordSamples adds acquired raw samples to the running total
func (c *Metrics) RecordSamples(board string, n int) {
	c.SamplesTotal.WithLabelValues(board).Add(float64(n))
}

// RecordChannels updates the configured channel gauge
func (c *Metrics) RecordChannels(board string, n int) {
	c.Channels.WithLabelValues(board).Set(float64(n))
}

// RecordHardwareError increments the hardware failure counter for a scan stage
func (c *Metrics) RecordHardwareError(board, stage string) {
	c.HardwareErrors.WithLabelValues(board, stage).Inc()
}

// RecordRestart increments the automatic restart counter
func (c *Metrics) RecordRestart(board string) {
	c.Restarts.WithLabelValues(board).Inc()
}

// RecordError increments the error counter by component and class
func (c *Metrics) RecordError(component, class string) {
	c.ErrorsTotal.WithLabelValues(component, class).Inc()
}

// RecordEventPublished increments the published event counter
func (c *Metrics) RecordEventPublished(kind string) {
	c.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordEventDropped increments the dropped event counter
func (c *Metrics) RecordEventDropped(kind string) {
	c.EventsDropped.WithLabelValues(kind).Inc()
}

// RecordSubscribers updates the subscription gauge
func (c *Metrics) RecordSubscribers(n int) {
	c.Subscribers.Set(float64(n))
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(component).Set(value)
}
