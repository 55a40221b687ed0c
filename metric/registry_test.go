package metric

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-component", "test_counter", counter)
	require.NoError(t, err)

	// Duplicate registration under the same key is rejected
	err = registry.RegisterCounter("test-component", "test_counter", counter)
	assert.Error(t, err)
}

func TestMetricsRegistry_RegisterGaugeAndHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})
	require.NoError(t, registry.RegisterGauge("test-component", "test_gauge", gauge))

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_histogram",
		Help:    "A test histogram",
		Buckets: prometheus.DefBuckets,
	})
	require.NoError(t, registry.RegisterHistogram("test-component", "test_histogram", histogram))
}

func TestMetricsRegistry_RegisterVecs(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_counter_vec",
		Help: "A test counter vec",
	}, []string{"status"})
	require.NoError(t, registry.RegisterCounterVec("test-component", "test_counter_vec", counterVec))

	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "test_gauge_vec",
		Help: "A test gauge vec",
	}, []string{"stage"})
	require.NoError(t, registry.RegisterGaugeVec("test-component", "test_gauge_vec", gaugeVec))

	histogramVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_histogram_vec",
		Help:    "A test histogram vec",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	require.NoError(t, registry.RegisterHistogramVec("test-component", "test_histogram_vec", histogramVec))
}

func TestMetricsRegistry_SameNameDifferentComponents(t *testing.T) {
	registry := NewMetricsRegistry()

	a := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "daqcore", Subsystem: "a", Name: "items_total", Help: "a",
	})
	b := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "daqcore", Subsystem: "b", Name: "items_total", Help: "b",
	})

	require.NoError(t, registry.RegisterCounter("component-a", "items_total", a))
	require.NoError(t, registry.RegisterCounter("component-b", "items_total", b))
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "removable_counter",
		Help: "A removable counter",
	})
	require.NoError(t, registry.RegisterCounter("test-component", "removable_counter", counter))

	assert.True(t, registry.Unregister("test-component", "removable_counter"))
	assert.False(t, registry.Unregister("test-component", "removable_counter"))

	// Re-registration after unregister succeeds
	require.NoError(t, registry.RegisterCounter("test-component", "removable_counter", counter))
}

func TestMetricsRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", n),
				Help: "A concurrently registered counter",
			})
			errs[n] = registry.RegisterCounter("test-component", fmt.Sprintf("concurrent_counter_%d", n), counter)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestCoreMetrics_Record(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	// Exercise the recording helpers; values are verified through gather
	core.RecordEngineState("board0", true)
	core.RecordCycle("board0", "ok", 5*time.Millisecond)
	core.RecordCycle("board0", "error", 0)
	core.RecordSamples("board0", 4000)
	core.RecordChannels("board0", 4)
	core.RecordHardwareError("board0", "read")
	core.RecordRestart("board0")
	core.RecordError("engine", "transient")
	core.RecordEventPublished("block")
	core.RecordEventDropped("block")
	core.RecordSubscribers(3)
	core.RecordHealthStatus("engine", true)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"daqcore_engine_state",
		"daqcore_engine_cycles_total",
		"daqcore_engine_cycle_duration_seconds",
		"daqcore_engine_samples_total",
		"daqcore_engine_channels",
		"daqcore_device_hardware_errors_total",
		"daqcore_engine_restarts_total",
		"daqcore_errors_total",
		"daqcore_events_published_total",
		"daqcore_events_dropped_total",
		"daqcore_events_subscribers",
		"daqcore_health_status",
	} {
		assert.True(t, names[want], "expected metric family %s", want)
	}
}
