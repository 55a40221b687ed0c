// Package metric provides Prometheus-based metrics collection and an HTTP
// server for monitoring the acquisition engine.
//
// The package offers a centralized metrics registry managing both core engine
// metrics (cycles, samples, hardware errors, restarts, event delivery) and
// custom component-specific metrics. The HTTP server exposes metrics in
// Prometheus format plus a JSON health endpoint.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	monitor := health.NewMonitor()
//	server := metric.NewServer(9090, "/metrics", registry, func() health.Status {
//	    return monitor.AggregateHealth("daqcore")
//	})
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop()
//
// Recording core metrics from the engine:
//
//	core := registry.CoreMetrics()
//	core.RecordCycle("board0", "ok", elapsed)
//	core.RecordSamples("board0", samples*channels)
//
// Components register their own metrics through the MetricsRegistrar
// interface, namespaced by component name; registration is rejected on
// duplicates rather than silently shadowed. A nil *MetricsRegistry is
// accepted anywhere one is optional, so tests and minimal deployments skip
// instrumentation without conditional wiring.
package metric
