// Package main implements the entry point for the daqcore acquisition
// service: it wires a DAQ board, the acquisition engine, the event bus and
// the metrics endpoint from a single configuration file and runs until
// signalled.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fences/IcpDasDaqCore/config"
	"github.com/fences/IcpDasDaqCore/device"
	"github.com/fences/IcpDasDaqCore/device/sim"
	"github.com/fences/IcpDasDaqCore/engine"
	"github.com/fences/IcpDasDaqCore/errors"
	"github.com/fences/IcpDasDaqCore/event"
	"github.com/fences/IcpDasDaqCore/health"
	"github.com/fences/IcpDasDaqCore/metric"
	"github.com/fences/IcpDasDaqCore/pkg/retry"
	"github.com/fences/IcpDasDaqCore/processor"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "daqcore"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Command-line log settings win over the file.
	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	slog.Info("Starting daqcore acquisition service",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"driver", cfg.Device.Driver)

	board, err := newBoard(cfg.Device)
	if err != nil {
		return err
	}

	metricsRegistry := metric.NewMetricsRegistry()
	bus := event.NewBus(logger, event.WithMetrics(metricsRegistry.CoreMetrics()))

	eng, err := engine.New(engine.Deps{
		Board:   board,
		Bus:     bus,
		Metrics: metricsRegistry,
		Logger:  logger,
		Config: engine.Config{
			Mode:       engineMode(cfg.Engine.Mode),
			Parallel:   cfg.Engine.Parallel,
			RetryLimit: cfg.Engine.RetryLimit,
		},
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := initializeEngine(ctx, eng, logger); err != nil {
		return fmt.Errorf("initialize board: %w", err)
	}

	for _, ch := range cfg.Channels {
		if err := eng.AddChannel(ch.Name, ch.Index, ch.Range, ch.FilterWindow, ch.Coeffs, ch.Zero); err != nil {
			return fmt.Errorf("register channel %q: %w", ch.Name, err)
		}
	}

	subID := subscribeLifecycleLogger(bus, logger)
	defer bus.Unsubscribe(subID)

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		healthFn := healthProbe(eng, health.NewMonitor(), metricsRegistry.CoreMetrics())
		metricsServer = metric.NewServer(cfg.Metrics.Port(), "/metrics", metricsRegistry, healthFn)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		slog.Info("Metrics endpoint listening", "listen", cfg.Metrics.Listen)
	}

	if cfg.Acquisition.AutoStart {
		if err := eng.Start(cfg.Acquisition.Rate, cfg.Acquisition.SamplesPerCycle); err != nil {
			return fmt.Errorf("start acquisition: %w", err)
		}
	} else {
		slog.Info("Auto-start disabled, engine idle until started")
	}

	<-ctx.Done()
	slog.Info("Received shutdown signal")

	return shutdown(eng, bus, metricsServer, cliCfg.ShutdownTimeout)
}

// newBoard constructs the board selected by the device configuration.
func newBoard(cfg config.DeviceConfig) (device.Board, error) {
	switch cfg.Driver {
	case "sim":
		waveforms := make(map[int]sim.Waveform, len(cfg.Sim.Channels))
		for _, ch := range cfg.Sim.Channels {
			waveforms[ch.Index] = sim.Waveform{
				Amplitude: ch.Amplitude,
				Frequency: ch.Frequency,
				Phase:     ch.Phase,
				Offset:    ch.Offset,
				Noise:     cfg.Sim.Noise,
			}
		}
		return sim.New(sim.Config{
			Info:      device.BoardInfo{Slot: cfg.Board},
			Waveforms: waveforms,
			Seed:      cfg.Sim.Seed,
			Realtime:  cfg.Sim.Realtime,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported device driver %q", cfg.Driver)
	}
}

// engineMode maps the validated config string onto the processor mode.
func engineMode(mode string) processor.Mode {
	if mode == "perchannel" {
		return processor.ModePerChannel
	}
	return processor.ModeAggregate
}

// initializeEngine opens the board through the retry framework: transient
// driver failures back off and retry, anything else fails fast.
func initializeEngine(ctx context.Context, eng *engine.Engine, logger *slog.Logger) error {
	cfg := retry.DefaultConfig()
	cfg.Notify = func(attempt int, err error, delay time.Duration) {
		logger.Warn("board initialization failed, backing off",
			"attempt", attempt,
			"delay", delay,
			"error", err)
	}

	return retry.Do(ctx, cfg, func() error {
		err := eng.Initialize()
		if err == nil {
			return nil
		}
		if errors.IsTransient(err) {
			return err
		}
		return retry.NonRetryable(err)
	})
}

// healthProbe builds the /health data source. Each call refreshes the
// engine entry in the monitor, mirrors it into the health gauge and
// returns the system aggregate.
func healthProbe(eng *engine.Engine, monitor *health.Monitor, core *metric.Metrics) func() health.Status {
	return func() health.Status {
		st := eng.Health()
		monitor.Update("engine", st)
		core.RecordHealthStatus("engine", st.IsHealthy())
		return monitor.AggregateHealth(appName)
	}
}

// subscribeLifecycleLogger logs the engine's out-of-band notifications:
// errors at warn, device readiness at info, cycle latency at debug.
func subscribeLifecycleLogger(bus *event.Bus, logger *slog.Logger) string {
	logger = logger.With("component", "events")
	return bus.Subscribe(func(evt event.Event) {
		switch e := evt.(type) {
		case event.ErrorEvent:
			logger.Warn("engine error",
				"source", e.Source,
				"channel", e.Channel,
				"code", e.Code,
				"message", e.Message)
		case event.InitializedEvent:
			logger.Info("device ready", "board", e.Board)
		case event.CycleEvent:
			logger.Debug("cycle complete",
				"elapsed", e.Elapsed,
				"samples", e.Samples,
				"channels", e.Channels)
		}
	}, event.KindError, event.KindInitialized, event.KindCycle)
}

// shutdown stops the moving parts in dependency order: acquisition first,
// then the bus so queued events drain, then the metrics endpoint.
func shutdown(eng *engine.Engine, bus *event.Bus, metricsServer *metric.Server, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	if err := eng.Close(); err != nil {
		slog.Error("Error closing engine", "error", err)
		return err
	}

	bus.Close()

	if metricsServer != nil && time.Now().Before(deadline) {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}

	slog.Info("daqcore shutdown complete")
	return nil
}
