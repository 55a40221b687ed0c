// Package config loads the daqcore configuration: defaults, then an
// optional YAML file, then DAQCORE_* environment overrides, validated as
// one unit. The acquisition rate window is enforced by the engine at
// Start, not here.
package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fences/IcpDasDaqCore/errors"
)

// EnvPrefix is the prefix shared by all environment overrides.
const EnvPrefix = "DAQCORE"

// Config is the complete daqcore configuration.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Device      DeviceConfig      `yaml:"device"`
	Engine      EngineConfig      `yaml:"engine"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Channels    []ChannelConfig   `yaml:"channels" validate:"dive"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// SlogLevel maps the configured level onto slog's scale.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Port extracts the TCP port from the listen address, defaulting to 9090
// when the address is empty or unparseable.
func (m MetricsConfig) Port() int {
	_, portStr, err := net.SplitHostPort(m.Listen)
	if err != nil {
		return 9090
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 9090
	}
	return port
}

// DeviceConfig selects and parameterizes the DAQ board.
type DeviceConfig struct {
	Driver string    `yaml:"driver" validate:"required"`
	Board  int       `yaml:"board" validate:"gte=0"`
	Sim    SimConfig `yaml:"sim"`
}

// SimConfig parameterizes the simulated board.
type SimConfig struct {
	Seed     int64              `yaml:"seed"`
	Noise    float32            `yaml:"noise" validate:"gte=0"`
	Realtime bool               `yaml:"realtime"`
	Channels []SimChannelConfig `yaml:"channels" validate:"dive"`
}

// SimChannelConfig describes one synthetic waveform. Channels without an
// entry fall back to the simulator's built-in waveform.
type SimChannelConfig struct {
	Index     int     `yaml:"index" validate:"gte=0"`
	Amplitude float32 `yaml:"amplitude"`
	Frequency float32 `yaml:"frequency" validate:"gte=0"`
	Phase     float32 `yaml:"phase"`
	Offset    float32 `yaml:"offset"`
}

// EngineConfig carries the engine knobs.
type EngineConfig struct {
	Mode       string `yaml:"mode" validate:"oneof=aggregate perchannel"`
	Parallel   bool   `yaml:"parallel"`
	RetryLimit int    `yaml:"retry_limit"`
}

// AcquisitionConfig carries the scan parameters handed to engine.Start.
type AcquisitionConfig struct {
	Rate            float64 `yaml:"rate" validate:"gt=0"`
	SamplesPerCycle int     `yaml:"samples_per_cycle" validate:"gt=0"`
	AutoStart       bool    `yaml:"auto_start"`
}

// ChannelConfig describes one acquisition channel to register at startup.
type ChannelConfig struct {
	Name         string    `yaml:"name" validate:"required"`
	Index        int       `yaml:"index" validate:"gte=0"`
	Range        int       `yaml:"range" validate:"gte=0"`
	FilterWindow int       `yaml:"filter_window" validate:"gte=0"`
	Coeffs       []float64 `yaml:"coeffs"`
	Zero         float64   `yaml:"zero"`
}

// Defaults returns the configuration used when no file and no overrides
// are present.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  ":9090",
		},
		Device: DeviceConfig{
			Driver: "sim",
			Sim:    SimConfig{Seed: 1},
		},
		Engine: EngineConfig{
			Mode:       "aggregate",
			RetryLimit: 5,
		},
		Acquisition: AcquisitionConfig{
			Rate:            1000,
			SamplesPerCycle: 500,
		},
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path when one is given, overlaid by environment variables, then
// validated. An empty path means pure defaults; a path that cannot be
// read is an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "read file")
		}
		// Unmarshaling over the defaults keeps every key the file does
		// not mention.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse yaml")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks for environment variables with the DAQCORE_
// prefix. Unparseable numeric or boolean values keep the existing setting.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv(EnvPrefix + "_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv(EnvPrefix + "_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}

	if v := os.Getenv(EnvPrefix + "_DEVICE_DRIVER"); v != "" {
		cfg.Device.Driver = v
	}
	if v := os.Getenv(EnvPrefix + "_DEVICE_BOARD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Device.Board = n
		}
	}

	if v := os.Getenv(EnvPrefix + "_ENGINE_MODE"); v != "" {
		cfg.Engine.Mode = v
	}
	if v := os.Getenv(EnvPrefix + "_ENGINE_PARALLEL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Engine.Parallel = b
		}
	}
	if v := os.Getenv(EnvPrefix + "_ENGINE_RETRY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.RetryLimit = n
		}
	}

	if v := os.Getenv(EnvPrefix + "_ACQUISITION_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Acquisition.Rate = f
		}
	}
	if v := os.Getenv(EnvPrefix + "_ACQUISITION_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Acquisition.SamplesPerCycle = n
		}
	}
	if v := os.Getenv(EnvPrefix + "_ACQUISITION_AUTO_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Acquisition.AutoStart = b
		}
	}
}

var validate = validator.New()

// Validate checks the configuration as a unit: struct tags first, then the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			parts := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				parts = append(parts, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(parts, "; ")),
				"config", "Validate", "struct tags")
		}
		return errors.WrapInvalid(err, "config", "Validate", "struct tags")
	}

	seen := make(map[string]struct{}, len(c.Channels))
	for _, ch := range c.Channels {
		if _, dup := seen[ch.Name]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("%w: duplicate channel name %q", errors.ErrInvalidConfig, ch.Name),
				"config", "Validate", "channel names")
		}
		seen[ch.Name] = struct{}{}
	}

	return nil
}
