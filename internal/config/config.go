// Package config provides configuration loading and validation for the
// swapnest bench CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidFingerBits  = errors.New("finger bits must be 8 or 16")
	ErrInvalidBuckets     = errors.New("bucket count must be positive")
	ErrInvalidEntries     = errors.New("entries per bucket must be positive")
	ErrInvalidKeys        = errors.New("key count must not be negative")
	ErrInvalidFormat      = errors.New("unknown report format")
	ErrInvalidLogLevel    = errors.New("unknown log level")
	ErrInvalidLogFormat   = errors.New("unknown log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
)

// Report formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration values.
const (
	DefaultFingerBits = 16
	DefaultNumBuckets = 10000
	DefaultNumEntries = 100
	DefaultMaxSwaps   = 99

	// DefaultKeys fills 99% of the default table capacity.
	DefaultKeys = 990000

	DefaultShuffle   = true
	DefaultFormat    = FormatTable
	DefaultLogLevel  = LevelInfo
	DefaultLogFormat = LogFormatText
)

// envPrefix namespaces the environment variables read by the loader.
const envPrefix = "SWAPNEST"

// Config holds all configuration for the swapnest CLI.
type Config struct {
	Filter    FilterConfig    `mapstructure:"filter"`
	Bench     BenchConfig     `mapstructure:"bench"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// FilterConfig holds the cuckoo table geometry.
type FilterConfig struct {
	FingerBits uint8  `mapstructure:"finger_bits"`
	NumBuckets uint32 `mapstructure:"num_buckets"`
	NumEntries uint8  `mapstructure:"num_entries"`
	MaxSwaps   uint8  `mapstructure:"max_swaps"`
}

// BenchConfig holds the bench workload and output settings.
type BenchConfig struct {
	// Keys is the number of insert attempts to run.
	Keys int `mapstructure:"keys"`

	// Seed seeds the workload and relocation randomness. Zero picks a
	// fresh seed per run.
	Seed uint64 `mapstructure:"seed"`

	// Shuffle randomizes the insertion order of the generated keys.
	Shuffle bool `mapstructure:"shuffle"`

	// Format selects the report format: table, json, or yaml.
	Format string `mapstructure:"format"`

	// Grid prints the full slot grid after the run.
	Grid bool `mapstructure:"grid"`

	// PlotFile writes an HTML histogram chart to the given path.
	PlotFile string `mapstructure:"plot_file"`

	// TraceFile writes a compressed per-attempt trace to the given path.
	TraceFile string `mapstructure:"trace_file"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OTLP export and Prometheus scrape settings.
type TelemetryConfig struct {
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders   string  `mapstructure:"otlp_headers"`
	OTLPInsecure  bool    `mapstructure:"otlp_insecure"`
	DebugTrace    bool    `mapstructure:"debug_trace"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
	MetricsListen string  `mapstructure:"metrics_listen"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches the default locations; a missing file is not an
// error there, defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("swapnest")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/swapnest")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Filter defaults.
	viperCfg.SetDefault("filter.finger_bits", DefaultFingerBits)
	viperCfg.SetDefault("filter.num_buckets", DefaultNumBuckets)
	viperCfg.SetDefault("filter.num_entries", DefaultNumEntries)
	viperCfg.SetDefault("filter.max_swaps", DefaultMaxSwaps)

	// Bench defaults.
	viperCfg.SetDefault("bench.keys", DefaultKeys)
	viperCfg.SetDefault("bench.seed", 0)
	viperCfg.SetDefault("bench.shuffle", DefaultShuffle)
	viperCfg.SetDefault("bench.format", DefaultFormat)
	viperCfg.SetDefault("bench.grid", false)
	viperCfg.SetDefault("bench.plot_file", "")
	viperCfg.SetDefault("bench.trace_file", "")

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.debug_trace", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.metrics_listen", "")
}

// Validate checks Config invariants and returns the first error found.
// LoadConfig runs it automatically; callers that mutate a loaded Config
// afterwards should run it again.
func (c *Config) Validate() error {
	if c.Filter.FingerBits != 8 && c.Filter.FingerBits != 16 {
		return fmt.Errorf("%w: %d", ErrInvalidFingerBits, c.Filter.FingerBits)
	}

	if c.Filter.NumBuckets == 0 {
		return ErrInvalidBuckets
	}

	if c.Filter.NumEntries == 0 {
		return ErrInvalidEntries
	}

	if c.Bench.Keys < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKeys, c.Bench.Keys)
	}

	switch c.Bench.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Bench.Format)
	}

	switch c.Logging.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// SlogLevel maps the configured level string to its slog level. Call after
// validation; unknown strings fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
