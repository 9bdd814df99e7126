// Package commands implements CLI command handlers for swapnest.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"

	"github.com/probelab/swapnest/internal/config"
	"github.com/probelab/swapnest/internal/experiment"
	"github.com/probelab/swapnest/internal/observability"
	runtrace "github.com/probelab/swapnest/internal/trace"
	"github.com/probelab/swapnest/pkg/version"
)

// benchExecutor runs the configured workload and returns its result.
type benchExecutor func(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics *observability.BenchMetrics,
) (*experiment.Result, error)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath string

	fingerBits uint8
	buckets    uint32
	entries    uint8
	maxSwaps   uint8

	keys    int
	seed    uint64
	shuffle bool
	format  string
	grid    bool

	plotFile  string
	traceFile string

	logLevel  string
	logFormat string

	otlpEndpoint  string
	otlpHeaders   string
	otlpInsecure  bool
	debugTrace    bool
	sampleRatio   float64
	metricsListen string

	benchExec benchExecutor
}

// NewRunCommand creates the run command with its flag set.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(defaultBenchExecutor)
}

func newRunCommandWithDeps(benchExec benchExecutor) *cobra.Command {
	rc := &RunCommand{benchExec: benchExec}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an insertion workload through the filter",
		Long:  "Generate a key workload, insert it into a cuckoo filter, and report placement statistics.",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path (default: search ., ./config, /etc/swapnest)")

	cmd.Flags().Uint8Var(&rc.fingerBits, "finger-bits", config.DefaultFingerBits, "Fingerprint width in bits (8 or 16)")
	cmd.Flags().Uint32Var(&rc.buckets, "buckets", config.DefaultNumBuckets, "Number of buckets in the table")
	cmd.Flags().Uint8Var(&rc.entries, "entries", config.DefaultNumEntries, "Slots per bucket")
	cmd.Flags().Uint8Var(&rc.maxSwaps, "max-swaps", config.DefaultMaxSwaps, "Relocation budget per insert")

	cmd.Flags().IntVar(&rc.keys, "keys", config.DefaultKeys, "Number of keys to insert")
	cmd.Flags().Uint64Var(&rc.seed, "seed", 0, "Workload seed (0 = fresh seed per run)")
	cmd.Flags().BoolVar(&rc.shuffle, "shuffle", config.DefaultShuffle, "Shuffle the workload before inserting")
	cmd.Flags().StringVar(&rc.format, "format", config.DefaultFormat, "Report format: table, json, yaml")
	cmd.Flags().BoolVar(&rc.grid, "grid", false, "Print the slot grid after the run")

	cmd.Flags().StringVar(&rc.plotFile, "plot", "", "Write an HTML histogram chart to this path")
	cmd.Flags().StringVar(&rc.traceFile, "trace", "", "Write a compressed per-attempt trace to this path")

	cmd.Flags().StringVar(&rc.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&rc.logFormat, "log-format", config.DefaultLogFormat, "Log format: text, json")

	cmd.Flags().StringVar(&rc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for traces and metrics")
	cmd.Flags().StringVar(&rc.otlpHeaders, "otlp-headers", "", "OTLP headers (key1=val1,key2=val2)")
	cmd.Flags().BoolVar(&rc.otlpInsecure, "otlp-insecure", false, "Use plaintext OTLP transport")
	cmd.Flags().BoolVar(&rc.debugTrace, "debug-trace", false, "Sample every span")
	cmd.Flags().Float64Var(&rc.sampleRatio, "sample-ratio", 0, "Trace sampling ratio between 0 and 1 (0 = sample all)")
	cmd.Flags().StringVar(&rc.metricsListen, "metrics-listen", "", "Serve /metrics and /healthz on this address during the run")

	return cmd
}

func defaultBenchExecutor(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics *observability.BenchMetrics,
) (*experiment.Result, error) {
	return experiment.NewRunner(cfg, logger, tracer, metrics).Run(ctx)
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyOverrides(cmd.Flags(), cfg)

	if level := verbosityOverride(cmd); level != "" && !cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = level
	}

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	providers, err := observability.Init(rc.observabilityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	if cfg.Telemetry.MetricsListen != "" {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Telemetry.MetricsListen, providers.MetricsHandler)
		if diagErr != nil {
			return fmt.Errorf("start diagnostics server: %w", diagErr)
		}

		defer func() { _ = diag.Close() }()

		providers.Logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	metrics, err := observability.NewBenchMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("register bench metrics: %w", err)
	}

	res, err := rc.benchExec(cmd.Context(), cfg, providers.Logger, providers.Tracer, metrics)
	if err != nil {
		return err
	}

	return rc.writeOutputs(cmd, cfg, res, providers.Logger)
}

// applyOverrides copies explicitly set flags over the loaded config. Flags
// beat both file and environment values.
func (rc *RunCommand) applyOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("finger-bits") {
		cfg.Filter.FingerBits = rc.fingerBits
	}

	if flags.Changed("buckets") {
		cfg.Filter.NumBuckets = rc.buckets
	}

	if flags.Changed("entries") {
		cfg.Filter.NumEntries = rc.entries
	}

	if flags.Changed("max-swaps") {
		cfg.Filter.MaxSwaps = rc.maxSwaps
	}

	if flags.Changed("keys") {
		cfg.Bench.Keys = rc.keys
	}

	if flags.Changed("seed") {
		cfg.Bench.Seed = rc.seed
	}

	if flags.Changed("shuffle") {
		cfg.Bench.Shuffle = rc.shuffle
	}

	if flags.Changed("format") {
		cfg.Bench.Format = rc.format
	}

	if flags.Changed("grid") {
		cfg.Bench.Grid = rc.grid
	}

	if flags.Changed("plot") {
		cfg.Bench.PlotFile = rc.plotFile
	}

	if flags.Changed("trace") {
		cfg.Bench.TraceFile = rc.traceFile
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = rc.logLevel
	}

	if flags.Changed("log-format") {
		cfg.Logging.Format = rc.logFormat
	}

	if flags.Changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = rc.otlpEndpoint
	}

	if flags.Changed("otlp-headers") {
		cfg.Telemetry.OTLPHeaders = rc.otlpHeaders
	}

	if flags.Changed("otlp-insecure") {
		cfg.Telemetry.OTLPInsecure = rc.otlpInsecure
	}

	if flags.Changed("debug-trace") {
		cfg.Telemetry.DebugTrace = rc.debugTrace
	}

	if flags.Changed("sample-ratio") {
		cfg.Telemetry.SampleRatio = rc.sampleRatio
	}

	if flags.Changed("metrics-listen") {
		cfg.Telemetry.MetricsListen = rc.metricsListen
	}
}

// verbosityOverride maps the root command's persistent verbosity flags to
// a log level. Quiet beats verbose; the empty string means neither is set.
func verbosityOverride(cmd *cobra.Command) string {
	if flagBool(cmd, "quiet") {
		return config.LevelError
	}

	if flagBool(cmd, "verbose") {
		return config.LevelDebug
	}

	return ""
}

// flagBool reads a boolean flag, tolerating commands wired without it.
func flagBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}

// observabilityConfig maps the loaded config onto the telemetry setup.
func (rc *RunCommand) observabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.DebugTrace = cfg.Telemetry.DebugTrace
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.MetricsListen = cfg.Telemetry.MetricsListen
	obsCfg.LogLevel = cfg.Logging.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	return obsCfg
}

// writeOutputs renders the report and writes any requested artifacts.
func (rc *RunCommand) writeOutputs(cmd *cobra.Command, cfg *config.Config, res *experiment.Result, logger *slog.Logger) error {
	writer := cmd.OutOrStdout()

	err := experiment.WriteReport(writer, res, cfg.Bench.Format)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if res.Grid != "" {
		fmt.Fprintf(writer, "\n%s\n", res.Grid)
	}

	if cfg.Bench.TraceFile != "" && res.Trace != nil {
		err = runtrace.WriteFile(cfg.Bench.TraceFile, res.Trace)
		if err != nil {
			return err
		}

		logger.Info("trace written", "path", cfg.Bench.TraceFile, "attempts", res.Trace.Len())
	}

	if cfg.Bench.PlotFile != "" {
		err = experiment.WritePlotFile(cfg.Bench.PlotFile, res)
		if err != nil {
			return err
		}

		logger.Info("plot written", "path", cfg.Bench.PlotFile)
	}

	return nil
}
