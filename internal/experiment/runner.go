package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/probelab/swapnest/internal/config"
	"github.com/probelab/swapnest/internal/observability"
	runtrace "github.com/probelab/swapnest/internal/trace"
	"github.com/probelab/swapnest/pkg/alg/cuckoo"
)

// checkCancelEvery is the attempt stride between context cancellation
// checks inside the insert loop.
const checkCancelEvery = 8192

// progressEvery is the attempt stride between progress log records.
const progressEvery = 100000

// Result bundles everything a bench run produces.
type Result struct {
	Summary *Summary
	Seed    uint64
	Elapsed time.Duration

	// Filter snapshot after the run.
	Used       uint64
	Capacity   uint64
	LoadFactor float64
	Bits       uint64

	// Grid is the rendered slot grid, empty unless requested.
	Grid string

	// Trace is the per-attempt trace, nil unless requested.
	Trace *runtrace.Trace
}

// Runner executes bench runs described by a configuration.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.BenchMetrics
}

// NewRunner wires a runner from its configuration and observability
// providers. Metrics may be nil; instrument recording is then skipped.
func NewRunner(cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, metrics *observability.BenchMetrics) *Runner {
	return &Runner{cfg: cfg, logger: logger, tracer: tracer, metrics: metrics}
}

// Run generates the workload, inserts every key, and aggregates outcomes.
// A zero configured seed draws a fresh one; the seed actually used is
// reported in the result so runs can be replayed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "bench.run")
	defer span.End()

	seed := r.cfg.Bench.Seed
	if seed == 0 {
		seed = cuckoo.RandomSeed()
	}

	span.SetAttributes(
		attribute.String("bench.seed", strconv.FormatUint(seed, 10)),
		attribute.Int("bench.keys", r.cfg.Bench.Keys),
	)

	filterCfg := cuckoo.Config{
		FingerBits: r.cfg.Filter.FingerBits,
		NumBuckets: r.cfg.Filter.NumBuckets,
		NumEntries: r.cfg.Filter.NumEntries,
		MaxSwaps:   r.cfg.Filter.MaxSwaps,
	}

	// One stream seeds the other so a single seed pins down both the
	// workload and the relocation draws.
	rng := cuckoo.NewSplitMix64(seed)
	filterRand := cuckoo.NewSplitMix64(rng.Uint64())

	filter, err := cuckoo.NewWithRand(filterCfg, filterRand)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	r.logger.InfoContext(ctx, "bench run starting",
		slog.Uint64("seed", seed),
		slog.Int("keys", r.cfg.Bench.Keys),
		slog.Uint64("capacity", filter.Capacity()),
	)

	words := r.buildWorkload(ctx, rng)
	summary := NewSummary(filterCfg.MaxSwaps)

	var tr *runtrace.Trace
	if r.cfg.Bench.TraceFile != "" {
		tr = &runtrace.Trace{
			FingerBits: filterCfg.FingerBits,
			NumBuckets: filterCfg.NumBuckets,
			NumEntries: filterCfg.NumEntries,
			MaxSwaps:   filterCfg.MaxSwaps,
			Seed:       seed,
		}
	}

	start := time.Now()

	insertErr := r.insertAll(ctx, filter, words, summary, tr)
	if insertErr != nil {
		return nil, insertErr
	}

	elapsed := time.Since(start)

	r.metrics.RecordRun(ctx, elapsed)
	span.SetAttributes(
		attribute.Int64("bench.successes", int64(summary.Successes)),
		attribute.Int64("bench.failures", int64(summary.Failures)),
	)

	r.logger.InfoContext(ctx, "bench run complete",
		slog.Uint64("successes", summary.Successes),
		slog.Uint64("failures", summary.Failures),
		slog.Uint64("total_swaps", summary.TotalSwaps),
		slog.Duration("elapsed", elapsed),
	)

	result := &Result{
		Summary:    summary,
		Seed:       seed,
		Elapsed:    elapsed,
		Used:       filter.Used(),
		Capacity:   filter.Capacity(),
		LoadFactor: filter.LoadFactor(),
		Bits:       filter.Bits(),
		Trace:      tr,
	}

	if r.cfg.Bench.Grid {
		result.Grid = filter.String()
	}

	return result, nil
}

// buildWorkload generates and optionally shuffles the key set.
func (r *Runner) buildWorkload(ctx context.Context, rng cuckoo.Source) []string {
	ctx, span := r.tracer.Start(ctx, "bench.workload")
	defer span.End()

	words := Words(r.cfg.Bench.Keys, rng)
	if r.cfg.Bench.Shuffle {
		Shuffle(words, rng)
	}

	r.logger.DebugContext(ctx, "workload ready", slog.Int("keys", len(words)))

	return words
}

// insertAll feeds every key through the filter, honoring cancellation.
func (r *Runner) insertAll(
	ctx context.Context,
	filter *cuckoo.Filter,
	words []string,
	summary *Summary,
	tr *runtrace.Trace,
) error {
	ctx, span := r.tracer.Start(ctx, "bench.insert")
	defer span.End()

	for i, word := range words {
		if i%checkCancelEvery == 0 && ctx.Err() != nil {
			return fmt.Errorf("bench run canceled: %w", ctx.Err())
		}

		swaps, err := filter.InsertString(word)
		ok := err == nil

		summary.Record(i, swaps, ok)
		r.metrics.RecordInsert(ctx, swaps, ok)

		if tr != nil {
			tr.Append(swaps, filter.Used())
		}

		if (i+1)%progressEvery == 0 {
			r.logger.DebugContext(ctx, "bench progress",
				slog.Int("attempted", i+1),
				slog.Uint64("failures", summary.Failures),
			)
		}
	}

	return nil
}
