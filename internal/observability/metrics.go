package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricInsertsTotal = "swapnest.bench.inserts.total"
	metricInsertSwaps  = "swapnest.bench.insert.swaps"
	metricRunDuration  = "swapnest.bench.run.duration.seconds"
	metricOccupancy    = "swapnest.bench.filter.occupancy"

	attrStatus = "status"

	statusOK     = "ok"
	statusFailed = "failed"
)

// swapBucketBoundaries covers the full uint8 relocation budget, dense at the
// low end where almost all successful inserts land.
var swapBucketBoundaries = []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 255}

// durationBucketBoundaries covers 1ms to 60s for bench runs that range from
// toy tables to near-capacity fills of multi-million-slot tables.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// BenchMetrics holds the OTel instruments for bench run metrics.
type BenchMetrics struct {
	insertsTotal metric.Int64Counter
	insertSwaps  metric.Float64Histogram
	runDuration  metric.Float64Histogram
	occupancy    metric.Int64UpDownCounter
}

// NewBenchMetrics creates bench metric instruments from the given meter.
func NewBenchMetrics(mt metric.Meter) (*BenchMetrics, error) {
	b := newMetricBuilder(mt)

	bm := &BenchMetrics{
		insertsTotal: b.counter(metricInsertsTotal, "Total insert attempts by outcome", "{insert}"),
		insertSwaps:  b.histogram(metricInsertSwaps, "Relocations performed per insert attempt", "{swap}", swapBucketBoundaries...),
		runDuration:  b.histogram(metricRunDuration, "Bench run duration in seconds", "s", durationBucketBoundaries...),
		occupancy:    b.upDownCounter(metricOccupancy, "Occupied filter slots", "{slot}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return bm, nil
}

// RecordInsert records one insert attempt outcome with its relocation count.
// Safe to call on a nil receiver (no-op).
func (bm *BenchMetrics) RecordInsert(ctx context.Context, swaps uint8, ok bool) {
	if bm == nil {
		return
	}

	status := statusOK
	if !ok {
		status = statusFailed
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	bm.insertsTotal.Add(ctx, 1, attrs)
	bm.insertSwaps.Record(ctx, float64(swaps), attrs)

	if ok {
		bm.occupancy.Add(ctx, 1)
	}
}

// RecordRun records the wall-clock duration of a completed bench run.
// Safe to call on a nil receiver (no-op).
func (bm *BenchMetrics) RecordRun(ctx context.Context, took time.Duration) {
	if bm == nil {
		return
	}

	bm.runDuration.Record(ctx, took.Seconds())
}
