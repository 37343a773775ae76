package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesProcessed = "featstat.files.processed"
	metricFilesSkipped   = "featstat.files.skipped"
	metricRecordsMerged  = "featstat.records.merged"
	metricCellsTested    = "featstat.cells.tested"
	metricCellsSkipped   = "featstat.cells.skipped"

	attrExperiment = "experiment"
	attrTest       = "test"
)

// RunMetrics holds the counters of one aggregation and testing run.
// Every method is safe to call on a nil receiver.
type RunMetrics struct {
	filesProcessed metric.Int64Counter
	filesSkipped   metric.Int64Counter
	recordsMerged  metric.Int64Counter
	cellsTested    metric.Int64Counter
	cellsSkipped   metric.Int64Counter
}

// NewRunMetrics creates the run counters from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	var (
		rm  RunMetrics
		err error
	)

	rm.filesProcessed, err = counter(mt, metricFilesProcessed, "Result files aggregated", "{file}")
	if err != nil {
		return nil, err
	}

	rm.filesSkipped, err = counter(mt, metricFilesSkipped, "Result files skipped as unreadable or invalid", "{file}")
	if err != nil {
		return nil, err
	}

	rm.recordsMerged, err = counter(mt, metricRecordsMerged, "Measurement records merged by experiment", "{record}")
	if err != nil {
		return nil, err
	}

	rm.cellsTested, err = counter(mt, metricCellsTested, "Feature and metric pairs tested by test", "{cell}")
	if err != nil {
		return nil, err
	}

	rm.cellsSkipped, err = counter(mt, metricCellsSkipped, "Feature and metric pairs skipped for an empty sample", "{cell}")
	if err != nil {
		return nil, err
	}

	return &rm, nil
}

func counter(mt metric.Meter, name, description, unit string) (metric.Int64Counter, error) {
	c, err := mt.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	return c, nil
}

// FileProcessed counts one aggregated result file.
func (rm *RunMetrics) FileProcessed(ctx context.Context) {
	if rm == nil {
		return
	}

	rm.filesProcessed.Add(ctx, 1)
}

// FileSkipped counts one skipped result file.
func (rm *RunMetrics) FileSkipped(ctx context.Context) {
	if rm == nil {
		return
	}

	rm.filesSkipped.Add(ctx, 1)
}

// RecordsMerged counts records merged into an experiment.
func (rm *RunMetrics) RecordsMerged(ctx context.Context, experiment string, n int) {
	if rm == nil || n == 0 {
		return
	}

	rm.recordsMerged.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrExperiment, experiment)))
}

// CellsTested counts pairs that produced an outcome for test.
func (rm *RunMetrics) CellsTested(ctx context.Context, test string, n int) {
	if rm == nil {
		return
	}

	rm.cellsTested.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrTest, test)))
}

// CellsSkipped counts pairs left without an outcome.
func (rm *RunMetrics) CellsSkipped(ctx context.Context, n int) {
	if rm == nil {
		return
	}

	rm.cellsSkipped.Add(ctx, int64(n))
}
