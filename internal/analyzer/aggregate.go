package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/featstat/internal/record"
	"github.com/Sumatoshi-tech/featstat/pkg/mapping"
)

// Summary describes one aggregation.
type Summary struct {
	Files     int
	Processed int
	Skipped   int
	Merged    Merged
	Duration  time.Duration
}

type partial struct {
	exps      *mapping.Experiments
	merged    Merged
	processed int
	skipped   int
}

// Aggregate folds every file into a finalized experiment set. Files are
// split into contiguous chunks, one per worker, and each worker fills its
// own experiment set; the partial sets are merged in chunk order so the
// value order of every series matches a sequential run. Unreadable or
// invalid files are logged and skipped. A run where no file could be used
// fails with ErrNothingToAnalyze.
func (a *Analyzer) Aggregate(ctx context.Context, files []string) (*mapping.Experiments, Summary, error) {
	ctx, span := a.tracer.Start(ctx, spanAggregate, trace.WithAttributes(
		attribute.String("run_id", a.runID),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	start := time.Now()
	summary := Summary{Files: len(files), Merged: Merged{}}

	if len(files) == 0 {
		return nil, summary, ErrNothingToAnalyze
	}

	chunks := split(files, a.workers(len(files)))
	partials := make([]partial, len(chunks))

	g, gctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		g.Go(func() error {
			p, err := a.aggregateChunk(gctx, i, chunk)
			partials[i] = p

			return err
		})
	}

	err := g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, summary, err
	}

	exps := mapping.NewExperiments()

	for _, p := range partials {
		err = exps.Merge(p.exps)
		if err != nil {
			return nil, summary, fmt.Errorf("merge partial aggregate: %w", err)
		}

		summary.Processed += p.processed
		summary.Skipped += p.skipped
		summary.Merged.Add(p.merged)
	}

	exps.Finalize()

	summary.Duration = time.Since(start)

	for name, n := range summary.Merged {
		a.metrics.RecordsMerged(ctx, name, n)
	}

	a.logger.InfoContext(ctx, "aggregation finished",
		slog.String("files", humanize.Comma(int64(summary.Files))),
		slog.String("processed", humanize.Comma(int64(summary.Processed))),
		slog.String("skipped", humanize.Comma(int64(summary.Skipped))),
		slog.Int("workers", len(chunks)),
		slog.Duration("duration", summary.Duration),
	)

	if summary.Processed == 0 {
		return nil, summary, ErrNothingToAnalyze
	}

	return exps, summary, nil
}

func (a *Analyzer) aggregateChunk(ctx context.Context, worker int, files []string) (partial, error) {
	ctx, span := a.tracer.Start(ctx, spanWorker, trace.WithAttributes(
		attribute.Int("worker", worker),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	p := partial{exps: mapping.NewExperiments(), merged: Merged{}}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return p, err
		}

		file, err := record.Read(path, a.cfg.Analysis.MaxFileSizeBytes)
		if err != nil {
			if !errors.Is(err, record.ErrInvalidRecord) && !errors.Is(err, record.ErrFileTooLarge) {
				return p, err
			}

			a.logger.WarnContext(ctx, "skipping result file", slog.String("path", path), slog.Any("error", err))
			a.metrics.FileSkipped(ctx)
			p.skipped++

			continue
		}

		merged, err := AnalyzeFile(p.exps, file)
		if err != nil {
			return p, fmt.Errorf("analyze %s: %w", path, err)
		}

		a.metrics.FileProcessed(ctx)
		p.merged.Add(merged)
		p.processed++
	}

	return p, nil
}

func (a *Analyzer) workers(files int) int {
	workers := a.cfg.Analysis.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return max(1, min(workers, files))
}

// split cuts files into n contiguous chunks whose sizes differ by at most one.
func split(files []string, n int) [][]string {
	chunks := make([][]string, 0, n)
	size, extra := len(files)/n, len(files)%n

	for i, start := 0, 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}

		chunks = append(chunks, files[start:end])
		start = end
	}

	return chunks
}
