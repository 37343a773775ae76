package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/featstat/internal/discovery"
	"github.com/Sumatoshi-tech/featstat/pkg/halstead"
	"github.com/Sumatoshi-tech/featstat/pkg/mapping"
	"github.com/Sumatoshi-tech/featstat/pkg/persist"
	"github.com/Sumatoshi-tech/featstat/pkg/statistics"
)

// Exported aggregate layouts.
type (
	// ResultsFile is experiment → bucket → metric → summary.
	ResultsFile = map[string]mapping.Snapshot
	// HalsteadFile is experiment → bucket → averaged Halstead suite.
	HalsteadFile = map[string]map[string]halstead.Snapshot
)

// Report is the outcome of a full run.
type Report struct {
	RunID     string
	Summary   Summary
	Results   *statistics.Results
	OutputDir string
}

// Run discovers result files, aggregates them, writes the aggregates, then
// tests, corrects and writes the statistics.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	repos, err := discovery.Discover(a.cfg.Data.ResultsPath(), a.cfg.Analysis.RepoCount)
	if err != nil {
		if errors.Is(err, discovery.ErrNoResultsDir) {
			return nil, fmt.Errorf("%w: %w", ErrNothingToAnalyze, err)
		}

		return nil, err
	}

	a.logger.InfoContext(ctx, "discovered repositories",
		slog.Int("repos", len(repos)),
		slog.String("root", a.cfg.Data.ResultsPath()),
	)

	exps, summary, err := a.Aggregate(ctx, discovery.Files(repos))
	if err != nil {
		return nil, err
	}

	err = a.WriteAggregates(exps)
	if err != nil {
		return nil, err
	}

	spaces, _ := exps.Get(mapping.ExperimentSpaces)

	results, err := a.Test(ctx, spaces)
	if err != nil {
		return nil, err
	}

	err = a.save(a.cfg.Data.StatisticsFile, results)
	if err != nil {
		return nil, err
	}

	err = a.Correct(ctx, results)
	if err != nil {
		return nil, err
	}

	err = a.save(a.cfg.Data.CorrectedFile, results)
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID:     a.runID,
		Summary:   summary,
		Results:   results,
		OutputDir: a.cfg.Data.OutputPath(),
	}, nil
}

// WriteAggregates writes the results and Halstead files of a finalized experiment set.
func (a *Analyzer) WriteAggregates(exps *mapping.Experiments) error {
	err := a.save(a.cfg.Data.ResultsFile, ResultsFile(exps.Snapshot()))
	if err != nil {
		return err
	}

	return a.save(a.cfg.Data.HalsteadFile, HalsteadFile(exps.HalsteadSnapshot()))
}

// Test runs the configured rank tests over a presence-pair mapping.
func (a *Analyzer) Test(ctx context.Context, spaces *mapping.Mapping) (*statistics.Results, error) {
	ctx, span := a.tracer.Start(ctx, spanTest, trace.WithAttributes(attribute.String("run_id", a.runID)))
	defer span.End()

	var opts []statistics.Option
	if a.cfg.Analysis.SameSampleSize {
		opts = append(opts, statistics.WithSameSampleSize(a.cfg.Analysis.Seed))
	}

	results, err := statistics.NewComparer(opts...).Compare(spaces)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	tested := results.Count(statistics.TestMannWhitneyU)

	a.metrics.CellsTested(ctx, statistics.TestMannWhitneyU, tested)
	a.metrics.CellsSkipped(ctx, results.Size()-tested)

	if a.cfg.Analysis.SameSampleSize {
		a.metrics.CellsTested(ctx, statistics.TestMannWhitneyUSameSampleSize,
			results.Count(statistics.TestMannWhitneyUSameSampleSize))
	}

	span.SetAttributes(attribute.Int("cells", results.Size()), attribute.Int("tested", tested))

	a.logger.InfoContext(ctx, "statistical tests finished",
		slog.Int("cells", results.Size()),
		slog.Int("tested", tested),
		slog.Int("skipped", results.Size()-tested),
	)

	return results, nil
}

// Correct applies the Bonferroni correction to results.
func (a *Analyzer) Correct(ctx context.Context, results *statistics.Results) error {
	ctx, span := a.tracer.Start(ctx, spanCorrect, trace.WithAttributes(attribute.Int("cells", results.Size())))
	defer span.End()

	err := statistics.Bonferroni(results)
	if err != nil {
		return fmt.Errorf("bonferroni: %w", err)
	}

	a.logger.DebugContext(ctx, "p-values corrected", slog.Int("factor", results.Size()))

	return nil
}

// RunTest loads the results file, tests its spaces experiment and writes
// the statistics file.
func (a *Analyzer) RunTest(ctx context.Context) (*statistics.Results, error) {
	results, err := load[ResultsFile](a, a.cfg.Data.ResultsFile)
	if err != nil {
		return nil, err
	}

	snap, ok := results[mapping.ExperimentSpaces]
	if !ok || empty(snap) {
		return nil, fmt.Errorf("%w: %s has no %s data", ErrNoResults, a.cfg.Data.ResultsFile, mapping.ExperimentSpaces)
	}

	spaces, err := mapping.FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", mapping.ExperimentSpaces, err)
	}

	tests, err := a.Test(ctx, spaces)
	if err != nil {
		return nil, err
	}

	return tests, a.save(a.cfg.Data.StatisticsFile, tests)
}

// RunCorrect loads the statistics file, corrects it and writes the corrected file.
func (a *Analyzer) RunCorrect(ctx context.Context) (*statistics.Results, error) {
	results, err := load[*statistics.Results](a, a.cfg.Data.StatisticsFile)
	if err != nil {
		return nil, err
	}

	if results == nil || results.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoResults, a.cfg.Data.StatisticsFile)
	}

	err = a.Correct(ctx, results)
	if err != nil {
		return nil, err
	}

	return results, a.save(a.cfg.Data.CorrectedFile, results)
}

func (a *Analyzer) save(name string, state any) error {
	dir := a.cfg.Data.OutputPath()

	err := persist.SaveState(dir, name, a.codec, state)
	if err != nil {
		return fmt.Errorf("write %s: %w", persist.Path(dir, name, a.codec), err)
	}

	a.logger.Info("wrote output", slog.String("path", persist.Path(dir, name, a.codec)))

	return nil
}

func load[T any](a *Analyzer, name string) (T, error) {
	state, err := persist.NewPersister[T](name, a.codec).Load(a.cfg.Data.OutputPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, fmt.Errorf("%w: %w", ErrNoResults, err)
		}

		return state, fmt.Errorf("read %s: %w", name, err)
	}

	return state, nil
}

func empty(snap mapping.Snapshot) bool {
	for _, suite := range snap {
		for _, summary := range suite {
			if summary.Count > 0 {
				return false
			}
		}
	}

	return true
}
