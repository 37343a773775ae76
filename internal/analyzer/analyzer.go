// Package analyzer orchestrates a featstat run: it aggregates result files
// into experiments across parallel workers, writes the aggregates, and runs
// the statistical tests and their correction.
package analyzer

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/featstat/pkg/config"
	"github.com/Sumatoshi-tech/featstat/pkg/observability"
	"github.com/Sumatoshi-tech/featstat/pkg/persist"
)

// Explicit "no output produced" signals.
var (
	// ErrNothingToAnalyze means discovery found no usable result file.
	ErrNothingToAnalyze = errors.New("nothing to analyze")
	// ErrNoResults means a stage's input file is missing or holds no data.
	ErrNoResults = errors.New("no results found")
)

const (
	tracerName = "featstat"

	spanAggregate = "featstat.aggregate"
	spanWorker    = "featstat.aggregate.worker"
	spanTest      = "featstat.test"
	spanCorrect   = "featstat.correct"
)

// Analyzer runs the featstat stages for one configuration.
type Analyzer struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.RunMetrics
	codec   persist.Codec
	runID   string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Analyzer) { a.tracer = tracer }
}

// WithMetrics sets the run counters.
func WithMetrics(metrics *observability.RunMetrics) Option {
	return func(a *Analyzer) { a.metrics = metrics }
}

// New creates an analyzer for cfg. Each analyzer carries a fresh run ID
// that is attached to every log record.
func New(cfg *config.Config, opts ...Option) (*Analyzer, error) {
	codec, err := persist.CodecFor(cfg.Data.Format, cfg.Data.Compress)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:    cfg,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
		codec:  codec,
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.logger = a.logger.With(slog.String("run_id", a.runID))

	return a, nil
}

// RunID identifies this analyzer's run in logs.
func (a *Analyzer) RunID() string {
	return a.runID
}
