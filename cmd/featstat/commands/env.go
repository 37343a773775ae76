// Package commands implements the featstat CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/featstat/internal/analyzer"
	"github.com/Sumatoshi-tech/featstat/pkg/config"
	"github.com/Sumatoshi-tech/featstat/pkg/observability"
	"github.com/Sumatoshi-tech/featstat/pkg/version"
)

// Flag names shared across commands. verbose and quiet are persistent
// flags registered on the root command.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
)

// env is everything one command invocation needs.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	analyzer  *analyzer.Analyzer
}

// overrides applies command-line flags on top of the loaded configuration.
type overrides func(cmd *cobra.Command, cfg *config.Config)

func registerConfigFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, flagConfig, "",
		"Config file (default: featstat.yaml in ., ./config or /etc/featstat)")
}

// setup loads the configuration, applies flag overrides, initializes
// observability and builds the analyzer. The caller must call close.
func setup(cmd *cobra.Command, configPath string, apply overrides) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if apply != nil {
		apply(cmd, cfg)

		err = config.Validate(cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	applyVerbosity(cmd, cfg)

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsFile = cfg.Telemetry.MetricsFile
	obsCfg.LogLevel = cfg.Logging.SlogLevel()
	obsCfg.LogJSON = cfg.Logging.Format == "json"
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	slog.SetDefault(providers.Logger)

	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	a, err := analyzer.New(cfg,
		analyzer.WithLogger(providers.Logger),
		analyzer.WithTracer(providers.Tracer),
		analyzer.WithMetrics(runMetrics),
	)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &env{cfg: cfg, providers: providers, analyzer: a}, nil
}

func applyVerbosity(cmd *cobra.Command, cfg *config.Config) {
	if on, err := cmd.Flags().GetBool(flagVerbose); err == nil && on {
		cfg.Logging.Level = "debug"
	}

	if on, err := cmd.Flags().GetBool(flagQuiet); err == nil && on {
		cfg.Logging.Level = "error"
	}
}

func (e *env) close() {
	err := e.providers.Shutdown(context.Background())
	if err != nil {
		e.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// noOutput turns the "nothing to do" signals into a message and a clean exit.
func noOutput(w io.Writer, err error) error {
	if errors.Is(err, analyzer.ErrNothingToAnalyze) || errors.Is(err, analyzer.ErrNoResults) {
		fmt.Fprintf(w, "no output produced: %v\n", err)

		return nil
	}

	return err
}
