package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/featstat/internal/analyzer"
	"github.com/Sumatoshi-tech/featstat/internal/report"
	"github.com/Sumatoshi-tech/featstat/pkg/config"
	"github.com/Sumatoshi-tech/featstat/pkg/statistics"
)

const (
	flagRepoCount      = "repo-count"
	flagWorkers        = "workers"
	flagSameSampleSize = "same-sample-size"
)

// AnalyzeCommand holds the flags of the analyze command.
type AnalyzeCommand struct {
	configPath     string
	repoCount      int
	workers        int
	sameSampleSize bool
	summary        bool
	noColor        bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate result files and test every feature",
		Long: `Discover <base_path>/<results_dir>/<owner>/<repo>/ result files, aggregate them
into the nodes, spaces and units experiments, write the aggregates, then run
the Mann-Whitney U tests and the Bonferroni correction.`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	registerConfigFlag(cmd, &ac.configPath)
	cmd.Flags().IntVarP(&ac.repoCount, flagRepoCount, "n", 0, "Number of repositories to analyze (0 = all)")
	cmd.Flags().IntVarP(&ac.workers, flagWorkers, "w", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().BoolVar(&ac.sameSampleSize, flagSameSampleSize, false, "Also test samples subsampled to equal size")
	cmd.Flags().BoolVar(&ac.summary, "summary", false, "Print the corrected test outcomes")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (ac *AnalyzeCommand) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed(flagRepoCount) {
		cfg.Analysis.RepoCount = ac.repoCount
	}

	if cmd.Flags().Changed(flagWorkers) {
		cfg.Analysis.Workers = ac.workers
	}

	if cmd.Flags().Changed(flagSameSampleSize) {
		cfg.Analysis.SameSampleSize = ac.sameSampleSize
	}
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd, ac.configPath, ac.apply)
	if err != nil {
		return err
	}
	defer e.close()

	rep, err := e.analyzer.Run(cmd.Context())
	if err != nil {
		return noOutput(cmd.OutOrStdout(), err)
	}

	out := cmd.OutOrStdout()

	printSummary(out, rep)

	if !ac.summary {
		return nil
	}

	return renderSummary(out, rep.Results, e.cfg.Analysis, !ac.noColor)
}

// renderSummary shows the full-sample test and, when it was run, the
// same-sample-size test.
func renderSummary(w io.Writer, results *statistics.Results, analysis config.AnalysisConfig, colored bool) error {
	tests := []string{statistics.TestMannWhitneyU}
	if analysis.SameSampleSize {
		tests = append(tests, statistics.TestMannWhitneyUSameSampleSize)
	}

	for _, test := range tests {
		formatter := report.NewFormatter(report.Config{Test: test, Alpha: analysis.Alpha, Color: colored})

		err := formatter.Render(w, results)
		if err != nil {
			return err
		}
	}

	return nil
}

func printSummary(w io.Writer, rep *analyzer.Report) {
	fmt.Fprintf(w, "run %s: %s files, %s aggregated, %s skipped in %s\n",
		rep.RunID,
		humanize.Comma(int64(rep.Summary.Files)),
		humanize.Comma(int64(rep.Summary.Processed)),
		humanize.Comma(int64(rep.Summary.Skipped)),
		rep.Summary.Duration.Round(1e6),
	)
	fmt.Fprintf(w, "outputs written to %s\n", rep.OutputDir)
}
