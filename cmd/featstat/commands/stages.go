package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/featstat/pkg/statistics"
)

const testName = statistics.TestMannWhitneyU

// NewTestCommand creates the test command.
func NewTestCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the statistical tests on an existing results file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, configPath, nil)
			if err != nil {
				return err
			}
			defer e.close()

			results, err := e.analyzer.RunTest(cmd.Context())
			if err != nil {
				return noOutput(cmd.OutOrStdout(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tested %d of %d feature/metric pairs\n",
				results.Count(testName), results.Size())

			return nil
		},
	}

	registerConfigFlag(cmd, &configPath)

	return cmd
}

// NewCorrectCommand creates the correct command.
func NewCorrectCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Apply the Bonferroni correction to an existing statistics file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, configPath, nil)
			if err != nil {
				return err
			}
			defer e.close()

			results, err := e.analyzer.RunCorrect(cmd.Context())
			if err != nil {
				return noOutput(cmd.OutOrStdout(), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "corrected %d p-values with factor %d\n",
				results.Count(testName), results.Size())

			return nil
		},
	}

	registerConfigFlag(cmd, &configPath)

	return cmd
}
