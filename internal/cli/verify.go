package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fireatlas/dataswale/internal/harness"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Update bool   // rewrite golden snapshots
	Filter string // scenario filter (glob pattern)
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <scenarios-dir>",
		Short: "Run scenario documents against the engine",
		Long: `Execute every scenario document under a directory against a
throwaway atlas, checking its assertions. Golden-flagged scenarios also
compare the final on-disk state against the snapshot stored beside them.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  dataswale verify ./scenarios
  dataswale verify ./scenarios --filter "vector_*"
  dataswale verify ./scenarios --update
  dataswale verify ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden snapshots")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runVerify(opts *VerifyOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitUsageError, fmt.Sprintf("scenario directory not found: %s", dir))
	}

	suite, err := harness.RunSuite(dir, harness.SuiteOptions{
		Filter: opts.Filter,
		Update: opts.Update,
	})
	if err != nil {
		return WrapExitError(ExitUsageError, "run scenarios", err)
	}

	if opts.Format == "json" {
		return outputVerifyJSON(cmd, suite)
	}
	return outputVerifyText(cmd, suite)
}

// outputVerifyJSON emits the suite result in the standard envelope, then
// maps scenario failures to exit code 1.
func outputVerifyJSON(cmd *cobra.Command, suite *harness.SuiteResult) error {
	resp := Response{Status: "ok", Data: suite}
	if suite.Failed > 0 {
		resp.Status = "error"
		resp.Error = fmt.Sprintf("%d scenario(s) failed", suite.Failed)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	return nil
}

// outputVerifyText prints each failure and a one-line summary.
func outputVerifyText(cmd *cobra.Command, suite *harness.SuiteResult) error {
	w := cmd.OutOrStdout()

	if suite.TotalScenarios == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, f := range suite.Failures {
		fmt.Fprintf(w, "✗ %s\n", f.Name)
		fmt.Fprintf(w, "  %s\n", f.Error)
	}

	fmt.Fprintf(w, "Scenario summary: %d passed, %d failed, %d total\n",
		suite.Passed, suite.Failed, suite.TotalScenarios)

	if suite.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", suite.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
