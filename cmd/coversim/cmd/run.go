package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ContinueOnError bool
	ShowBalances    bool
}

// NewRunCmd creates the run command.
func NewRunCmd(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario",
		Long: `Execute a scenario and print one line per step.

A step fails when it returns an error it did not declare with expect_error,
when a declared error does not occur, or when an invariant breaks.

Examples:
  coversim run scenarios/binance.yaml
  coversim run scenarios/binance.yaml --continue-on-error --log-level info`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "keep executing after a failed step")
	cmd.Flags().BoolVar(&opts.ShowBalances, "balances", true, "print account balances after the run")
	return cmd
}

func runScenario(cmd *cobra.Command, opts *RunOptions, path string) error {
	scenario, err := LoadScenario(path)
	if err != nil {
		return err
	}
	logger, err := newLogger(opts.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))

	runner, err := NewRunner(scenario, logger, out)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer runner.App().Close()
	runner.ContinueOnError = opts.ContinueOnError

	_, runErr := runner.Run()
	if opts.ShowBalances {
		fmt.Fprintln(out, "balances:")
		runner.PrintBalances(scenario.Denoms()...)
	}
	return runErr
}
