package cmd

import (
	"io"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
)

// RootOptions holds the persistent flags.
type RootOptions struct {
	LogLevel string
}

// NewRootCmd creates the coversim root command.
func NewRootCmd() *cobra.Command {
	opts := &RootOptions{}

	rootCmd := &cobra.Command{
		Use:   "coversim",
		Short: "Run cover protocol scenarios against an in-process chain",
		Long: `coversim builds the protocol keepers over an in-memory store, loads a
YAML scenario's genesis and executes its steps block by block, checking every
module invariant after each step.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "error", `log level, e.g. "info" or "x/claims:debug,*:error"`)

	rootCmd.AddCommand(
		NewRunCmd(opts),
		NewValidateCmd(),
	)
	return rootCmd
}

func newLogger(level string, out io.Writer) (log.Logger, error) {
	filter, err := log.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewLogger(out, log.FilterOption(filter), log.ColorOption(false)), nil
}
