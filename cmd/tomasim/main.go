// Command tomasim runs assembly programs on a Tomasulo-scheduled floating
// point core and reports cycle-level timing.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
	logOutput  io.Writer
}

func (o *rootOptions) logger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(o.logOutput)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logOutput: os.Stderr}

	rootCmd := &cobra.Command{
		Use:           "tomasim",
		Short:         "Tomasulo scheduler simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logOutput = cmd.ErrOrStderr()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Configuration file with timing, machine and dcache sections (.yaml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every pipeline event")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newDebugCmd(opts),
		newBenchCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
