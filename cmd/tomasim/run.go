package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// runOptions are the flags of the run command.
type runOptions struct {
	trace      bool
	functional bool
	jsonOut    bool
	dcache     bool
	maxCycles  uint64
	jobs       int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [program.s...]",
		Short: "Run programs to completion and print the final machine state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadSimConfig(root.configPath)
			if err != nil {
				return err
			}

			return runPrograms(cmd.OutOrStdout(), args, config, opts, root.logger())
		},
	}

	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print stations and in-flight instructions every cycle")
	cmd.Flags().BoolVar(&opts.functional, "functional", false, "Run on the in-order functional emulator")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the final state as JSON")
	cmd.Flags().BoolVar(&opts.dcache, "dcache", false, "Enable the default L1 data cache")
	cmd.Flags().Uint64Var(&opts.maxCycles, "max-cycles", 0, "Stop after this many cycles (0 = no limit)")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "Programs run at once (0 = one per program)")

	return cmd
}

// runPrograms runs every program on its own core. Output is buffered per
// program and written in argument order.
func runPrograms(
	w io.Writer,
	paths []string,
	config *simConfig,
	opts *runOptions,
	logger logrus.FieldLogger,
) error {
	outputs := make([]bytes.Buffer, len(paths))

	var g errgroup.Group
	if opts.jobs > 0 {
		g.SetLimit(opts.jobs)
	}

	for i, path := range paths {
		g.Go(func() error {
			return runProgram(&outputs[i], path, config, opts, logger.WithField("program", path))
		})
	}
	err := g.Wait()

	for i := range outputs {
		if len(paths) > 1 && !opts.jsonOut {
			_, _ = fmt.Fprintf(w, "--- %s ---\n", paths[i])
		}
		_, _ = outputs[i].WriteTo(w)
	}

	return err
}

func runProgram(
	w io.Writer,
	path string,
	config *simConfig,
	opts *runOptions,
	logger logrus.FieldLogger,
) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}

	if opts.functional {
		return runFunctional(w, prog, config)
	}

	pipeOpts := config.options(opts.dcache, logger)
	if opts.maxCycles > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithMaxCycles(opts.maxCycles))
	}

	c, err := core.NewCoreFromProgram(prog, pipeOpts...)
	if err != nil {
		return err
	}

	runErr := runCore(w, c, opts.trace && !opts.jsonOut, opts.maxCycles)

	var dcache *cache.Statistics
	if c.Pipeline.UseDCache() && c.Pipeline.Halted() {
		stats := c.Pipeline.FlushDCache()
		dcache = &stats
	}

	if opts.jsonOut {
		if err := writeJSON(w, runResult{State: c.State(), DCache: dcache}); err != nil {
			return err
		}
	} else {
		printFinal(w, prog.Name, c.State())
		printDCache(w, dcache)
	}

	if runErr != nil {
		return fmt.Errorf("%s: %w", path, runErr)
	}
	return nil
}

// runResult is the JSON output of one program.
type runResult struct {
	core.State
	DCache *cache.Statistics `json:"dcache,omitempty"`
}

// runCore ticks c until it halts, optionally printing every cycle.
func runCore(w io.Writer, c *core.Core, trace bool, maxCycles uint64) error {
	if !trace {
		return c.Run()
	}

	for {
		before := c.Pipeline.Cycle()
		status, err := c.Step()
		if c.Pipeline.Cycle() != before {
			printCycle(w, c.State())
		}
		if err != nil {
			return err
		}
		if status == pipeline.StatusHalted {
			return nil
		}
		if maxCycles > 0 && c.Pipeline.Cycle() >= maxCycles {
			return fmt.Errorf("%w after %d cycles", pipeline.ErrCycleLimit, c.Pipeline.Cycle())
		}
	}
}

func runFunctional(w io.Writer, prog *loader.Program, config *simConfig) error {
	e := config.Machine.NewEmulator()
	e.LoadProgram(prog)
	runErr := e.Run()

	printFunctional(w, prog.Name, e)

	if runErr != nil {
		return fmt.Errorf("%s: %w", prog.Name, runErr)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return nil
}

// exitCode maps a command error to a process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrImmediateNotNumber):
		return 2
	case errors.Is(err, pipeline.ErrCycleLimit):
		return 3
	default:
		return 1
	}
}
