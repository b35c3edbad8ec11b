package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tomasim/benchmarks"
)

func newBenchCmd(root *rootOptions) *cobra.Command {
	var (
		csv      bool
		jsonOut  bool
		dcache   bool
		coreOnly bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "bench [kernel...]",
		Short: "Run the benchmark kernels and report timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadSimConfig(root.configPath)
			if err != nil {
				return err
			}

			kernels := benchmarks.GetKernels()
			if coreOnly {
				kernels = benchmarks.GetCoreKernels()
			}
			if len(args) > 0 {
				kernels = nil
				for _, name := range args {
					k, ok := benchmarks.GetKernel(name)
					if !ok {
						return fmt.Errorf("unknown kernel %q", name)
					}
					kernels = append(kernels, k)
				}
			}

			harnessConfig := benchmarks.DefaultConfig()
			harnessConfig.Output = cmd.OutOrStdout()
			harnessConfig.Timing = config.Timing
			harnessConfig.EnableDCache = dcache
			harnessConfig.Verbose = root.verbose
			if parallel > 0 {
				harnessConfig.Parallelism = parallel
			}

			harness := benchmarks.NewHarness(harnessConfig)
			harness.AddBenchmarks(kernels)

			results, err := harness.RunAll()
			if err != nil {
				return err
			}

			switch {
			case jsonOut:
				return writeJSON(cmd.OutOrStdout(), results)
			case csv:
				harness.PrintCSV(results)
			default:
				harness.PrintResults(results)
			}

			for _, r := range results {
				if !r.Correct {
					return fmt.Errorf("benchmark %s produced a wrong result", r.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&csv, "csv", false, "Print results as CSV")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&dcache, "dcache", false, "Enable the default L1 data cache")
	cmd.Flags().BoolVar(&coreOnly, "core", false, "Run only the core validation kernels")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Kernels run at once (0 = NumCPU)")

	return cmd
}

func newConfigCmd(root *rootOptions) *cobra.Command {
	var (
		out    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadSimConfig(root.configPath)
			if err != nil {
				return err
			}

			if out != "" {
				if err := config.save(out); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Written to %s\n", out)
				return nil
			}

			data, err := config.marshal(!asJSON)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the configuration to this file (.yaml or .json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")

	return cmd
}
