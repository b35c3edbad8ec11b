// Package benchmarks provides kernel programs and a harness that runs them
// on the Tomasulo core and reports timing.
package benchmarks

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of structural stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// DataHazards is the number of cycles spent waiting on operand tags
	DataHazards uint64 `json:"data_hazards"`

	// Warnings is the number of warnings raised
	Warnings int `json:"warnings"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`
	// DCacheWritebacks counts dirty lines, including those flushed at halt
	DCacheWritebacks uint64 `json:"dcache_writebacks,omitempty"`

	// Correct is true if the expected values and the functional emulator
	// agree with the timing run
	Correct bool `json:"correct"`

	// Mismatches lists every disagreement found
	Mismatches []string `json:"mismatches,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly program
	Source string

	// Setup prepares the initial machine state (memory image, registers)
	Setup func(config *pipeline.MachineConfig)

	// ExpectedFloat holds floating-point register values checked after the run
	ExpectedFloat map[uint8]float64

	// ExpectedMemory holds memory values checked after the run
	ExpectedMemory map[int64]float64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// Timing overrides the default latencies
	Timing *latency.TimingConfig

	// Parallelism is the number of benchmarks run at once (default: NumCPU)
	Parallelism int

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: false,
		Parallelism:  runtime.NumCPU(),
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Parallelism <= 0 {
		config.Parallelism = runtime.NumCPU()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks, each on its own core, and returns results
// in the order the benchmarks were added.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, len(h.benchmarks))

	var g errgroup.Group
	g.SetLimit(h.config.Parallelism)

	for i, bench := range h.benchmarks {
		g.Go(func() error {
			result, err := h.runBenchmark(bench)
			if err != nil {
				return fmt.Errorf("benchmark %s: %w", bench.Name, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (h *Harness) machineConfig(bench Benchmark) *pipeline.MachineConfig {
	config := pipeline.DefaultMachineConfig()
	if bench.Setup != nil {
		bench.Setup(config)
	}
	return config
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	machine := h.machineConfig(bench)
	prog := loader.Parse(bench.Name, bench.Source)

	opts := []pipeline.PipelineOption{pipeline.WithMachineConfig(machine)}
	if h.config.Timing != nil {
		opts = append(opts, pipeline.WithLatencyTable(latency.NewTableWithConfig(h.config.Timing)))
	}
	if h.config.EnableDCache {
		opts = append(opts, pipeline.WithDCache(cache.DefaultL1DConfig()))
	}

	c, err := core.NewCoreFromProgram(prog, opts...)
	if err != nil {
		return BenchmarkResult{}, err
	}

	// Run simulation and measure time
	start := time.Now()
	if err := c.Run(); err != nil {
		return BenchmarkResult{}, err
	}
	wallTime := time.Since(start)

	// Collect statistics
	stats := c.Stats()
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		StallCycles:         stats.Stalls,
		DataHazards:         stats.DataHazards,
		Warnings:            stats.Warnings,
		WallTime:            wallTime,
	}

	if c.Pipeline.UseDCache() {
		dcStats := c.Pipeline.FlushDCache()
		result.DCacheHits = dcStats.Hits
		result.DCacheMisses = dcStats.Misses
		result.DCacheWritebacks = dcStats.Writebacks
	}

	result.Mismatches = h.check(bench, machine, prog, c.Pipeline)
	result.Correct = len(result.Mismatches) == 0

	return result, nil
}

// check compares the final state with the expected values and with an
// in-order run of the same program on the functional emulator.
func (h *Harness) check(
	bench Benchmark,
	machine *pipeline.MachineConfig,
	prog *loader.Program,
	pipe *pipeline.Pipeline,
) []string {
	var mismatches []string

	for reg, want := range bench.ExpectedFloat {
		if got := pipe.FloatRegister(reg).Value; got != want {
			mismatches = append(mismatches, fmt.Sprintf("f%d = %v, want %v", reg, got, want))
		}
	}
	for addr, want := range bench.ExpectedMemory {
		if got, _ := pipe.ReadMemory(addr); got != want {
			mismatches = append(mismatches, fmt.Sprintf("mem[%d] = %v, want %v", addr, got, want))
		}
	}

	ref := referenceRun(machine, prog)
	if ref == nil {
		return append(mismatches, "functional emulator failed")
	}

	for i := uint8(0); i < 32; i++ {
		if got, want := pipe.FloatRegister(i).Value, ref.FloatRegFile().ReadValue(i); got != want {
			mismatches = append(mismatches, fmt.Sprintf("f%d = %v, emulator has %v", i, got, want))
		}
		if got, want := pipe.IntRegister(i), ref.RegFile().ReadReg(i); got != want {
			mismatches = append(mismatches, fmt.Sprintf("x%d = %d, emulator has %d", i, got, want))
		}
	}
	for _, cell := range ref.Memory().Cells() {
		if got, _ := pipe.ReadMemory(cell.Addr); got != cell.Value {
			mismatches = append(mismatches,
				fmt.Sprintf("mem[%d] = %v, emulator has %v", cell.Addr, got, cell.Value))
		}
	}

	return mismatches
}

// referenceRun executes prog in order from the same initial state.
func referenceRun(machine *pipeline.MachineConfig, prog *loader.Program) *emu.Emulator {
	e := machine.NewEmulator()
	e.LoadProgram(prog)
	if err := e.Run(); err != nil {
		return nil
	}
	return e
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Tomasulo Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Correct: %v\n", r.Correct)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Hazards:         %d\n", r.DataHazards)
		if r.Warnings > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Warnings:             %d\n", r.Warnings)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
			_, _ = fmt.Fprintf(h.config.Output, "  Writebacks: %d\n", r.DCacheWritebacks)
		}

		if h.config.Verbose {
			for _, m := range r.Mismatches {
				_, _ = fmt.Fprintf(h.config.Output, "  Mismatch: %s\n", m)
			}
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,data_hazards,warnings,dcache_hits,dcache_misses,correct")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%v\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.DataHazards,
			r.Warnings,
			r.DCacheHits,
			r.DCacheMisses,
			r.Correct,
		)
	}
}
