// Package core provides the collaborator-facing CPU core model.
// It wraps the Tomasulo pipeline to provide a high-level interface.
package core

import (
	"fmt"

	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired.
	Instructions uint64 `json:"instructions"`
	// Stalls is the number of structural stall cycles.
	Stalls uint64 `json:"stalls"`
	// DataHazards is the number of cycles instructions waited on operands.
	DataHazards uint64 `json:"data_hazards"`
	// Warnings is the number of warnings raised.
	Warnings int `json:"warnings"`
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core represents a Tomasulo CPU core built from assembly source.
type Core struct {
	// Pipeline is the underlying scheduling engine.
	Pipeline *pipeline.Pipeline
}

// NewCore creates a new Core running the given assembly source.
func NewCore(source string, opts ...pipeline.PipelineOption) (*Core, error) {
	return NewCoreFromProgram(loader.Parse("source", source), opts...)
}

// NewCoreFromProgram creates a new Core running prog.
func NewCoreFromProgram(prog *loader.Program, opts ...pipeline.PipelineOption) (*Core, error) {
	pipe, err := pipeline.NewPipeline(prog, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return &Core{Pipeline: pipe}, nil
}

// Step executes one cycle and reports whether the core is still running.
func (c *Core) Step() (pipeline.Status, error) {
	return c.Pipeline.Tick()
}

// Halted returns true if the program has run to completion.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		DataHazards:  pipeStats.DataHazards,
		Warnings:     len(c.Pipeline.Warnings()),
	}
}

// Run executes the core until it halts or faults.
func (c *Core) Run() error {
	return c.Pipeline.Run()
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	return c.Pipeline.RunCycles(cycles)
}

// Reset returns the core to its power-on state.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}

// Snapshot captures the complete machine state.
func (c *Core) Snapshot() pipeline.Snapshot {
	return c.Pipeline.Snapshot()
}

// Restore reinstates a snapshot taken from this core.
func (c *Core) Restore(snap pipeline.Snapshot) error {
	return c.Pipeline.Restore(snap)
}
