package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/latency"
)

// ErrImmediateNotNumber aborts a run when an addi/subi immediate is not an
// integer literal.
var ErrImmediateNotNumber = emu.ErrImmediateNotNumber

// ErrFaulted is returned by Tick once a run has been aborted. The error
// also wraps the original cause.
var ErrFaulted = errors.New("machine faulted")

// ErrCycleLimit is returned by Run when the cycle limit set with
// WithMaxCycles is reached before the machine halts.
var ErrCycleLimit = errors.New("cycle limit reached")

// Status is the outcome of one Tick.
type Status uint8

// Tick outcomes.
const (
	StatusRunning Status = iota
	StatusHalted
	StatusFaulted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusHalted:
		return "halted"
	case StatusFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Fetched is the number of instructions issued into the window.
	Fetched uint64
	// Instructions is the number of instructions completed (retired).
	Instructions uint64
	// Stalls is the number of fetch cycles lost to a structural hazard.
	Stalls uint64
	// DataHazards counts cycles an instruction waited for an operand tag.
	DataHazards uint64
	// Broadcasts is the number of source slots resolved by broadcasts.
	Broadcasts uint64
	// MemAccesses is the number of loads and stores performed.
	MemAccesses uint64
	// DCacheHits is the number of loads and stores that hit the D-cache.
	DCacheHits uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets a custom latency table for instruction timing.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithMachineConfig sets the station counts, memory model and initial
// state.
func WithMachineConfig(config *MachineConfig) PipelineOption {
	return func(p *Pipeline) {
		p.config = config.Clone()
	}
}

// WithDCache enables the L1 data cache with the given configuration. Load
// and store latencies then come from the cache.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.dcacheConfig = &config
	}
}

// WithLogger sets the logger receiving per-cycle diagnostics.
func WithLogger(logger logrus.FieldLogger) PipelineOption {
	return func(p *Pipeline) {
		p.log = logger
	}
}

// WithMaxCycles makes Run give up after the given number of cycles.
// A value of 0 means no limit.
func WithMaxCycles(max uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxCycles = max
	}
}

// machineState is everything a snapshot captures. It is owned by one
// Pipeline at a time.
type machineState struct {
	cycle uint64
	pc    uint64

	intRegs emu.RegFile
	fpRegs  emu.FloatRegFile
	memory  *emu.Memory

	stations *StationPool
	window   *Window
	dcache   *cache.Cache

	fetchLog []FetchEntry
	warnings []Warning
	stats    Statistics

	halted bool
	fault  error
}

func (s *machineState) clone() *machineState {
	c := *s
	c.memory = s.memory.Clone()
	c.stations = s.stations.Clone()
	c.window = s.window.Clone()
	if s.dcache != nil {
		c.dcache = s.dcache.Clone()
	}
	c.fetchLog = append([]FetchEntry(nil), s.fetchLog...)
	c.warnings = append([]Warning(nil), s.warnings...)
	return &c
}

// Pipeline is a single-issue Tomasulo core. Each Tick advances the machine
// by one cycle: issue countdown, fetch, execute, writeback, retire.
type Pipeline struct {
	program *loader.Program
	insts   []*insts.Instruction

	config       *MachineConfig
	latencyTable *latency.Table
	hazardUnit   *HazardUnit

	// Cached memory stage (optional)
	dcacheConfig      *cache.Config
	cachedMemoryStage *CachedMemoryStage

	state   *machineState
	initial *machineState

	alu *emu.ALU
	lsu *emu.LoadStoreUnit

	log       logrus.FieldLogger
	maxCycles uint64
}

// NewPipeline creates a pipeline ready to run prog. A nil program is
// treated as empty.
func NewPipeline(prog *loader.Program, opts ...PipelineOption) (*Pipeline, error) {
	if prog == nil {
		prog = &loader.Program{}
	}

	p := &Pipeline{
		program:      prog,
		config:       DefaultMachineConfig(),
		latencyTable: latency.NewTable(),
		hazardUnit:   NewHazardUnit(),
		log:          discardLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := p.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine config: %w", err)
	}
	if err := p.latencyTable.Config().Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}
	if p.dcacheConfig != nil {
		if err := p.dcacheConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid dcache config: %w", err)
		}
	}

	decoder := insts.NewDecoder()
	p.insts = make([]*insts.Instruction, prog.Len())
	for i, line := range prog.Lines {
		p.insts[i] = decoder.Decode(line.Text, uint64(i)*insts.InstructionWidth)
	}

	p.initial = p.newState()
	p.state = p.initial.clone()
	p.bind()

	return p, nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newState builds the power-on state from the machine config.
func (p *Pipeline) newState() *machineState {
	s := &machineState{
		memory:   emu.NewMemory(p.config.MemoryLimit),
		stations: NewStationPool(p.config),
		window:   &Window{},
	}
	if p.dcacheConfig != nil {
		s.dcache = cache.New(*p.dcacheConfig)
	}

	for addr, v := range p.config.Memory {
		s.memory.Write(addr, v)
	}
	for reg, v := range p.config.IntRegisters {
		s.intRegs.WriteReg(reg, v)
	}
	for reg, v := range p.config.FloatRegisters {
		s.fpRegs.WriteValue(reg, v)
	}

	return s
}

// bind attaches the execution units to the current state.
func (p *Pipeline) bind() {
	p.alu = emu.NewALU(&p.state.intRegs)
	p.lsu = emu.NewLoadStoreUnit(&p.state.intRegs, p.state.memory, p.config.UnmappedValue)

	p.cachedMemoryStage = nil
	if p.state.dcache != nil {
		p.cachedMemoryStage = NewCachedMemoryStage(p.state.dcache)
	}
}

// Program returns the program being run.
func (p *Pipeline) Program() *loader.Program {
	return p.program
}

// Instruction returns the decoded instruction at pc, or nil past the end.
func (p *Pipeline) Instruction(pc uint64) *insts.Instruction {
	line := pc / insts.InstructionWidth
	if line >= uint64(len(p.insts)) {
		return nil
	}
	return p.insts[line]
}

// programDone returns true if pc is past the last instruction.
func (p *Pipeline) programDone() bool {
	return p.state.pc/insts.InstructionWidth >= uint64(len(p.insts))
}

// Cycle returns the number of cycles simulated.
func (p *Pipeline) Cycle() uint64 {
	return p.state.cycle
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint64 {
	return p.state.pc
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	stats := p.state.stats
	stats.Cycles = p.state.cycle
	return stats
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.state.halted
}

// Err returns the error that aborted the run, if any.
func (p *Pipeline) Err() error {
	return p.state.fault
}

// Tick executes one cycle.
//
// The phases run in a fixed order and each sees the effects of the ones
// before it in the same cycle:
//   - issue countdown: Issued records whose issue latency ran out start
//     Executing
//   - fetch: decode the instruction at pc, bind a station or stall
//   - execute: admit records whose operands are ready, count down latency
//   - writeback: perform effects, broadcast results, free stations
//   - retire: drop retired records from the window
//
// Tick returns StatusHalted once the program is exhausted and nothing is in
// flight. Ticking a halted machine changes nothing. A fatal error aborts
// the run; the state as of the abort stays readable and later ticks return
// an error wrapping ErrFaulted.
func (p *Pipeline) Tick() (Status, error) {
	s := p.state

	if s.fault != nil {
		return StatusFaulted, fmt.Errorf("%w: %w", ErrFaulted, s.fault)
	}
	if s.halted {
		return StatusHalted, nil
	}
	if p.programDone() && s.window.Empty() {
		s.halted = true
		return StatusHalted, nil
	}

	s.cycle++

	p.tickIssue()
	p.tickFetch()
	p.tickExecute()
	if err := p.tickWriteback(); err != nil {
		s.fault = err
		p.log.WithField("cycle", s.cycle).WithError(err).Error("run aborted")
		return StatusFaulted, err
	}
	p.tickRetire()

	if p.programDone() && s.window.Empty() {
		s.halted = true
		p.log.WithField("cycle", s.cycle).Debug("halted")
		return StatusHalted, nil
	}

	return StatusRunning, nil
}

// Run executes the pipeline until it halts or faults.
func (p *Pipeline) Run() error {
	for {
		status, err := p.Tick()
		if err != nil {
			return err
		}
		if status == StatusHalted {
			return nil
		}
		if p.maxCycles > 0 && p.state.cycle >= p.maxCycles {
			return fmt.Errorf("%w after %d cycles", ErrCycleLimit, p.state.cycle)
		}
	}
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles; i++ {
		status, err := p.Tick()
		if err != nil {
			return false, err
		}
		if status == StatusHalted {
			return false, nil
		}
	}
	return !p.state.halted, nil
}

// Reset returns the machine to its power-on state.
func (p *Pipeline) Reset() {
	p.state = p.initial.clone()
	p.bind()
}

// LatencyTable returns the latency table used for instruction timing.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.latencyTable
}

// MachineConfig returns a copy of the machine configuration.
func (p *Pipeline) MachineConfig() *MachineConfig {
	return p.config.Clone()
}

// UseDCache returns whether D-cache is enabled.
func (p *Pipeline) UseDCache() bool {
	return p.cachedMemoryStage != nil
}

// DCacheStats returns D-cache statistics (zero if not enabled).
func (p *Pipeline) DCacheStats() cache.Statistics {
	if p.cachedMemoryStage != nil {
		return p.cachedMemoryStage.CacheStats()
	}
	return cache.Statistics{}
}

// FlushDCache writes back every dirty line, empties the D-cache and returns
// the statistics including those writebacks. It only affects timing state.
func (p *Pipeline) FlushDCache() cache.Statistics {
	if p.cachedMemoryStage == nil {
		return cache.Statistics{}
	}
	p.cachedMemoryStage.Flush()
	return p.cachedMemoryStage.CacheStats()
}
