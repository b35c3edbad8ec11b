package emu

import (
	"fmt"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/loader"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program counter ran past the last instruction.
	Exited bool

	// Err is set if a fatal error occurred during execution.
	Err error
}

// Emulator executes a program strictly in order, one instruction per step,
// with no timing. It shares its arithmetic with the timing pipeline and
// serves as the architectural reference for it.
type Emulator struct {
	regFile   *RegFile
	fpRegFile *FloatRegFile
	memory    *Memory
	decoder   *insts.Decoder

	alu *ALU
	lsu *LoadStoreUnit

	program  *loader.Program
	pc       uint64
	warnings []Warning

	unmappedValue    float64
	warnUnmapped     bool
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory sets the memory the emulator starts from.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithUnmappedValue sets the value returned by loads of unwritten
// addresses.
func WithUnmappedValue(v float64) EmulatorOption {
	return func(e *Emulator) {
		e.unmappedValue = v
	}
}

// WithUnmappedReadWarning enables a warning on loads of unwritten
// addresses.
func WithUnmappedReadWarning(enabled bool) EmulatorOption {
	return func(e *Emulator) {
		e.warnUnmapped = enabled
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new functional emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile:       &RegFile{},
		fpRegFile:     &FloatRegFile{},
		decoder:       insts.NewDecoder(),
		unmappedValue: DefaultUnmappedValue,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = NewMemory(DefaultMemoryLimit)
	}

	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory, e.unmappedValue)

	return e
}

// RegFile returns the integer register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// FloatRegFile returns the floating-point register file.
func (e *Emulator) FloatRegFile() *FloatRegFile {
	return e.fpRegFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the program counter.
func (e *Emulator) PC() uint64 {
	return e.pc
}

// Warnings returns the warnings raised so far.
func (e *Emulator) Warnings() []Warning {
	return append([]Warning(nil), e.warnings...)
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram installs a program and resets the program counter.
func (e *Emulator) LoadProgram(prog *loader.Program) {
	e.program = prog
	e.pc = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.program == nil || e.pc/insts.InstructionWidth >= uint64(e.program.Len()) {
		return StepResult{Exited: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("max instructions reached")}
	}

	line := e.program.Lines[e.pc/insts.InstructionWidth]
	inst := e.decoder.Decode(line.Text, e.pc)

	if err := e.execute(inst); err != nil {
		return StepResult{Err: err}
	}

	e.pc += insts.InstructionWidth
	e.instructionCount++

	return StepResult{}
}

// Run executes instructions until the program ends or an error occurs.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Exited {
			return nil
		}
	}
}

// execute dispatches and executes a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) error {
	switch {
	case inst.Op.IsInteger():
		warnings, err := e.alu.ExecInteger(inst)
		if err != nil {
			return err
		}
		e.warnings = append(e.warnings, warnings...)

	case inst.Op.IsFloatArith():
		fd, ok1 := inst.Operand(0).FloatReg()
		fs1, ok2 := inst.Operand(1).FloatReg()
		fs2, ok3 := inst.Operand(2).FloatReg()
		if !ok1 || !ok2 || !ok3 {
			e.warnings = append(e.warnings, BadOperandWarning(inst))
			return nil
		}
		v, _ := FloatOp(inst.Op, e.fpRegFile.ReadValue(fs1.Index), e.fpRegFile.ReadValue(fs2.Index))
		e.fpRegFile.WriteValue(fd.Index, v)

	case inst.Op == insts.OpFLD, inst.Op == insts.OpFSD:
		e.executeMemory(inst)

	default:
		e.warnings = append(e.warnings, UnknownOpcodeWarning(inst))
	}

	return nil
}

func (e *Emulator) executeMemory(inst *insts.Instruction) {
	freg, ok := inst.Operand(0).FloatReg()
	acc := e.lsu.Resolve(inst)
	e.warnings = append(e.warnings, acc.Warnings...)
	if !ok {
		e.warnings = append(e.warnings, BadOperandWarning(inst))
		return
	}
	if !acc.OK {
		return
	}

	if inst.Op == insts.OpFLD {
		v, mapped := e.lsu.Load(acc.Addr)
		if !mapped && e.warnUnmapped {
			e.warnings = append(e.warnings, LoadWarning(inst, acc.Addr))
		}
		e.fpRegFile.WriteValue(freg.Index, v)
		return
	}

	if !e.lsu.Store(acc.Addr, e.fpRegFile.ReadValue(freg.Index)) {
		e.warnings = append(e.warnings, StoreWarning(inst, acc.Addr))
	}
}
