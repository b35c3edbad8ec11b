package emu

import (
	"fmt"

	"github.com/sarchlab/tomasim/insts"
)

// LoadStoreUnit implements fld/fsd addressing and memory access.
type LoadStoreUnit struct {
	regFile       *RegFile
	memory        *Memory
	unmappedValue float64
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory. Loads of unwritten addresses return
// unmappedValue.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory, unmappedValue float64) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile:       regFile,
		memory:        memory,
		unmappedValue: unmappedValue,
	}
}

// Memory returns the memory the unit accesses.
func (lsu *LoadStoreUnit) Memory() *Memory {
	return lsu.memory
}

// EffectiveAddress returns xbase + sext(disp[15:0]) and whether disp
// overflowed 16 bits.
func (lsu *LoadStoreUnit) EffectiveAddress(disp int64, base uint8) (int64, bool) {
	off, overflow := Imm16(disp)
	return lsu.regFile.ReadReg(base) + off, overflow
}

// Load reads addr. mapped is false if the address was never written, in
// which case the unmapped value is returned.
func (lsu *LoadStoreUnit) Load(addr int64) (value float64, mapped bool) {
	v, ok := lsu.memory.Read(addr)
	if !ok {
		return lsu.unmappedValue, false
	}
	return v, true
}

// Store writes value to addr. It returns false if the address is out of
// range and the store was dropped.
func (lsu *LoadStoreUnit) Store(addr int64, value float64) bool {
	return lsu.memory.Write(addr, value)
}

// MemoryAccess is the outcome of resolving an fld/fsd address operand.
type MemoryAccess struct {
	Addr     int64
	Warnings []Warning
	OK       bool
}

// Resolve computes the effective address of the memory operand of inst.
// OK is false when the operand is not of the disp(base) form.
func (lsu *LoadStoreUnit) Resolve(inst *insts.Instruction) MemoryAccess {
	operand := inst.Operand(1)
	disp, base, ok := operand.Memory()
	if !ok {
		return MemoryAccess{Warnings: []Warning{badOperand(inst)}}
	}

	addr, overflow := lsu.EffectiveAddress(disp, base.Index)
	acc := MemoryAccess{Addr: addr, OK: true}
	switch {
	case operand.Wide:
		acc.Warnings = append(acc.Warnings, newWarning(WarnImmediateOverflow, inst, operand.Text))
	case overflow:
		acc.Warnings = append(acc.Warnings, newWarning(WarnImmediateOverflow, inst, fmt.Sprint(disp)))
	}
	return acc
}

// LoadWarning builds the unmapped-read warning for inst at addr.
func LoadWarning(inst *insts.Instruction, addr int64) Warning {
	return newWarning(WarnUnmappedRead, inst, fmt.Sprintf("%s (address %d)", inst.Text, addr))
}

// StoreWarning builds the store-out-of-range warning for inst at addr.
func StoreWarning(inst *insts.Instruction, addr int64) Warning {
	return newWarning(WarnStoreOutOfRange, inst, fmt.Sprintf("%s (address %d)", inst.Text, addr))
}

// UnknownOpcodeWarning builds the unknown-opcode warning for inst.
func UnknownOpcodeWarning(inst *insts.Instruction) Warning {
	return newWarning(WarnUnknownOpcode, inst, inst.Text)
}

// BadOperandWarning builds the bad-operand warning for inst.
func BadOperandWarning(inst *insts.Instruction) Warning {
	return badOperand(inst)
}
