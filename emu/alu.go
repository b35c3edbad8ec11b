package emu

import (
	"fmt"
	"math"
	"strings"

	"github.com/sarchlab/tomasim/insts"
)

// NormalizeImm masks an immediate to 16 bits. overflow reports that imm was
// outside [-0x8000, 0xFFFF] and lost bits; the masked value is still used.
func NormalizeImm(imm int64) (masked uint16, overflow bool) {
	return uint16(imm & 0xFFFF), imm > 0xFFFF || imm < -0x8000
}

// SignExtend16 sign-extends a 16-bit value from bit 15.
func SignExtend16(v uint16) int64 {
	return int64(int16(v))
}

// Imm16 applies the immediate policy: mask to 16 bits, then sign-extend.
func Imm16(imm int64) (int64, bool) {
	masked, overflow := NormalizeImm(imm)
	return SignExtend16(masked), overflow
}

// ALU implements the integer operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADD performs xd = xs1 + xs2.
func (a *ALU) ADD(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)+a.regFile.ReadReg(rs2))
}

// SUB performs xd = xs1 - xs2.
func (a *ALU) SUB(rd, rs1, rs2 uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)-a.regFile.ReadReg(rs2))
}

// ADDI performs xd = xs1 + sext(imm[15:0]). It returns true if imm
// overflowed 16 bits. Writes to x0 are skipped before the immediate is
// examined.
func (a *ALU) ADDI(rd, rs1 uint8, imm int64) bool {
	if rd == 0 {
		return false
	}
	v, overflow := Imm16(imm)
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)+v)
	return overflow
}

// SUBI performs xd = xs1 - sext(imm[15:0]).
func (a *ALU) SUBI(rd, rs1 uint8, imm int64) bool {
	if rd == 0 {
		return false
	}
	v, overflow := Imm16(imm)
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs1)-v)
	return overflow
}

// ExecInteger executes an integer instruction against the register file.
// Recoverable anomalies come back as warnings. A non-numeric addi/subi
// immediate returns an error wrapping ErrImmediateNotNumber.
func (a *ALU) ExecInteger(inst *insts.Instruction) ([]Warning, error) {
	if inst.Op.HasImmediate() {
		imm := inst.Operand(2)
		if imm.Kind != insts.OperandImmediate {
			return nil, fmt.Errorf("%s [line %d] %q: %w",
				strings.ToUpper(inst.Op.String()), inst.Line(), imm.Text, ErrImmediateNotNumber)
		}
	}

	rd, ok1 := inst.Operand(0).IntReg()
	rs1, ok2 := inst.Operand(1).IntReg()
	if !ok1 || !ok2 {
		return []Warning{badOperand(inst)}, nil
	}

	switch inst.Op {
	case insts.OpADD, insts.OpSUB:
		rs2, ok := inst.Operand(2).IntReg()
		if !ok {
			return []Warning{badOperand(inst)}, nil
		}
		if inst.Op == insts.OpADD {
			a.ADD(rd.Index, rs1.Index, rs2.Index)
		} else {
			a.SUB(rd.Index, rs1.Index, rs2.Index)
		}
	case insts.OpADDI, insts.OpSUBI:
		imm := inst.Operand(2)
		var overflow bool
		if inst.Op == insts.OpADDI {
			overflow = a.ADDI(rd.Index, rs1.Index, imm.Imm)
		} else {
			overflow = a.SUBI(rd.Index, rs1.Index, imm.Imm)
		}
		if overflow || (imm.Wide && rd.Index != 0) {
			return []Warning{newWarning(WarnImmediateOverflow, inst, imm.Text)}, nil
		}
	default:
		return nil, fmt.Errorf("%s is not an integer instruction", inst.Op)
	}

	return nil, nil
}

// FloatOp applies a two-source floating-point opcode. Division by zero
// yields the IEEE infinity or NaN. ok is false for other opcodes.
func FloatOp(op insts.Op, a, b float64) (result float64, ok bool) {
	switch op {
	case insts.OpFADD:
		return a + b, true
	case insts.OpFSUB:
		return a - b, true
	case insts.OpFMUL:
		return a * b, true
	case insts.OpFDIV:
		return a / b, true
	default:
		return math.NaN(), false
	}
}
