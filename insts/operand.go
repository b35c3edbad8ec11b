package insts

import (
	"fmt"
	"strconv"
)

// RegKind distinguishes the two register files.
type RegKind uint8

// Register kinds.
const (
	RegInt RegKind = iota
	RegFloat
)

// NumRegs is the number of registers in each register file.
const NumRegs = 32

// Reg names one architectural register.
type Reg struct {
	Kind  RegKind
	Index uint8
}

// String returns the assembly name, e.g. "x3" or "f12".
func (r Reg) String() string {
	if r.Kind == RegFloat {
		return fmt.Sprintf("f%d", r.Index)
	}
	return fmt.Sprintf("x%d", r.Index)
}

// IsInt returns true for an integer register.
func (r Reg) IsInt() bool { return r.Kind == RegInt }

// IsFloat returns true for a floating-point register.
func (r Reg) IsFloat() bool { return r.Kind == RegFloat }

// ParseReg parses "x0".."x31" or "f0".."f31".
func ParseReg(s string) (Reg, bool) {
	if len(s) < 2 {
		return Reg{}, false
	}

	var kind RegKind
	switch s[0] {
	case 'x':
		kind = RegInt
	case 'f':
		kind = RegFloat
	default:
		return Reg{}, false
	}

	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return Reg{}, false
		}
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n >= NumRegs {
		return Reg{}, false
	}

	return Reg{Kind: kind, Index: uint8(n)}, true
}

// OperandKind is the variant tag of an Operand.
type OperandKind uint8

// Operand variants. The zero value OperandNone marks a missing operand.
const (
	OperandNone OperandKind = iota
	OperandRegister
	OperandImmediate
	OperandMemory
	OperandSymbol // bare token that is neither a register nor imm(base)
)

// String returns the variant name.
func (k OperandKind) String() string {
	switch k {
	case OperandRegister:
		return "register"
	case OperandImmediate:
		return "immediate"
	case OperandMemory:
		return "memory"
	case OperandSymbol:
		return "symbol"
	default:
		return "none"
	}
}

// Operand is a decoded operand. Which fields are meaningful depends on Kind:
//   - OperandRegister: Reg
//   - OperandImmediate: Imm
//   - OperandMemory: Imm (displacement) and Reg (base)
//   - OperandSymbol: Text only
//
// Text always holds the trimmed source token. Wide marks a literal too
// large for int64; Imm then holds it reduced modulo 2^16.
type Operand struct {
	Kind OperandKind
	Reg  Reg
	Imm  int64
	Wide bool
	Text string
}

// String returns the source token.
func (o Operand) String() string {
	return o.Text
}

// IntReg returns the register if the operand is an integer register.
func (o Operand) IntReg() (Reg, bool) {
	if o.Kind == OperandRegister && o.Reg.IsInt() {
		return o.Reg, true
	}
	return Reg{}, false
}

// FloatReg returns the register if the operand is a floating-point register.
func (o Operand) FloatReg() (Reg, bool) {
	if o.Kind == OperandRegister && o.Reg.IsFloat() {
		return o.Reg, true
	}
	return Reg{}, false
}

// Memory returns the displacement and base register of a memory operand.
func (o Operand) Memory() (int64, Reg, bool) {
	if o.Kind == OperandMemory {
		return o.Imm, o.Reg, true
	}
	return 0, Reg{}, false
}
