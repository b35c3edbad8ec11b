package insts

// Op represents an opcode of the supported subset.
type Op uint8

// Supported opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpADDI
	OpSUB
	OpSUBI
	OpFLD
	OpFSD
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
)

var mnemonics = map[string]Op{
	"add":  OpADD,
	"addi": OpADDI,
	"sub":  OpSUB,
	"subi": OpSUBI,
	"fld":  OpFLD,
	"fsd":  OpFSD,
	"fadd": OpFADD,
	"fsub": OpFSUB,
	"fmul": OpFMUL,
	"fdiv": OpFDIV,
}

// LookupOp returns the opcode for a lower-case mnemonic, or OpUnknown.
func LookupOp(mnemonic string) Op {
	if op, ok := mnemonics[mnemonic]; ok {
		return op
	}
	return OpUnknown
}

// String returns the lower-case mnemonic.
func (o Op) String() string {
	switch o {
	case OpADD:
		return "add"
	case OpADDI:
		return "addi"
	case OpSUB:
		return "sub"
	case OpSUBI:
		return "subi"
	case OpFLD:
		return "fld"
	case OpFSD:
		return "fsd"
	case OpFADD:
		return "fadd"
	case OpFSUB:
		return "fsub"
	case OpFMUL:
		return "fmul"
	case OpFDIV:
		return "fdiv"
	default:
		return "unknown"
	}
}

// Class is the functional-unit class an opcode executes on.
type Class uint8

// Functional-unit classes. Only ClassLoadStore, ClassAdd and ClassMul own
// reservation stations.
const (
	ClassNone Class = iota // integer and unknown opcodes, no station
	ClassLoadStore
	ClassAdd
	ClassMul
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassLoadStore:
		return "load/store"
	case ClassAdd:
		return "add"
	case ClassMul:
		return "mul"
	default:
		return "none"
	}
}

// Class returns the functional-unit class of the opcode.
func (o Op) Class() Class {
	switch o {
	case OpFLD, OpFSD:
		return ClassLoadStore
	case OpFADD, OpFSUB:
		return ClassAdd
	case OpFMUL, OpFDIV:
		return ClassMul
	default:
		return ClassNone
	}
}

// IsInteger returns true for the integer register-to-register and
// register-immediate opcodes.
func (o Op) IsInteger() bool {
	switch o {
	case OpADD, OpADDI, OpSUB, OpSUBI:
		return true
	default:
		return false
	}
}

// IsFloatArith returns true for the two-source floating-point opcodes.
func (o Op) IsFloatArith() bool {
	switch o {
	case OpFADD, OpFSUB, OpFMUL, OpFDIV:
		return true
	default:
		return false
	}
}

// HasImmediate returns true if the third operand must be an integer literal.
func (o Op) HasImmediate() bool {
	return o == OpADDI || o == OpSUBI
}

// Arity returns the operand count of the opcode, or -1 for OpUnknown.
func (o Op) Arity() int {
	switch o {
	case OpFLD, OpFSD:
		return 2
	case OpUnknown:
		return -1
	default:
		return 3
	}
}
