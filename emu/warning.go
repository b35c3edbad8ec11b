package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomasim/insts"
)

// ErrImmediateNotNumber is returned when an addi/subi immediate operand is
// not an integer literal. It aborts the run.
var ErrImmediateNotNumber = errors.New("immediate is not a number")

// WarningKind classifies a recoverable anomaly.
type WarningKind uint8

// Recoverable anomalies. Execution always continues with a fallback.
const (
	WarnImmediateOverflow WarningKind = iota // immediate truncated to 16 bits
	WarnUnknownOpcode                        // writeback is a no-op
	WarnUnmappedRead                         // load returns the unmapped value
	WarnBadOperand                           // operand of the wrong kind, no-op
	WarnStoreOutOfRange                      // store dropped
)

// String returns the kind's short name.
func (k WarningKind) String() string {
	switch k {
	case WarnImmediateOverflow:
		return "immediate-overflow"
	case WarnUnknownOpcode:
		return "unknown-opcode"
	case WarnUnmappedRead:
		return "unmapped-read"
	case WarnBadOperand:
		return "bad-operand"
	case WarnStoreOutOfRange:
		return "store-out-of-range"
	default:
		return "warning"
	}
}

// Warning records one recoverable anomaly raised by an instruction.
type Warning struct {
	Kind WarningKind
	// Line is the zero-based instruction index (PC / 4).
	Line uint64
	// Detail is the offending value or the instruction text.
	Detail string
}

// String formats the warning for display.
func (w Warning) String() string {
	switch w.Kind {
	case WarnImmediateOverflow:
		return fmt.Sprintf("WARN: Immediate more than 16 bits [line %d]: %s", w.Line, w.Detail)
	case WarnUnknownOpcode:
		return fmt.Sprintf("WARN: Unknown instruction [line %d]: %s", w.Line, w.Detail)
	case WarnUnmappedRead:
		return fmt.Sprintf("WARN: Read of unmapped address [line %d]: %s", w.Line, w.Detail)
	case WarnBadOperand:
		return fmt.Sprintf("WARN: Bad operand [line %d]: %s", w.Line, w.Detail)
	case WarnStoreOutOfRange:
		return fmt.Sprintf("WARN: Store out of range [line %d]: %s", w.Line, w.Detail)
	default:
		return fmt.Sprintf("WARN: [line %d]: %s", w.Line, w.Detail)
	}
}

func newWarning(kind WarningKind, inst *insts.Instruction, detail string) Warning {
	return Warning{Kind: kind, Line: inst.Line(), Detail: detail}
}

func badOperand(inst *insts.Instruction) Warning {
	return newWarning(WarnBadOperand, inst, inst.Text)
}
