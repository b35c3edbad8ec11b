// Package latency provides instruction timing models for the Tomasulo core.
//
// Latencies are fixed per functional-unit class and can be configured via
// TimingConfig.
package latency

import (
	"github.com/sarchlab/tomasim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Op {
	case insts.OpADD, insts.OpADDI, insts.OpSUB, insts.OpSUBI:
		return t.config.IntegerLatency

	case insts.OpFLD, insts.OpFSD:
		return t.config.LoadStoreLatency

	case insts.OpFADD, insts.OpFSUB:
		return t.config.AddLatency

	case insts.OpFMUL:
		return t.config.MultiplyLatency

	case insts.OpFDIV:
		return t.config.DivideLatency

	default:
		return t.config.IntegerLatency
	}
}

// IssueLatency returns the number of cycles spent in the Issued stage.
func (t *Table) IssueLatency() uint64 {
	return t.config.IssueLatency
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpFLD || inst.Op == insts.OpFSD
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpFLD
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpFSD
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
