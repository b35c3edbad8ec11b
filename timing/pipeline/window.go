// Package pipeline provides the Tomasulo-style scheduling engine for timing
// simulation: reservation stations, the in-flight window and the four-phase
// cycle.
package pipeline

import (
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// Stage is the progress of an in-flight instruction.
type Stage uint8

// Stages in order. Retired records leave the window in the cycle they
// retire.
const (
	StageIssued Stage = iota
	StageExecuting
	StageWritingBack
	StageRetired
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIssued:
		return "issued"
	case StageExecuting:
		return "executing"
	case StageWritingBack:
		return "writeback"
	case StageRetired:
		return "retired"
	default:
		return "unknown"
	}
}

// InFlight is one instruction travelling through the pipeline.
//
// The cycle fields are zero until the corresponding event happens. They are
// for reporting only.
type InFlight struct {
	// Inst is the decoded instruction. It is never mutated.
	Inst *insts.Instruction

	// Station is the station the instruction occupies, or NoTag for
	// instructions that need none.
	Station emu.Tag

	Stage Stage

	IssueCycle     uint64
	ExecStartCycle uint64
	ExecEndCycle   uint64
	WritebackCycle uint64

	issueLeft uint64
	execLeft  uint64
	started   bool
}

// Started returns true once execution has been admitted.
func (r *InFlight) Started() bool {
	return r.started
}

// Remaining returns the execution cycles left after admission.
func (r *InFlight) Remaining() uint64 {
	return r.execLeft
}

// Window is the ordered collection of in-flight instructions, oldest first.
type Window struct {
	records []InFlight
}

// Len returns the number of in-flight instructions.
func (w *Window) Len() int {
	return len(w.records)
}

// Empty returns true if nothing is in flight.
func (w *Window) Empty() bool {
	return len(w.records) == 0
}

// Push appends a newly issued instruction.
func (w *Window) Push(r InFlight) {
	w.records = append(w.records, r)
}

// At returns the i-th oldest record.
func (w *Window) At(i int) *InFlight {
	return &w.records[i]
}

// Sweep removes every retired record and returns how many were removed.
func (w *Window) Sweep() int {
	kept := w.records[:0]
	for _, r := range w.records {
		if r.Stage != StageRetired {
			kept = append(kept, r)
		}
	}
	removed := len(w.records) - len(kept)
	for i := len(kept); i < len(w.records); i++ {
		w.records[i] = InFlight{}
	}
	w.records = kept
	return removed
}

// Records returns a copy of the records, oldest first.
func (w *Window) Records() []InFlight {
	return append([]InFlight(nil), w.records...)
}

// Clone returns an independent copy. Instructions are shared since they are
// immutable.
func (w *Window) Clone() *Window {
	return &Window{records: w.Records()}
}
