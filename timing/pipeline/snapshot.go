package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/tomasim/loader"
)

// ErrEmptySnapshot is returned when restoring the zero Snapshot.
var ErrEmptySnapshot = errors.New("empty snapshot")

// ErrSnapshotMismatch is returned when a snapshot was taken from a machine
// running another program or with a different station pool or D-cache.
var ErrSnapshotMismatch = errors.New("snapshot does not match machine")

// Snapshot is an immutable copy of the complete machine state. It shares no
// mutable data with the pipeline it came from.
type Snapshot struct {
	program *loader.Program
	state   *machineState
}

// IsZero returns true for the zero Snapshot.
func (s Snapshot) IsZero() bool {
	return s.state == nil
}

// Cycle returns the cycle counter at capture time.
func (s Snapshot) Cycle() uint64 {
	if s.state == nil {
		return 0
	}
	return s.state.cycle
}

// PC returns the program counter at capture time.
func (s Snapshot) PC() uint64 {
	if s.state == nil {
		return 0
	}
	return s.state.pc
}

// Halted returns whether the machine had halted at capture time.
func (s Snapshot) Halted() bool {
	return s.state != nil && s.state.halted
}

// Snapshot captures the complete machine state.
func (p *Pipeline) Snapshot() Snapshot {
	return Snapshot{program: p.program, state: p.state.clone()}
}

// Restore replaces the machine state with a copy of snap. The Pipeline
// itself is kept, so references to it stay valid. The snapshot can be
// restored again later. D-cache tags and LRU order come back with it.
func (p *Pipeline) Restore(snap Snapshot) error {
	if snap.state == nil {
		return ErrEmptySnapshot
	}
	if snap.program != p.program {
		return fmt.Errorf("%w: snapshot of program %q, machine runs %q",
			ErrSnapshotMismatch, programName(snap.program), programName(p.program))
	}
	if snap.state.stations.Len() != p.config.NumStations() {
		return fmt.Errorf("%w: %d stations, machine has %d",
			ErrSnapshotMismatch, snap.state.stations.Len(), p.config.NumStations())
	}

	if (snap.state.dcache != nil) != (p.dcacheConfig != nil) {
		return fmt.Errorf("%w: D-cache enabled %t, machine %t",
			ErrSnapshotMismatch, snap.state.dcache != nil, p.dcacheConfig != nil)
	}

	p.state = snap.state.clone()
	p.bind()

	return nil
}

func programName(prog *loader.Program) string {
	if prog == nil {
		return ""
	}
	return prog.Name
}
