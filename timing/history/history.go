// Package history keeps an undo stack of core snapshots so a driver can
// step a core backwards and forwards.
package history

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// ErrNoHistory is returned by Back when there is nothing to undo.
var ErrNoHistory = errors.New("no history to go back to")

// ErrUnknownEntry is returned by Goto for an id not in the history.
var ErrUnknownEntry = errors.New("unknown history entry")

// Entry is the machine state before one step.
type Entry struct {
	ID       xid.ID
	Cycle    uint64
	PC       uint64
	Snapshot pipeline.Snapshot
}

// History records a snapshot before every step of a core.
type History struct {
	core    *core.Core
	initial pipeline.Snapshot
	entries []Entry
	limit   int
}

// New creates a history for c, remembering its current state as the reset
// point. A positive limit caps the number of undo entries kept; the oldest
// are discarded first.
func New(c *core.Core, limit int) *History {
	return &History{
		core:    c,
		initial: c.Snapshot(),
		limit:   limit,
	}
}

// Core returns the core being tracked.
func (h *History) Core() *core.Core {
	return h.core
}

// Len returns the number of undo entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns the undo entries, oldest first.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

// Step records the current state and advances the core by one cycle.
// Nothing is recorded once the core has halted.
func (h *History) Step() (pipeline.Status, error) {
	if h.core.Halted() {
		return pipeline.StatusHalted, nil
	}

	h.push()
	return h.core.Step()
}

// Run steps the core until it halts or faults, recording every cycle.
func (h *History) Run() error {
	for {
		status, err := h.Step()
		if err != nil {
			return err
		}
		if status == pipeline.StatusHalted {
			return nil
		}
	}
}

func (h *History) push() {
	snap := h.core.Snapshot()
	h.entries = append(h.entries, Entry{
		ID:       xid.New(),
		Cycle:    snap.Cycle(),
		PC:       snap.PC(),
		Snapshot: snap,
	})

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]Entry(nil), h.entries[drop:]...)
	}
}

// Back undoes the last step and returns the entry restored.
func (h *History) Back() (Entry, error) {
	if len(h.entries) == 0 {
		return Entry{}, ErrNoHistory
	}

	last := h.entries[len(h.entries)-1]
	if err := h.core.Restore(last.Snapshot); err != nil {
		return Entry{}, fmt.Errorf("failed to go back to cycle %d: %w", last.Cycle, err)
	}
	h.entries = h.entries[:len(h.entries)-1]

	return last, nil
}

// Goto restores the entry with the given id and drops every later entry.
func (h *History) Goto(id xid.ID) error {
	for i, e := range h.entries {
		if e.ID != id {
			continue
		}
		if err := h.core.Restore(e.Snapshot); err != nil {
			return fmt.Errorf("failed to go to cycle %d: %w", e.Cycle, err)
		}
		h.entries = h.entries[:i]
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownEntry, id)
}

// Reset restores the state the history started from and clears it.
func (h *History) Reset() error {
	if err := h.core.Restore(h.initial); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	h.entries = nil
	return nil
}
