package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
)

// FetchEntry records one successful fetch.
type FetchEntry struct {
	Cycle uint64
	PC    uint64
	Text  string
}

// String formats the entry as "Fetch: <instruction>, PC: <pc>".
func (e FetchEntry) String() string {
	return fmt.Sprintf("Fetch: %s, PC: %d", e.Text, e.PC)
}

// Warning is a recoverable anomaly and the cycle it was raised in.
type Warning struct {
	Cycle uint64
	emu.Warning
}

// FetchLog returns the fetch log in chronological order.
func (p *Pipeline) FetchLog() []FetchEntry {
	return append([]FetchEntry(nil), p.state.fetchLog...)
}

// Warnings returns the warning log in chronological order.
func (p *Pipeline) Warnings() []Warning {
	return append([]Warning(nil), p.state.warnings...)
}
