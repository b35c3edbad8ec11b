package emu

import "sort"

// DefaultMemoryLimit is the default number of addressable memory cells.
const DefaultMemoryLimit = 1 << 16

// DefaultUnmappedValue is the value a load returns for an address that was
// never written.
const DefaultUnmappedValue = 10

// Cell is one written memory location.
type Cell struct {
	Addr  int64
	Value float64
}

// Memory is a flat, sparsely populated memory. Each address holds one
// floating-point word. Valid addresses are [0, limit).
type Memory struct {
	cells map[int64]float64
	limit int64
}

// NewMemory creates an empty memory with the given address limit.
// A non-positive limit selects DefaultMemoryLimit.
func NewMemory(limit int64) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{
		cells: make(map[int64]float64),
		limit: limit,
	}
}

// Limit returns the first invalid address.
func (m *Memory) Limit() int64 {
	return m.limit
}

// InRange returns true if addr lies within [0, limit).
func (m *Memory) InRange(addr int64) bool {
	return addr >= 0 && addr < m.limit
}

// Read returns the value at addr and whether the address has been written.
func (m *Memory) Read(addr int64) (float64, bool) {
	if !m.InRange(addr) {
		return 0, false
	}
	v, ok := m.cells[addr]
	return v, ok
}

// Write stores value at addr. It returns false and drops the write if addr
// is out of range.
func (m *Memory) Write(addr int64, value float64) bool {
	if !m.InRange(addr) {
		return false
	}
	m.cells[addr] = value
	return true
}

// Len returns the number of written cells.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Cells returns all written cells ordered by address.
func (m *Memory) Cells() []Cell {
	cells := make([]Cell, 0, len(m.cells))
	for addr, v := range m.cells {
		cells = append(cells, Cell{Addr: addr, Value: v})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Addr < cells[j].Addr })
	return cells
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	c := &Memory{
		cells: make(map[int64]float64, len(m.cells)),
		limit: m.limit,
	}
	for addr, v := range m.cells {
		c.cells[addr] = v
	}
	return c
}
