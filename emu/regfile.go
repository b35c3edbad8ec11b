// Package emu provides the architectural state of the core: register files,
// memory, and the arithmetic used by both the timing pipeline and the
// in-order functional emulator.
package emu

import "github.com/sarchlab/tomasim/insts"

// RegFile represents the integer register file.
// X[0] is hard-wired to zero: it always reads as 0 and writes are ignored.
type RegFile struct {
	// X holds integer registers x0-x31.
	X [insts.NumRegs]int64
}

// ReadReg reads a register value. Register 0 returns 0.
// Registers >= 32 return 0.
func (r *RegFile) ReadReg(reg uint8) int64 {
	if reg == 0 || reg >= insts.NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value int64) {
	if reg == 0 || reg >= insts.NumRegs {
		return
	}
	r.X[reg] = value
}

// FloatSlot is one floating-point register: its current value and the
// station, if any, that will next overwrite it.
type FloatSlot struct {
	Value    float64
	Producer Tag
}

// FloatRegFile represents the floating-point register file. Each register
// carries at most one outstanding producer tag.
type FloatRegFile struct {
	F [insts.NumRegs]FloatSlot
}

// Read returns register reg.
func (r *FloatRegFile) Read(reg uint8) FloatSlot {
	if reg >= insts.NumRegs {
		return FloatSlot{}
	}
	return r.F[reg]
}

// ReadValue returns the current value of register reg, ignoring its tag.
func (r *FloatRegFile) ReadValue(reg uint8) float64 {
	return r.Read(reg).Value
}

// WriteValue overwrites the value of register reg and leaves its tag alone.
func (r *FloatRegFile) WriteValue(reg uint8, value float64) {
	if reg >= insts.NumRegs {
		return
	}
	r.F[reg].Value = value
}

// Rename makes tag the sole producer of register reg, replacing any
// earlier producer.
func (r *FloatRegFile) Rename(reg uint8, tag Tag) {
	if reg >= insts.NumRegs {
		return
	}
	r.F[reg].Producer = tag
}

// Broadcast delivers a result from the station named by tag. Every register
// still waiting on tag takes the value and drops the tag. It returns the
// number of registers updated.
func (r *FloatRegFile) Broadcast(tag Tag, value float64) int {
	if !tag.Valid() {
		return 0
	}

	n := 0
	for i := range r.F {
		if r.F[i].Producer == tag {
			r.F[i].Value = value
			r.F[i].Producer = NoTag
			n++
		}
	}
	return n
}

// Pending returns the number of registers with an outstanding producer tag.
func (r *FloatRegFile) Pending() int {
	n := 0
	for i := range r.F {
		if r.F[i].Producer.Valid() {
			n++
		}
	}
	return n
}
