package pipeline

import (
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// FloatRegister is a read-only view of one floating-point register.
type FloatRegister struct {
	Value    float64
	Producer emu.Tag
	// Station is the producer's name, or "" if no producer is outstanding.
	Station string
}

// IntRegisters returns the integer register file.
func (p *Pipeline) IntRegisters() [insts.NumRegs]int64 {
	return p.state.intRegs.X
}

// IntRegister returns integer register reg.
func (p *Pipeline) IntRegister(reg uint8) int64 {
	return p.state.intRegs.ReadReg(reg)
}

// FloatRegisters returns the floating-point register file with producer
// station names resolved.
func (p *Pipeline) FloatRegisters() [insts.NumRegs]FloatRegister {
	var regs [insts.NumRegs]FloatRegister
	for i, slot := range p.state.fpRegs.F {
		regs[i] = FloatRegister{
			Value:    slot.Value,
			Producer: slot.Producer,
			Station:  p.state.stations.Name(slot.Producer),
		}
	}
	return regs
}

// FloatRegister returns floating-point register reg.
func (p *Pipeline) FloatRegister(reg uint8) FloatRegister {
	slot := p.state.fpRegs.Read(reg)
	return FloatRegister{
		Value:    slot.Value,
		Producer: slot.Producer,
		Station:  p.state.stations.Name(slot.Producer),
	}
}

// Memory returns every written memory cell ordered by address.
func (p *Pipeline) Memory() []emu.Cell {
	return p.state.memory.Cells()
}

// ReadMemory returns the value at addr and whether it was ever written.
func (p *Pipeline) ReadMemory(addr int64) (float64, bool) {
	return p.state.memory.Read(addr)
}

// Stations returns a copy of the reservation-station pool in declaration
// order.
func (p *Pipeline) Stations() []Station {
	return p.state.stations.Stations()
}

// StationName returns the name of the station tag refers to, or "".
func (p *Pipeline) StationName(tag emu.Tag) string {
	return p.state.stations.Name(tag)
}

// InFlight returns a copy of the in-flight window, oldest first.
func (p *Pipeline) InFlight() []InFlight {
	return p.state.window.Records()
}
