package core

import (
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// FloatRegister is one floating-point register as shown to a presentation
// layer.
type FloatRegister struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Producer string  `json:"producer,omitempty"`
}

// MemoryCell is one written memory location.
type MemoryCell struct {
	Addr  int64   `json:"addr"`
	Value float64 `json:"value"`
}

// Station is one reservation station. Vj/Vk are set only when the slot is
// ready; Qj/Qk name the producer a slot waits on.
type Station struct {
	Name    string   `json:"name"`
	Busy    bool     `json:"busy"`
	Op      string   `json:"op,omitempty"`
	Vj      *float64 `json:"vj,omitempty"`
	Vk      *float64 `json:"vk,omitempty"`
	Qj      string   `json:"qj,omitempty"`
	Qk      string   `json:"qk,omitempty"`
	Address string   `json:"address,omitempty"`
	Value   float64  `json:"value"`
}

// Instruction is one in-flight instruction with its stage timestamps.
// Zero timestamps have not happened yet.
type Instruction struct {
	Text           string `json:"text"`
	PC             uint64 `json:"pc"`
	Station        string `json:"station,omitempty"`
	Stage          string `json:"stage"`
	IssueCycle     uint64 `json:"issue"`
	ExecStartCycle uint64 `json:"exec_start,omitempty"`
	ExecEndCycle   uint64 `json:"exec_end,omitempty"`
	WritebackCycle uint64 `json:"writeback,omitempty"`
}

// State is every piece of machine state a presentation layer may read.
type State struct {
	Cycle          uint64          `json:"cycle"`
	PC             uint64          `json:"pc"`
	Halted         bool            `json:"halted"`
	IntRegisters   []int64         `json:"int_registers"`
	FloatRegisters []FloatRegister `json:"float_registers"`
	Memory         []MemoryCell    `json:"memory"`
	Stations       []Station       `json:"stations"`
	InFlight       []Instruction   `json:"in_flight"`
	FetchLog       []string        `json:"fetch_log"`
	Warnings       []string        `json:"warnings"`
	Stats          Stats           `json:"stats"`
}

// State returns a copy of the observable machine state.
func (c *Core) State() State {
	p := c.Pipeline

	s := State{
		Cycle:  p.Cycle(),
		PC:     p.PC(),
		Halted: p.Halted(),
		Stats:  c.Stats(),
	}

	ints := p.IntRegisters()
	s.IntRegisters = ints[:]

	for i, reg := range p.FloatRegisters() {
		s.FloatRegisters = append(s.FloatRegisters, FloatRegister{
			Name:     insts.Reg{Kind: insts.RegFloat, Index: uint8(i)}.String(),
			Value:    reg.Value,
			Producer: reg.Station,
		})
	}

	s.Memory = []MemoryCell{}
	for _, cell := range p.Memory() {
		s.Memory = append(s.Memory, MemoryCell{Addr: cell.Addr, Value: cell.Value})
	}

	for _, st := range p.Stations() {
		s.Stations = append(s.Stations, stationView(p, st))
	}

	s.InFlight = []Instruction{}
	for _, r := range p.InFlight() {
		s.InFlight = append(s.InFlight, Instruction{
			Text:           r.Inst.Text,
			PC:             r.Inst.PC,
			Station:        p.StationName(r.Station),
			Stage:          r.Stage.String(),
			IssueCycle:     r.IssueCycle,
			ExecStartCycle: r.ExecStartCycle,
			ExecEndCycle:   r.ExecEndCycle,
			WritebackCycle: r.WritebackCycle,
		})
	}

	s.FetchLog = []string{}
	for _, e := range p.FetchLog() {
		s.FetchLog = append(s.FetchLog, e.String())
	}
	s.Warnings = []string{}
	for _, w := range p.Warnings() {
		s.Warnings = append(s.Warnings, w.String())
	}

	return s
}

func stationView(p *pipeline.Pipeline, st pipeline.Station) Station {
	v := Station{
		Name:    st.Name,
		Busy:    st.Busy,
		Address: st.Address(),
		Value:   st.Value,
	}
	if !st.Busy {
		return v
	}

	v.Op = st.Op.String()
	if st.J.Ready() {
		vj := st.J.Value
		v.Vj = &vj
	} else {
		v.Qj = p.StationName(st.J.Tag)
	}
	if st.K.Ready() {
		vk := st.K.Value
		v.Vk = &vk
	} else {
		v.Qk = p.StationName(st.K.Tag)
	}

	return v
}
