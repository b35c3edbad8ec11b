package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

const maxStations = 1 << 8

// SourceSlot is one source operand of a station: either ready with a value
// or waiting on a producer tag, never both.
type SourceSlot struct {
	Value float64
	Tag   emu.Tag
}

// ReadySlot returns a slot holding value.
func ReadySlot(value float64) SourceSlot {
	return SourceSlot{Value: value}
}

// WaitingSlot returns a slot waiting on tag.
func WaitingSlot(tag emu.Tag) SourceSlot {
	return SourceSlot{Tag: tag}
}

// Ready returns true if the slot holds a value.
func (s SourceSlot) Ready() bool {
	return !s.Tag.Valid()
}

// resolve fills the slot if it waits on tag. It returns true if it did.
func (s *SourceSlot) resolve(tag emu.Tag, value float64) bool {
	if !s.Tag.Valid() || s.Tag != tag {
		return false
	}
	*s = ReadySlot(value)
	return true
}

// Station is a reservation station. J and K are the two source slots.
// Load/store stations also carry the displacement and base register of the
// address operand until the access is performed.
type Station struct {
	ID    emu.StationID
	Name  string
	Class insts.Class

	Busy bool
	Op   insts.Op
	J    SourceSlot
	K    SourceSlot

	// Address operand (load/store class only).
	HasAddress bool
	Disp       int64
	Base       uint8

	// Value is the last result the station broadcast.
	Value float64
}

// Tag returns the producer tag naming this station.
func (s *Station) Tag() emu.Tag {
	return emu.TagFor(s.ID)
}

// Address returns the address operand as "disp(xbase)", or "" if none.
func (s *Station) Address() string {
	if !s.HasAddress {
		return ""
	}
	return fmt.Sprintf("%d(x%d)", s.Disp, s.Base)
}

func (s *Station) clear() {
	value := s.Value
	*s = Station{ID: s.ID, Name: s.Name, Class: s.Class, Value: value}
}

// StationPool is the fixed set of reservation stations. Stations are kept
// in declaration order: load/store, then add, then multiply.
type StationPool struct {
	stations []Station
}

// NewStationPool creates the stations described by config. Load/store
// stations are named load0, load1...; add and multiply stations are named
// fadd1... and fmul1....
func NewStationPool(config *MachineConfig) *StationPool {
	pool := &StationPool{
		stations: make([]Station, 0, config.NumStations()),
	}

	add := func(class insts.Class, name string) {
		pool.stations = append(pool.stations, Station{
			ID:    emu.StationID(len(pool.stations)),
			Name:  name,
			Class: class,
		})
	}

	for i := 0; i < config.LoadStoreStations; i++ {
		add(insts.ClassLoadStore, fmt.Sprintf("load%d", i))
	}
	for i := 1; i <= config.AddStations; i++ {
		add(insts.ClassAdd, fmt.Sprintf("fadd%d", i))
	}
	for i := 1; i <= config.MultiplyStations; i++ {
		add(insts.ClassMul, fmt.Sprintf("fmul%d", i))
	}

	return pool
}

// Len returns the number of stations.
func (p *StationPool) Len() int {
	return len(p.stations)
}

// Get returns the station with the given id, or nil.
func (p *StationPool) Get(id emu.StationID) *Station {
	if int(id) >= len(p.stations) {
		return nil
	}
	return &p.stations[id]
}

// Lookup returns the station named by tag, or nil for NoTag.
func (p *StationPool) Lookup(tag emu.Tag) *Station {
	id, ok := tag.Station()
	if !ok {
		return nil
	}
	return p.Get(id)
}

// ByName returns the station with the given name.
func (p *StationPool) ByName(name string) (*Station, bool) {
	for i := range p.stations {
		if p.stations[i].Name == name {
			return &p.stations[i], true
		}
	}
	return nil, false
}

// Name returns the name of the station a tag refers to, or "" for NoTag.
func (p *StationPool) Name(tag emu.Tag) string {
	if st := p.Lookup(tag); st != nil {
		return st.Name
	}
	return ""
}

// Acquire binds the first free station of class in declaration order.
// It returns false if every station of the class is busy.
func (p *StationPool) Acquire(class insts.Class, op insts.Op) (*Station, bool) {
	for i := range p.stations {
		st := &p.stations[i]
		if st.Class == class && !st.Busy {
			st.clear()
			st.Busy = true
			st.Op = op
			return st, true
		}
	}
	return nil, false
}

// Release frees a station. The last broadcast value is kept for display.
func (p *StationPool) Release(id emu.StationID) {
	if st := p.Get(id); st != nil {
		st.clear()
	}
}

// Busy returns the number of busy stations of class.
func (p *StationPool) Busy(class insts.Class) int {
	n := 0
	for i := range p.stations {
		if p.stations[i].Class == class && p.stations[i].Busy {
			n++
		}
	}
	return n
}

// Stations returns a copy of every station in declaration order.
func (p *StationPool) Stations() []Station {
	return append([]Station(nil), p.stations...)
}

// Clone returns an independent copy of the pool.
func (p *StationPool) Clone() *StationPool {
	return &StationPool{stations: p.Stations()}
}
