package pipeline

import (
	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// HazardUnit resolves data dependencies between stations. Register renaming
// removes WAR and WAW hazards; RAW hazards become waits on producer tags.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// ReadSource captures floating-point register reg into a source slot: the
// producer tag if one is outstanding, otherwise the current value.
func (h *HazardUnit) ReadSource(rf *emu.FloatRegFile, reg uint8) SourceSlot {
	slot := rf.Read(reg)
	if slot.Producer.Valid() {
		return WaitingSlot(slot.Producer)
	}
	return ReadySlot(slot.Value)
}

// slotReady reports whether a slot of station self can be used. A slot
// waiting on its own station's tag counts as satisfied.
func slotReady(slot SourceSlot, self emu.Tag) bool {
	return slot.Ready() || slot.Tag == self
}

// CanStart reports whether an instruction may begin execution. Loads,
// integer ops and unknown opcodes are always ready. A store waits for its
// data operand. Floating-point arithmetic waits for both operands.
func (h *HazardUnit) CanStart(inst *insts.Instruction, st *Station) bool {
	if st == nil {
		return true
	}

	self := st.Tag()
	switch {
	case inst.Op == insts.OpFSD:
		return slotReady(st.J, self)
	case inst.Op.IsFloatArith():
		return slotReady(st.J, self) && slotReady(st.K, self)
	default:
		return true
	}
}

// Broadcast delivers value from the station named by tag to every busy
// station waiting on it. It returns the number of slots resolved.
func (h *HazardUnit) Broadcast(pool *StationPool, tag emu.Tag, value float64) int {
	n := 0
	for i := range pool.stations {
		st := &pool.stations[i]
		if !st.Busy {
			continue
		}
		if st.J.resolve(tag, value) {
			n++
		}
		if st.K.resolve(tag, value) {
			n++
		}
	}
	return n
}

// StructuralHazard returns true if op needs a station and none of its class
// is free.
func (h *HazardUnit) StructuralHazard(pool *StationPool, op insts.Op) bool {
	class := op.Class()
	if class == insts.ClassNone {
		return false
	}
	for i := range pool.stations {
		if pool.stations[i].Class == class && !pool.stations[i].Busy {
			return false
		}
	}
	return true
}
