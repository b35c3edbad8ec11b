package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// tickIssue moves Issued records whose issue latency has run out to
// Executing.
func (p *Pipeline) tickIssue() {
	w := p.state.window
	for i := 0; i < w.Len(); i++ {
		r := w.At(i)
		if r.Stage != StageIssued {
			continue
		}
		if r.issueLeft > 0 {
			r.issueLeft--
		}
		if r.issueLeft == 0 {
			r.Stage = StageExecuting
		}
	}
}

// tickFetch issues the instruction at pc. It stalls, leaving pc alone, if
// the instruction needs a station and none of its class is free.
func (p *Pipeline) tickFetch() {
	s := p.state

	inst := p.Instruction(s.pc)
	if inst == nil {
		return
	}

	fields := logrus.Fields{"cycle": s.cycle, "pc": s.pc, "inst": inst.Text}

	record := InFlight{
		Inst:       inst,
		Stage:      StageIssued,
		IssueCycle: s.cycle,
		issueLeft:  p.latencyTable.IssueLatency(),
	}

	if p.hazardUnit.StructuralHazard(s.stations, inst.Op) {
		s.stats.Stalls++
		p.log.WithFields(fields).WithField("class", inst.Op.Class()).Debug("stall")
		return
	}

	if class := inst.Op.Class(); class != insts.ClassNone {
		st, _ := s.stations.Acquire(class, inst.Op)
		p.bindOperands(inst, st)
		record.Station = st.Tag()
		fields["station"] = st.Name
	}

	s.window.Push(record)
	s.fetchLog = append(s.fetchLog, FetchEntry{Cycle: s.cycle, PC: s.pc, Text: inst.Text})
	s.stats.Fetched++
	s.pc += insts.InstructionWidth

	p.log.WithFields(fields).Debug("fetch")
}

// bindOperands captures the source operands of inst into st, then renames
// the destination register to st. Sources are read first, so an
// instruction that reads its own destination waits on the previous
// producer, not on itself.
func (p *Pipeline) bindOperands(inst *insts.Instruction, st *Station) {
	s := p.state

	switch {
	case inst.Op.IsFloatArith():
		if fs1, ok := inst.Operand(1).FloatReg(); ok {
			st.J = p.hazardUnit.ReadSource(&s.fpRegs, fs1.Index)
		}
		if fs2, ok := inst.Operand(2).FloatReg(); ok {
			st.K = p.hazardUnit.ReadSource(&s.fpRegs, fs2.Index)
		}
		if fd, ok := inst.Operand(0).FloatReg(); ok {
			s.fpRegs.Rename(fd.Index, st.Tag())
		}

	case inst.Op == insts.OpFLD:
		p.bindAddress(inst, st)
		if fd, ok := inst.Operand(0).FloatReg(); ok {
			s.fpRegs.Rename(fd.Index, st.Tag())
		}

	case inst.Op == insts.OpFSD:
		p.bindAddress(inst, st)
		if fs, ok := inst.Operand(0).FloatReg(); ok {
			st.J = p.hazardUnit.ReadSource(&s.fpRegs, fs.Index)
		}
	}
}

func (p *Pipeline) bindAddress(inst *insts.Instruction, st *Station) {
	if disp, base, ok := inst.Operand(1).Memory(); ok {
		st.HasAddress = true
		st.Disp = disp
		st.Base = base.Index
	}
}

// tickExecute admits ready records and counts down execution latency.
func (p *Pipeline) tickExecute() {
	s := p.state
	w := s.window

	for i := 0; i < w.Len(); i++ {
		r := w.At(i)
		if r.Stage != StageExecuting {
			continue
		}

		st := s.stations.Lookup(r.Station)
		if !r.started {
			if !p.hazardUnit.CanStart(r.Inst, st) {
				s.stats.DataHazards++
				continue
			}
			p.settleSelfTags(r.Inst, st)

			r.started = true
			r.ExecStartCycle = s.cycle
			r.execLeft = p.executeLatency(r.Inst, st)

			p.log.WithFields(logrus.Fields{
				"cycle":   s.cycle,
				"inst":    r.Inst.Text,
				"latency": r.execLeft,
			}).Debug("admit")
		}

		if r.execLeft > 0 {
			r.execLeft--
		}
		if r.execLeft == 0 {
			r.Stage = StageWritingBack
			r.ExecEndCycle = s.cycle
		}
	}
}

// settleSelfTags resolves source slots that name st itself with the current
// register value.
func (p *Pipeline) settleSelfTags(inst *insts.Instruction, st *Station) {
	if st == nil {
		return
	}

	self := st.Tag()
	settle := func(slot *SourceSlot, operand int) {
		if slot.Tag != self {
			return
		}
		if reg, ok := inst.Operand(operand).FloatReg(); ok {
			*slot = ReadySlot(p.state.fpRegs.ReadValue(reg.Index))
		} else {
			*slot = ReadySlot(0)
		}
	}

	switch {
	case inst.Op.IsFloatArith():
		settle(&st.J, 1)
		settle(&st.K, 2)
	case inst.Op == insts.OpFSD:
		settle(&st.J, 0)
	}
}

// executeLatency returns the execution latency of inst. With a D-cache,
// loads and stores take the cache's latency.
func (p *Pipeline) executeLatency(inst *insts.Instruction, st *Station) uint64 {
	lat := p.latencyTable.GetLatency(inst)

	if p.cachedMemoryStage != nil && st != nil && st.HasAddress {
		result := p.cachedMemoryStage.Access(
			st, inst.Op == insts.OpFSD, &p.state.intRegs, p.state.memory.Limit())
		lat = result.Latency
		if result.Hit {
			p.state.stats.DCacheHits++
		}
		if result.Evicted {
			p.log.WithFields(logrus.Fields{
				"cycle":   p.state.cycle,
				"station": st.Name,
				"block":   result.EvictedAddr,
			}).Debug("evict")
		}
	}

	if lat == 0 {
		lat = 1
	}
	return lat
}

// tickWriteback completes every WritingBack record that finished executing
// in an earlier cycle. The result is broadcast to waiting registers and
// stations and the station is freed.
func (p *Pipeline) tickWriteback() error {
	s := p.state
	w := s.window

	for i := 0; i < w.Len(); i++ {
		r := w.At(i)
		if r.Stage != StageWritingBack || r.ExecEndCycle == s.cycle {
			continue
		}

		value, err := p.perform(r)
		if err != nil {
			return err
		}

		if st := s.stations.Lookup(r.Station); st != nil {
			regs := s.fpRegs.Broadcast(r.Station, value)
			slots := p.hazardUnit.Broadcast(s.stations, r.Station, value)
			s.stats.Broadcasts += uint64(slots)

			p.log.WithFields(logrus.Fields{
				"cycle":     s.cycle,
				"station":   st.Name,
				"value":     value,
				"registers": regs,
				"slots":     slots,
			}).Debug("broadcast")

			st.Value = value
			s.stations.Release(st.ID)
		}

		r.WritebackCycle = s.cycle
		r.Stage = StageRetired
		s.stats.Instructions++

		p.log.WithFields(logrus.Fields{"cycle": s.cycle, "inst": r.Inst.Text}).Debug("writeback")
	}

	return nil
}

// perform applies the effect of r to the architectural state and returns
// the value its station broadcasts.
func (p *Pipeline) perform(r *InFlight) (float64, error) {
	s := p.state
	inst := r.Inst
	st := s.stations.Lookup(r.Station)

	switch {
	case inst.Op.IsInteger():
		warnings, err := p.alu.ExecInteger(inst)
		if err != nil {
			return 0, err
		}
		p.warn(warnings...)
		return 0, nil

	case inst.Op.IsFloatArith():
		fd, ok := inst.Operand(0).FloatReg()
		_, ok1 := inst.Operand(1).FloatReg()
		_, ok2 := inst.Operand(2).FloatReg()
		if !ok || !ok1 || !ok2 {
			p.warn(emu.BadOperandWarning(inst))
			return p.currentValue(fd, ok), nil
		}
		v, _ := emu.FloatOp(inst.Op, st.J.Value, st.K.Value)
		return v, nil

	case inst.Op == insts.OpFLD:
		fd, ok := inst.Operand(0).FloatReg()
		acc := p.lsu.Resolve(inst)
		p.warn(acc.Warnings...)
		if !ok {
			p.warn(emu.BadOperandWarning(inst))
			return 0, nil
		}
		if !acc.OK {
			return p.currentValue(fd, ok), nil
		}
		s.stats.MemAccesses++
		v, mapped := p.lsu.Load(acc.Addr)
		if !mapped && p.config.WarnUnmappedRead {
			p.warn(emu.LoadWarning(inst, acc.Addr))
		}
		return v, nil

	case inst.Op == insts.OpFSD:
		_, ok := inst.Operand(0).FloatReg()
		acc := p.lsu.Resolve(inst)
		p.warn(acc.Warnings...)
		if !ok {
			p.warn(emu.BadOperandWarning(inst))
			return 0, nil
		}
		if !acc.OK {
			return 0, nil
		}
		s.stats.MemAccesses++
		if !p.lsu.Store(acc.Addr, st.J.Value) {
			p.warn(emu.StoreWarning(inst, acc.Addr))
		}
		return st.J.Value, nil

	default:
		p.warn(emu.UnknownOpcodeWarning(inst))
		return 0, nil
	}
}

// currentValue returns the value of reg, used as the broadcast of an
// instruction that turned out to be a no-op.
func (p *Pipeline) currentValue(reg insts.Reg, ok bool) float64 {
	if !ok {
		return 0
	}
	return p.state.fpRegs.ReadValue(reg.Index)
}

// warn records recoverable anomalies raised in the current cycle.
func (p *Pipeline) warn(warnings ...emu.Warning) {
	for _, w := range warnings {
		p.state.warnings = append(p.state.warnings, Warning{Cycle: p.state.cycle, Warning: w})
		p.log.WithFields(logrus.Fields{
			"cycle": p.state.cycle,
			"kind":  w.Kind,
		}).Warn(w.String())
	}
}

// tickRetire drops retired records from the window.
func (p *Pipeline) tickRetire() {
	p.state.window.Sweep()
}
