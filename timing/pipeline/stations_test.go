package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("StationPool", func() {
	var pool *pipeline.StationPool

	BeforeEach(func() {
		pool = pipeline.NewStationPool(pipeline.DefaultMachineConfig())
	})

	It("should declare stations in class order", func() {
		var names []string
		for _, st := range pool.Stations() {
			names = append(names, st.Name)
		}

		Expect(names).To(Equal([]string{
			"load0", "load1", "load2",
			"fadd1", "fadd2", "fadd3",
			"fmul1", "fmul2",
		}))
		Expect(pool.Len()).To(Equal(8))
	})

	It("should bind the first free station of the class", func() {
		st, ok := pool.Acquire(insts.ClassMul, insts.OpFDIV)
		Expect(ok).To(BeTrue())
		Expect(st.Name).To(Equal("fmul1"))
		Expect(st.Busy).To(BeTrue())
		Expect(st.Op).To(Equal(insts.OpFDIV))

		st, ok = pool.Acquire(insts.ClassMul, insts.OpFMUL)
		Expect(ok).To(BeTrue())
		Expect(st.Name).To(Equal("fmul2"))

		_, ok = pool.Acquire(insts.ClassMul, insts.OpFMUL)
		Expect(ok).To(BeFalse())
		Expect(pool.Busy(insts.ClassMul)).To(Equal(2))
		Expect(pool.Busy(insts.ClassAdd)).To(Equal(0))
	})

	It("should reuse a released station before later ones", func() {
		first, _ := pool.Acquire(insts.ClassAdd, insts.OpFADD)
		pool.Acquire(insts.ClassAdd, insts.OpFADD)

		first.Value = 3.5
		pool.Release(first.ID)

		released := pool.Get(first.ID)
		Expect(released.Busy).To(BeFalse())
		Expect(released.Op).To(Equal(insts.OpUnknown))
		Expect(released.Value).To(Equal(3.5))

		st, ok := pool.Acquire(insts.ClassAdd, insts.OpFSUB)
		Expect(ok).To(BeTrue())
		Expect(st.Name).To(Equal("fadd1"))
	})

	It("should look stations up by tag and name", func() {
		st, ok := pool.ByName("fadd2")
		Expect(ok).To(BeTrue())
		Expect(pool.Lookup(st.Tag())).To(BeIdenticalTo(st))
		Expect(pool.Name(st.Tag())).To(Equal("fadd2"))

		Expect(pool.Lookup(emu.NoTag)).To(BeNil())
		Expect(pool.Name(emu.NoTag)).To(BeEmpty())

		_, ok = pool.ByName("fmul9")
		Expect(ok).To(BeFalse())
	})

	It("should format the address operand", func() {
		st, _ := pool.Acquire(insts.ClassLoadStore, insts.OpFLD)
		Expect(st.Address()).To(BeEmpty())

		st.HasAddress = true
		st.Disp = -8
		st.Base = 3
		Expect(st.Address()).To(Equal("-8(x3)"))
	})

	It("should clone independently", func() {
		clone := pool.Clone()
		pool.Acquire(insts.ClassLoadStore, insts.OpFLD)

		Expect(pool.Busy(insts.ClassLoadStore)).To(Equal(1))
		Expect(clone.Busy(insts.ClassLoadStore)).To(Equal(0))
	})
})

var _ = Describe("SourceSlot", func() {
	It("should be either ready or waiting", func() {
		Expect(pipeline.ReadySlot(2).Ready()).To(BeTrue())
		Expect(pipeline.WaitingSlot(emu.TagFor(1)).Ready()).To(BeFalse())
	})
})
