package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
)

var _ = Describe("Register files", func() {
	Describe("RegFile", func() {
		var regFile *emu.RegFile

		BeforeEach(func() {
			regFile = &emu.RegFile{}
		})

		It("should read back written values", func() {
			regFile.WriteReg(5, -42)
			Expect(regFile.ReadReg(5)).To(Equal(int64(-42)))
		})

		It("should hard-wire x0 to zero", func() {
			regFile.WriteReg(0, 99)
			Expect(regFile.ReadReg(0)).To(BeZero())
			Expect(regFile.X[0]).To(BeZero())
		})

		It("should ignore out-of-range registers", func() {
			regFile.WriteReg(40, 1)
			Expect(regFile.ReadReg(40)).To(BeZero())
		})
	})

	Describe("FloatRegFile", func() {
		var fregs *emu.FloatRegFile

		BeforeEach(func() {
			fregs = &emu.FloatRegFile{}
		})

		It("should rename a register to a single producer", func() {
			fregs.Rename(2, emu.TagFor(3))
			fregs.Rename(2, emu.TagFor(4))

			slot := fregs.Read(2)
			Expect(slot.Producer).To(Equal(emu.TagFor(4)))
			Expect(fregs.Pending()).To(Equal(1))
		})

		It("should broadcast only to registers waiting on the tag", func() {
			fregs.WriteValue(1, 1.5)
			fregs.Rename(2, emu.TagFor(0))
			fregs.Rename(3, emu.TagFor(0))
			fregs.Rename(4, emu.TagFor(1))

			n := fregs.Broadcast(emu.TagFor(0), 7.25)

			Expect(n).To(Equal(2))
			Expect(fregs.Read(2)).To(Equal(emu.FloatSlot{Value: 7.25}))
			Expect(fregs.Read(3).Value).To(Equal(7.25))
			Expect(fregs.Read(4).Producer).To(Equal(emu.TagFor(1)))
			Expect(fregs.Read(1).Value).To(Equal(1.5))
		})

		It("should ignore a broadcast of NoTag", func() {
			Expect(fregs.Broadcast(emu.NoTag, 3)).To(BeZero())
			Expect(fregs.Read(0).Value).To(BeZero())
		})
	})

	Describe("Tag", func() {
		It("should distinguish no producer from station 0", func() {
			Expect(emu.NoTag.Valid()).To(BeFalse())
			Expect(emu.TagFor(0).Valid()).To(BeTrue())
			Expect(emu.TagFor(0)).NotTo(Equal(emu.NoTag))

			id, ok := emu.TagFor(6).Station()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(emu.StationID(6)))
		})

		It("should format for display", func() {
			Expect(emu.NoTag.String()).To(Equal("-"))
			Expect(emu.TagFor(2).String()).To(Equal("#2"))
		})
	})
})
