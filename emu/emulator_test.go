package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/loader"
)

var _ = Describe("Emulator", func() {
	run := func(src string, opts ...emu.EmulatorOption) (*emu.Emulator, error) {
		e := emu.NewEmulator(opts...)
		e.LoadProgram(loader.Parse("test", src))
		return e, e.Run()
	}

	It("should run integer code in order", func() {
		e, err := run("addi x1,x0,10\nadd x2,x1,x1\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(e.RegFile().ReadReg(1)).To(Equal(int64(10)))
		Expect(e.RegFile().ReadReg(2)).To(Equal(int64(20)))
		Expect(e.PC()).To(Equal(uint64(8)))
		Expect(e.InstructionCount()).To(Equal(uint64(2)))
	})

	It("should return the unmapped value for unwritten memory", func() {
		e, err := run("fld f1,0(x0)\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(e.FloatRegFile().ReadValue(1)).To(Equal(10.0))
		Expect(e.Warnings()).To(BeEmpty())
	})

	It("should warn on unmapped reads when enabled", func() {
		e, err := run("fld f1,0(x0)\n", emu.WithUnmappedReadWarning(true), emu.WithUnmappedValue(0))

		Expect(err).NotTo(HaveOccurred())
		Expect(e.FloatRegFile().ReadValue(1)).To(BeZero())
		Expect(e.Warnings()).To(HaveLen(1))
		Expect(e.Warnings()[0].Kind).To(Equal(emu.WarnUnmappedRead))
	})

	It("should store and reload through memory", func() {
		mem := emu.NewMemory(0)
		mem.Write(4, 2)
		mem.Write(5, 8)

		e, err := run(`
			addi x1, x0, 4
			fld f1, 0(x1)
			fld f2, 1(x1)
			fdiv f3, f2, f1
			fsd f3, 10(x1)
			fld f4, 14(x0)
		`, emu.WithMemory(mem))

		Expect(err).NotTo(HaveOccurred())
		Expect(e.FloatRegFile().ReadValue(3)).To(Equal(4.0))
		Expect(e.FloatRegFile().ReadValue(4)).To(Equal(4.0))
		v, ok := e.Memory().Read(14)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(4.0))
	})

	It("should warn on stores outside memory", func() {
		e, err := run("subi x1, x0, 1\nfsd f0, 0(x1)\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Warnings()).To(HaveLen(1))
		Expect(e.Warnings()[0].Kind).To(Equal(emu.WarnStoreOutOfRange))
	})

	It("should warn once for an unknown opcode", func() {
		e, err := run("xyz x1,x2,x3\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Warnings()).To(HaveLen(1))
		Expect(e.Warnings()[0].String()).To(Equal("WARN: Unknown instruction [line 0]: xyz x1,x2,x3"))
	})

	It("should stop on a non-numeric immediate", func() {
		e, err := run("addi x1,x0,1\naddi x2,x0,abc\naddi x3,x0,3\n")

		Expect(errors.Is(err, emu.ErrImmediateNotNumber)).To(BeTrue())
		Expect(e.RegFile().ReadReg(1)).To(Equal(int64(1)))
		Expect(e.RegFile().ReadReg(3)).To(BeZero())
		Expect(e.PC()).To(Equal(uint64(4)))
	})

	It("should honor the instruction limit", func() {
		_, err := run("add x1,x0,x0\nadd x1,x0,x0\n", emu.WithMaxInstructions(1))
		Expect(err).To(MatchError("max instructions reached"))
	})

	It("should exit immediately with no program", func() {
		e := emu.NewEmulator()
		Expect(e.Step().Exited).To(BeTrue())
	})
})
