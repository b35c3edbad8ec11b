package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	DescribeTable("opcode classes",
		func(op insts.Op, class insts.Class) {
			Expect(op.Class()).To(Equal(class))
		},
		Entry("fld", insts.OpFLD, insts.ClassLoadStore),
		Entry("fsd", insts.OpFSD, insts.ClassLoadStore),
		Entry("fadd", insts.OpFADD, insts.ClassAdd),
		Entry("fsub", insts.OpFSUB, insts.ClassAdd),
		Entry("fmul", insts.OpFMUL, insts.ClassMul),
		Entry("fdiv", insts.OpFDIV, insts.ClassMul),
		Entry("add", insts.OpADD, insts.ClassNone),
		Entry("subi", insts.OpSUBI, insts.ClassNone),
		Entry("unknown", insts.OpUnknown, insts.ClassNone),
	)

	It("should round-trip mnemonics", func() {
		for _, m := range []string{"add", "addi", "sub", "subi", "fld", "fsd", "fadd", "fsub", "fmul", "fdiv"} {
			Expect(insts.LookupOp(m).String()).To(Equal(m))
		}
		Expect(insts.LookupOp("ld")).To(Equal(insts.OpUnknown))
	})

	Describe("ParseReg", func() {
		It("should parse integer and float registers", func() {
			r, ok := insts.ParseReg("x31")
			Expect(ok).To(BeTrue())
			Expect(r).To(Equal(insts.Reg{Kind: insts.RegInt, Index: 31}))

			r, ok = insts.ParseReg("f0")
			Expect(ok).To(BeTrue())
			Expect(r.IsFloat()).To(BeTrue())
			Expect(r.String()).To(Equal("f0"))
		})

		It("should reject out-of-range and malformed names", func() {
			for _, s := range []string{"x32", "f", "y1", "x-1", "f1a", ""} {
				_, ok := insts.ParseReg(s)
				Expect(ok).To(BeFalse(), s)
			}
		})
	})
})
