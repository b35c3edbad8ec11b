package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/loader"
)

var _ = Describe("Source Loader", func() {
	Describe("Parse", func() {
		It("should drop blank and comment-only lines", func() {
			prog := loader.Parse("t", `
            # setup
            addi x1, x0, 10

            add x2, x1, x1   # double
               #trailing comment
            `)

			Expect(prog.Len()).To(Equal(2))
			Expect(prog.Lines[0]).To(Equal(loader.Line{Text: "addi x1, x0, 10", Number: 3}))
			Expect(prog.Lines[1].Text).To(Equal("add x2, x1, x1   # double"))
			Expect(prog.Lines[1].Number).To(Equal(5))
		})

		It("should accept text without a trailing newline", func() {
			prog := loader.Parse("t", "fld f1,0(x0)")
			Expect(prog.Len()).To(Equal(1))
		})

		It("should produce an empty program from empty text", func() {
			prog := loader.Parse("t", "\n\n")
			Expect(prog.Len()).To(BeZero())
			Expect(prog.Text()).To(BeEmpty())
		})

		It("should join lines back into text", func() {
			prog := loader.Parse("t", "add x1,x0,x0\n\nsub x2,x0,x0\n")
			Expect(prog.Text()).To(Equal("add x1,x0,x0\nsub x2,x0,x0\n"))
		})
	})

	Describe("Read", func() {
		It("should parse from a reader", func() {
			prog, err := loader.Read("r", strings.NewReader("fadd f1,f2,f3\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Name).To(Equal("r"))
			Expect(prog.Len()).To(Equal(1))
		})
	})

	Describe("Load", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "loader-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should load a file from disk", func() {
			path := filepath.Join(tempDir, "prog.s")
			Expect(os.WriteFile(path, []byte("fmul f2,f4,f6\nfdiv f1,f2,f3\n"), 0644)).To(Succeed())

			prog, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Name).To(Equal(path))
			Expect(prog.Len()).To(Equal(2))
		})

		It("should return error for a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.s"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("failed to open program file"))
		})
	})
})
