package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
)

var _ = Describe("Latency", func() {
	var (
		table   *latency.Table
		decoder *insts.Decoder
	)

	BeforeEach(func() {
		table = latency.NewTable()
		decoder = insts.NewDecoder()
	})

	Describe("Default Timing Values", func() {
		It("should have correct issue latency", func() {
			Expect(table.IssueLatency()).To(Equal(uint64(1)))
		})

		It("should make divide exactly four times multiply", func() {
			config := table.Config()
			Expect(config.DivideLatency).To(Equal(4 * config.MultiplyLatency))
		})

		It("should share one short latency between add/sub and load/store", func() {
			config := table.Config()
			Expect(config.AddLatency).To(Equal(config.LoadStoreLatency))
			Expect(config.AddLatency).To(BeNumerically("<", config.MultiplyLatency))
		})
	})

	DescribeTable("Instruction Latencies",
		func(line string, want uint64) {
			Expect(table.GetLatency(decoder.Decode(line, 0))).To(Equal(want))
		},
		Entry("add", "add x1, x2, x3", uint64(1)),
		Entry("addi", "addi x1, x2, 5", uint64(1)),
		Entry("sub", "sub x1, x2, x3", uint64(1)),
		Entry("subi", "subi x1, x2, 5", uint64(1)),
		Entry("fld", "fld f1, 0(x0)", uint64(2)),
		Entry("fsd", "fsd f1, 0(x0)", uint64(2)),
		Entry("fadd", "fadd f1, f2, f3", uint64(2)),
		Entry("fsub", "fsub f1, f2, f3", uint64(2)),
		Entry("fmul", "fmul f1, f2, f3", uint64(10)),
		Entry("fdiv", "fdiv f1, f2, f3", uint64(40)),
		Entry("unknown", "xyz x1, x2, x3", uint64(1)),
	)

	Describe("Instruction Type Detection", func() {
		It("should detect memory operations", func() {
			fld := decoder.Decode("fld f1, 0(x0)", 0)
			fsd := decoder.Decode("fsd f1, 0(x0)", 0)
			fadd := decoder.Decode("fadd f1, f2, f3", 0)

			Expect(table.IsMemoryOp(fld)).To(BeTrue())
			Expect(table.IsMemoryOp(fsd)).To(BeTrue())
			Expect(table.IsMemoryOp(fadd)).To(BeFalse())
			Expect(table.IsLoadOp(fld)).To(BeTrue())
			Expect(table.IsLoadOp(fsd)).To(BeFalse())
			Expect(table.IsStoreOp(fsd)).To(BeTrue())
		})
	})

	Describe("Nil Instruction Handling", func() {
		It("should return 1 for nil instruction", func() {
			Expect(table.GetLatency(nil)).To(Equal(uint64(1)))
		})

		It("should return false for nil instruction memory check", func() {
			Expect(table.IsMemoryOp(nil)).To(BeFalse())
			Expect(table.IsLoadOp(nil)).To(BeFalse())
			Expect(table.IsStoreOp(nil)).To(BeFalse())
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := &latency.TimingConfig{
				IssueLatency:     2,
				IntegerLatency:   3,
				LoadStoreLatency: 4,
				AddLatency:       5,
				MultiplyLatency:  6,
				DivideLatency:    24,
			}
			customTable := latency.NewTableWithConfig(config)

			Expect(customTable.IssueLatency()).To(Equal(uint64(2)))
			Expect(customTable.GetLatency(decoder.Decode("add x1,x1,x1", 0))).To(Equal(uint64(3)))
			Expect(customTable.GetLatency(decoder.Decode("fld f1,0(x1)", 0))).To(Equal(uint64(4)))
			Expect(customTable.GetLatency(decoder.Decode("fdiv f1,f1,f1", 0))).To(Equal(uint64(24)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			config := latency.DefaultTimingConfig()
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero issue latency", func() {
			config := latency.DefaultTimingConfig()
			config.IssueLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero integer latency", func() {
			config := latency.DefaultTimingConfig()
			config.IntegerLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero load/store latency", func() {
			config := latency.DefaultTimingConfig()
			config.LoadStoreLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero add latency", func() {
			config := latency.DefaultTimingConfig()
			config.AddLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject divide cheaper than multiply", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatency = 5
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.IntegerLatency = 100

			Expect(original.IntegerLatency).To(Equal(uint64(1)))
			Expect(clone.IntegerLatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load JSON config", func() {
			original := latency.DefaultTimingConfig()
			original.IntegerLatency = 5
			original.LoadStoreLatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should save and load YAML config", func() {
			original := latency.DefaultTimingConfig()
			original.MultiplyLatency = 7
			original.DivideLatency = 28

			path := filepath.Join(tempDir, "timing.yaml")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.yml")
			Expect(os.WriteFile(path, []byte("add_latency: 3\n"), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.AddLatency).To(Equal(uint64(3)))
			Expect(loaded.DivideLatency).To(Equal(uint64(40)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
