package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/tomasim/benchmarks"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

var _ = Describe("CLI", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	execute := func(stdin string, args ...string) (string, error) {
		cmd := newRootCmd()
		var out, errOut bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	Describe("config file", func() {
		It("should use defaults without a file", func() {
			config, err := loadSimConfig("")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Timing.DivideLatency).To(Equal(uint64(40)))
			Expect(config.Machine.AddStations).To(Equal(3))
			Expect(config.DCache).To(BeNil())
		})

		It("should merge a YAML file over the defaults", func() {
			path := writeFile("sim.yaml", `
timing:
  divide_latency: 60
machine:
  add_stations: 1
  memory:
    4: 2.5
  float_registers:
    2: 1.5
dcache:
  size: 64
  associativity: 2
  block_size: 4
  hit_latency: 1
  miss_latency: 20
`)
			config, err := loadSimConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Timing.DivideLatency).To(Equal(uint64(60)))
			Expect(config.Timing.MultiplyLatency).To(Equal(uint64(10)))
			Expect(config.Machine.AddStations).To(Equal(1))
			Expect(config.Machine.MultiplyStations).To(Equal(2))
			Expect(config.Machine.Memory).To(HaveKeyWithValue(int64(4), 2.5))
			Expect(config.Machine.FloatRegisters).To(HaveKeyWithValue(uint8(2), 1.5))
			Expect(config.DCache).NotTo(BeNil())
			Expect(config.DCache.MissLatency).To(Equal(uint64(20)))
		})

		It("should read JSON", func() {
			path := writeFile("sim.json", `{"machine": {"load_store_stations": 1}}`)
			config, err := loadSimConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Machine.LoadStoreStations).To(Equal(1))
			Expect(config.Timing.AddLatency).To(Equal(uint64(2)))
		})

		It("should reject an invalid section", func() {
			path := writeFile("bad.yaml", "machine:\n  add_stations: 0\n")
			_, err := loadSimConfig(path)
			Expect(err).To(MatchError(ContainSubstring("invalid machine section")))
		})

		It("should reject a dcache section that cannot form whole sets", func() {
			path := writeFile("bad.yaml", "dcache:\n  size: 1024\n")
			_, err := loadSimConfig(path)
			Expect(err).To(MatchError(ContainSubstring("invalid dcache section")))

			prog := writeFile("load.s", "fld f1,0(x0)\n")
			_, err = execute("", "--config", path, "run", prog)
			Expect(err).To(MatchError(ContainSubstring("associativity must be > 0")))
		})

		It("should round-trip through the config command", func() {
			path := filepath.Join(dir, "out.yaml")
			out, err := execute("", "config", "--out", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Written to"))

			config, err := loadSimConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Timing).To(Equal(defaultSimConfig().Timing))
			Expect(config.Machine.NumStations()).To(Equal(8))
		})

		It("should print YAML by default", func() {
			out, err := execute("", "config")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("divide_latency: 40"))
			Expect(out).To(ContainSubstring("load_store_stations: 3"))
		})
	})

	Describe("run", func() {
		It("should print the final state", func() {
			prog := writeFile("add.s", "addi x1,x0,10\nadd x2,x1,x1\n")

			out, err := execute("", "run", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Total Cycles: 4"))
			Expect(out).To(ContainSubstring("Total Instructions: 2"))
			Expect(out).To(MatchRegexp(`x2\s+20`))
		})

		It("should print the state as JSON", func() {
			prog := writeFile("add.s", "addi x1,x0,10\nadd x2,x1,x1\n")

			out, err := execute("", "run", "--json", prog)
			Expect(err).NotTo(HaveOccurred())

			var st core.State
			Expect(json.Unmarshal([]byte(out), &st)).To(Succeed())
			Expect(st.Halted).To(BeTrue())
			Expect(st.Cycle).To(Equal(uint64(4)))
			Expect(st.IntRegisters[2]).To(Equal(int64(20)))
			Expect(st.Stations).To(HaveLen(8))
		})

		It("should trace every cycle", func() {
			prog := writeFile("load.s", "fld f1,0(x0)\n")

			out, err := execute("", "run", "--trace", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("=== Cycle 1  PC 4 ==="))
			Expect(out).To(ContainSubstring("FLD f1,0(x0)"))
			Expect(out).To(ContainSubstring("=== Cycle 4  PC 4 ==="))
			Expect(out).NotTo(ContainSubstring("=== Cycle 5"))
		})

		It("should run on the functional emulator", func() {
			prog := writeFile("add.s", "addi x1,x0,10\nadd x2,x1,x1\n")

			out, err := execute("", "run", "--functional", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Instructions executed: 2"))
			Expect(out).NotTo(ContainSubstring("Total Cycles"))
		})

		It("should apply the machine section", func() {
			prog := writeFile("load.s", "fld f1,4(x0)\n")
			config := writeFile("sim.yaml", "machine:\n  memory:\n    4: 2.5\n")

			out, err := execute("", "--config", config, "run", "--json", prog)
			Expect(err).NotTo(HaveOccurred())

			var st core.State
			Expect(json.Unmarshal([]byte(out), &st)).To(Succeed())
			Expect(st.FloatRegisters[1].Value).To(Equal(2.5))
		})

		It("should print several programs in argument order", func() {
			a := writeFile("a.s", "addi x1,x0,1\n")
			b := writeFile("b.s", "fdiv f1,f2,f3\n")

			out, err := execute("", "run", a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Index(out, "--- "+a)).To(BeNumerically("<", strings.Index(out, "--- "+b)))
		})

		It("should surface a fatal error", func() {
			prog := writeFile("bad.s", "addi x1,x0,abc\n")

			out, err := execute("", "run", prog)
			Expect(errors.Is(err, pipeline.ErrImmediateNotNumber)).To(BeTrue())
			Expect(exitCode(err)).To(Equal(2))
			Expect(out).To(ContainSubstring("Halted: false"))
		})

		It("should stop at the cycle limit", func() {
			prog := writeFile("div.s", "fdiv f1,f2,f3\n")

			_, err := execute("", "run", "--max-cycles", "5", prog)
			Expect(errors.Is(err, pipeline.ErrCycleLimit)).To(BeTrue())
			Expect(exitCode(err)).To(Equal(3))
		})

		It("should flush the D-cache at halt", func() {
			prog := writeFile("store.s", "fsd f1,0(x0)\nfsd f1,64(x0)\nfld f2,0(x0)\n")

			out, err := execute("", "run", "--dcache", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("D-Cache:"))
			Expect(out).To(ContainSubstring("Hits: 1"))
			Expect(out).To(ContainSubstring("Misses: 2"))
			Expect(out).To(ContainSubstring("Writebacks: 2"))

			out, err = execute("", "run", "--dcache", "--json", prog)
			Expect(err).NotTo(HaveOccurred())

			var res runResult
			Expect(json.Unmarshal([]byte(out), &res)).To(Succeed())
			Expect(res.Halted).To(BeTrue())
			Expect(res.DCache).NotTo(BeNil())
			Expect(res.DCache.Writebacks).To(Equal(uint64(2)))
		})

		It("should leave out the D-cache without the flag", func() {
			prog := writeFile("store.s", "fsd f1,0(x0)\n")

			out, err := execute("", "run", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("D-Cache:"))
		})

		It("should report a missing file", func() {
			_, err := execute("", "run", filepath.Join(dir, "missing.s"))
			Expect(err).To(HaveOccurred())
			Expect(exitCode(err)).To(Equal(1))
		})
	})

	Describe("debug", func() {
		It("should step, go back and list history", func() {
			prog := writeFile("add.s", "addi x1,x0,10\nadd x2,x1,x1\n")

			out, err := execute("step\nstep\nback\nhistory\nquit\n", "debug", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("=== Cycle 2  PC 8 ==="))
			Expect(out).To(ContainSubstring("back to cycle 1"))
			Expect(out).To(MatchRegexp(`cycle 0\s+pc 0`))
		})

		It("should run to completion and reset", func() {
			prog := writeFile("add.s", "addi x1,x0,10\nadd x2,x1,x1\n")

			out, err := execute("run\nreset\nstate\n", "debug", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Total Cycles: 4"))
			Expect(out).To(ContainSubstring("reset to cycle 0"))
			Expect(out).To(ContainSubstring("=== Cycle 0  PC 0 ==="))
		})

		It("should report bad commands and keep going", func() {
			prog := writeFile("add.s", "addi x1,x0,10\n")

			out, err := execute("back\nfrobnicate\nstep 0\nstep 3\n", "debug", prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("error: no history to go back to"))
			Expect(out).To(ContainSubstring(`error: unknown command "frobnicate"`))
			Expect(out).To(ContainSubstring(`error: invalid step count "0"`))
			Expect(out).To(ContainSubstring("halted"))
		})
	})

	Describe("bench", func() {
		It("should print selected kernels as CSV", func() {
			out, err := execute("", "bench", "--csv", "add_chain", "divide_chain")
			Expect(err).NotTo(HaveOccurred())

			rows := strings.Split(strings.TrimSpace(out), "\n")
			Expect(rows).To(HaveLen(3))
			Expect(rows[1]).To(HavePrefix("add_chain,"))
			Expect(rows[2]).To(HavePrefix("divide_chain,84,"))
		})

		It("should print JSON results", func() {
			out, err := execute("", "bench", "--json", "--core")
			Expect(err).NotTo(HaveOccurred())

			var results []benchmarks.BenchmarkResult
			Expect(json.Unmarshal([]byte(out), &results)).To(Succeed())
			Expect(results).To(HaveLen(len(benchmarks.GetCoreKernels())))
			for _, r := range results {
				Expect(r.Correct).To(BeTrue(), r.Name)
			}
		})

		It("should reject an unknown kernel", func() {
			_, err := execute("", "bench", "nope")
			Expect(err).To(MatchError(ContainSubstring(`unknown kernel "nope"`)))
		})
	})

	Describe("rendering", func() {
		It("should upper-case only the mnemonic", func() {
			Expect(mnemonic("fadd f1,f2,f3")).To(Equal("FADD f1,f2,f3"))
			Expect(mnemonic("  fld\tf1,0(x0) ")).To(Equal("FLD f1,0(x0)"))
			Expect(mnemonic("nop")).To(Equal("NOP"))
		})

		It("should upper-case from many goroutines at once", func() {
			var g errgroup.Group
			for i := 0; i < 16; i++ {
				g.Go(func() error {
					for j := 0; j < 100; j++ {
						if got := mnemonic("fmul f1,f2,f3"); got != "FMUL f1,f2,f3" {
							return fmt.Errorf("got %q", got)
						}
					}
					return nil
				})
			}
			Expect(g.Wait()).To(Succeed())
		})

		It("should trace several programs concurrently", func() {
			a := writeFile("a.s", "fld f1,0(x0)\nfadd f2,f1,f1\n")
			b := writeFile("b.s", "fmul f3,f4,f5\nfsub f6,f3,f3\n")

			out, err := execute("", "run", "--trace", a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("FLD f1,0(x0)"))
			Expect(out).To(ContainSubstring("FADD f2,f1,f1"))
			Expect(out).To(ContainSubstring("FMUL f3,f4,f5"))
			Expect(out).To(ContainSubstring("FSUB f6,f3,f3"))
		})
	})
})
