package benchmarks

import (
	"fmt"
	"strings"

	"github.com/sarchlab/tomasim/timing/pipeline"
)

// GetKernels returns the standard set of kernels. Each one targets a
// specific scheduler characteristic.
func GetKernels() []Benchmark {
	return []Benchmark{
		integerSequential(),
		integerChain(),
		loadBurst(),
		addChain(),
		independentFP(),
		divideChain(),
		dotProduct(),
		stridedCopy(),
	}
}

// GetCoreKernels returns a minimal set of kernels for quick validation.
func GetCoreKernels() []Benchmark {
	return []Benchmark{
		loadBurst(),
		divideChain(),
		dotProduct(),
	}
}

// GetKernel returns the kernel with the given name.
func GetKernel(name string) (Benchmark, bool) {
	for _, b := range GetKernels() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

func lines(format string, n int, args func(i int) []any) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, format+"\n", args(i)...)
	}
	return b.String()
}

// 1. Integer Sequential - integer ops need no station and never stall
func integerSequential() Benchmark {
	return Benchmark{
		Name:        "integer_sequential",
		Description: "20 independent addi - measures station-free issue",
		Source: lines("addi x%d,x%d,1", 20, func(i int) []any {
			r := i%5 + 1
			return []any{r, r}
		}),
	}
}

// 2. Integer Chain - integer ops read registers at writeback
func integerChain() Benchmark {
	return Benchmark{
		Name:        "integer_chain",
		Description: "20 dependent addi (x1 = x1 + 1)",
		Source:      lines("addi x1,x1,%d", 20, func(int) []any { return []any{1} }),
	}
}

// 3. Load Burst - more loads than load/store stations
func loadBurst() Benchmark {
	return Benchmark{
		Name:        "load_burst",
		Description: "8 loads through 3 load/store stations - measures structural stalls",
		Source: lines("fld f%d,%d(x0)", 8, func(i int) []any {
			return []any{i + 1, i}
		}),
		Setup: func(config *pipeline.MachineConfig) {
			config.Memory = map[int64]float64{}
			for i := int64(0); i < 8; i++ {
				config.Memory[i] = float64(i + 1)
			}
		},
		ExpectedFloat: map[uint8]float64{1: 1, 8: 8},
	}
}

// 4. Add Chain - every fadd waits on the previous one
func addChain() Benchmark {
	return Benchmark{
		Name:        "add_chain",
		Description: "10 dependent fadd (f1 = f1 + f2) - measures broadcast latency",
		Source:      lines("fadd f1,f1,f%d", 10, func(int) []any { return []any{2} }),
		Setup: func(config *pipeline.MachineConfig) {
			config.FloatRegisters = map[uint8]float64{1: 0, 2: 1.5}
		},
		ExpectedFloat: map[uint8]float64{1: 15},
	}
}

// 5. Independent FP - adds and multiplies on disjoint registers
func independentFP() Benchmark {
	return Benchmark{
		Name:        "independent_fp",
		Description: "interleaved fadd/fmul with no dependencies - measures station pressure",
		Source: "fadd f1,f10,f11\nfmul f2,f10,f11\nfadd f3,f10,f11\nfmul f4,f10,f11\n" +
			"fsub f5,f10,f11\nfmul f6,f10,f11\nfadd f7,f10,f11\n",
		Setup: func(config *pipeline.MachineConfig) {
			config.FloatRegisters = map[uint8]float64{10: 6, 11: 3}
		},
		ExpectedFloat: map[uint8]float64{1: 9, 2: 18, 5: 3, 6: 18, 7: 9},
	}
}

// 6. Divide Chain - three divides renaming the same register
func divideChain() Benchmark {
	return Benchmark{
		Name:        "divide_chain",
		Description: "3 fdiv writing f2 through 2 multiply stations - checks WAW renaming",
		Source:      "fdiv f2,f2,f2\nfdiv f2,f4,f6\nfdiv f2,f2,f4\n",
		Setup: func(config *pipeline.MachineConfig) {
			config.FloatRegisters = map[uint8]float64{2: 8, 4: 2, 6: 4}
		},
		ExpectedFloat: map[uint8]float64{2: 0.25},
	}
}

// 7. Dot Product - loads, multiplies and a reduction tree
func dotProduct() Benchmark {
	return Benchmark{
		Name:        "dot_product",
		Description: "4-element dot product stored to memory",
		Source: `fld f1,0(x0)
fld f2,1(x0)
fld f3,2(x0)
fld f4,3(x0)
fld f5,4(x0)
fld f6,5(x0)
fld f7,6(x0)
fld f8,7(x0)
fmul f9,f1,f5
fmul f10,f2,f6
fmul f11,f3,f7
fmul f12,f4,f8
fadd f13,f9,f10
fadd f14,f11,f12
fadd f15,f13,f14
fsd f15,8(x0)
`,
		Setup: func(config *pipeline.MachineConfig) {
			config.Memory = map[int64]float64{
				0: 1, 1: 2, 2: 3, 3: 4,
				4: 5, 5: 6, 6: 7, 7: 8,
			}
		},
		ExpectedFloat:  map[uint8]float64{15: 70},
		ExpectedMemory: map[int64]float64{8: 70},
	}
}

// 8. Strided Copy - base-register addressing
func stridedCopy() Benchmark {
	return Benchmark{
		Name:        "strided_copy",
		Description: "copy 4 words with stride 2 using a base register",
		Source: `addi x1,x0,100
addi x2,x0,200
fld f1,0(x1)
fld f2,2(x1)
fld f3,4(x1)
fld f4,6(x1)
fsd f1,0(x2)
fsd f2,2(x2)
fsd f3,4(x2)
fsd f4,6(x2)
`,
		Setup: func(config *pipeline.MachineConfig) {
			config.Memory = map[int64]float64{100: 1.5, 102: 2.5, 104: 3.5, 106: 4.5}
		},
		ExpectedMemory: map[int64]float64{200: 1.5, 202: 2.5, 204: 3.5, 206: 4.5},
	}
}
