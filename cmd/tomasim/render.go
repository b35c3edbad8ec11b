package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/core"
)

// upper builds a Caser per call; a Caser keeps state and is not safe for
// concurrent use.
func upper(s string) string {
	return cases.Upper(language.English).String(s)
}

// mnemonic upper-cases the opcode of an instruction line and leaves the
// operands alone.
func mnemonic(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return upper(text)
	}
	return upper(text[:i]) + " " + strings.TrimSpace(text[i:])
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printCycle prints the scheduler view of one cycle.
func printCycle(w io.Writer, st core.State) {
	_, _ = fmt.Fprintf(w, "=== Cycle %d  PC %d ===\n", st.Cycle, st.PC)
	printStations(w, st)
	printInFlight(w, st)
	printFloatRegisters(w, st, true)
	_, _ = fmt.Fprintln(w)
}

func printStations(w io.Writer, st core.State) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "STATION\tBUSY\tOP\tVJ\tVK\tQJ\tQK\tADDRESS")
	for _, s := range st.Stations {
		if !s.Busy {
			_, _ = fmt.Fprintf(tw, "%s\tno\t\t\t\t\t\t\n", s.Name)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\tyes\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, upper(s.Op),
			formatValue(s.Vj), formatValue(s.Vk),
			orDash(s.Qj), orDash(s.Qk), orDash(s.Address))
	}
	_ = tw.Flush()
}

func cycleOrDash(c uint64) string {
	if c == 0 {
		return "-"
	}
	return strconv.FormatUint(c, 10)
}

func printInFlight(w io.Writer, st core.State) {
	if len(st.InFlight) == 0 {
		return
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "INSTRUCTION\tPC\tSTATION\tSTAGE\tISSUE\tEXEC START\tEXEC END\tWRITEBACK")
	for _, inst := range st.InFlight {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			mnemonic(inst.Text), inst.PC, orDash(inst.Station), inst.Stage,
			inst.IssueCycle, cycleOrDash(inst.ExecStartCycle),
			cycleOrDash(inst.ExecEndCycle), cycleOrDash(inst.WritebackCycle))
	}
	_ = tw.Flush()
}

// printFloatRegisters lists registers that hold a non-zero value or wait on
// a producer. With pendingOnly only the waiting ones are listed.
func printFloatRegisters(w io.Writer, st core.State, pendingOnly bool) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "REGISTER\tVALUE\tPRODUCER")
	for _, reg := range st.FloatRegisters {
		if reg.Producer == "" && (pendingOnly || reg.Value == 0) {
			continue
		}
		value := reg.Value
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", reg.Name, formatValue(&value), orDash(reg.Producer))
	}
	_ = tw.Flush()
}

func printIntRegisters(w io.Writer, regs []int64) {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "REGISTER\tVALUE")
	for i, v := range regs {
		if v != 0 {
			_, _ = fmt.Fprintf(tw, "x%d\t%d\n", i, v)
		}
	}
	_ = tw.Flush()
}

func printMemory(w io.Writer, cells []core.MemoryCell) {
	if len(cells) == 0 {
		return
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ADDRESS\tVALUE")
	for _, c := range cells {
		v := c.Value
		_, _ = fmt.Fprintf(tw, "%d\t%s\n", c.Addr, formatValue(&v))
	}
	_ = tw.Flush()
}

func printLines(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%s:\n", title)
	for _, l := range lines {
		_, _ = fmt.Fprintf(w, "  %s\n", l)
	}
}

// printFinal prints the report of a finished timing run.
func printFinal(w io.Writer, name string, st core.State) {
	_, _ = fmt.Fprintf(w, "Program: %s\n", name)
	_, _ = fmt.Fprintf(w, "Halted: %v\n", st.Halted)
	_, _ = fmt.Fprintf(w, "Total Cycles: %d\n", st.Stats.Cycles)
	_, _ = fmt.Fprintf(w, "Total Instructions: %d\n", st.Stats.Instructions)
	_, _ = fmt.Fprintf(w, "CPI: %.2f\n", st.Stats.CPI())
	_, _ = fmt.Fprintf(w, "Structural Stalls: %d\n", st.Stats.Stalls)
	_, _ = fmt.Fprintf(w, "Operand Waits: %d\n", st.Stats.DataHazards)
	_, _ = fmt.Fprintln(w)

	printIntRegisters(w, st.IntRegisters)
	printFloatRegisters(w, st, false)
	printMemory(w, st.Memory)
	printLines(w, "Warnings", st.Warnings)
}

// printDCache prints the D-cache counters, taken after the halt flush.
func printDCache(w io.Writer, stats *cache.Statistics) {
	if stats == nil {
		return
	}

	_, _ = fmt.Fprintln(w, "D-Cache:")
	_, _ = fmt.Fprintf(w, "  Hits: %d\n", stats.Hits)
	_, _ = fmt.Fprintf(w, "  Misses: %d\n", stats.Misses)
	_, _ = fmt.Fprintf(w, "  Hit Rate: %.2f\n", stats.HitRate())
	_, _ = fmt.Fprintf(w, "  Evictions: %d\n", stats.Evictions)
	_, _ = fmt.Fprintf(w, "  Writebacks: %d\n", stats.Writebacks)
	_, _ = fmt.Fprintln(w)
}

// printFunctional prints the final state of an in-order emulator run.
func printFunctional(w io.Writer, name string, e *emu.Emulator) {
	_, _ = fmt.Fprintf(w, "Program: %s\n", name)
	_, _ = fmt.Fprintf(w, "Instructions executed: %d\n", e.InstructionCount())
	_, _ = fmt.Fprintln(w)

	printIntRegisters(w, e.RegFile().X[:])

	st := core.State{}
	for i := uint8(0); i < insts.NumRegs; i++ {
		st.FloatRegisters = append(st.FloatRegisters, core.FloatRegister{
			Name:  insts.Reg{Kind: insts.RegFloat, Index: i}.String(),
			Value: e.FloatRegFile().ReadValue(i),
		})
	}
	printFloatRegisters(w, st, false)

	var cells []core.MemoryCell
	for _, c := range e.Memory().Cells() {
		cells = append(cells, core.MemoryCell{Addr: c.Addr, Value: c.Value})
	}
	printMemory(w, cells)

	var warnings []string
	for _, warn := range e.Warnings() {
		warnings = append(warnings, warn.String())
	}
	printLines(w, "Warnings", warnings)
}
