package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sarchlab/tomasim/loader"
	"github.com/sarchlab/tomasim/timing/core"
	"github.com/sarchlab/tomasim/timing/history"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

const debugHelp = `Commands:
  step [n], s [n]   advance n cycles (default 1)
  back, b           undo the last step
  reset, r          return to cycle 0
  run               run until the program halts
  state, p          print the current cycle
  regs              print the final-state report
  history, h        list undo entries
  goto <id>         return to a history entry
  help              show this help
  quit, q           leave the debugger
`

func newDebugCmd(root *rootOptions) *cobra.Command {
	var (
		dcache bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "debug [program.s]",
		Short: "Step a program cycle by cycle with undo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadSimConfig(root.configPath)
			if err != nil {
				return err
			}

			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			c, err := core.NewCoreFromProgram(prog, config.options(dcache, root.logger())...)
			if err != nil {
				return err
			}

			d := &debugger{
				hist:   history.New(c, limit),
				in:     bufio.NewReader(cmd.InOrStdin()),
				out:    cmd.OutOrStdout(),
				prompt: isTerminal(cmd.InOrStdin()),
			}
			return d.loop()
		},
	}

	cmd.Flags().BoolVar(&dcache, "dcache", false, "Enable the default L1 data cache")
	cmd.Flags().IntVar(&limit, "history", 0, "Maximum undo entries kept (0 = unlimited)")

	return cmd
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type debugger struct {
	hist   *history.History
	in     *bufio.Reader
	out    io.Writer
	prompt bool
}

func (d *debugger) loop() error {
	for {
		if d.prompt {
			_, _ = fmt.Fprintf(d.out, "(cycle %d) > ", d.hist.Core().Pipeline.Cycle())
		}

		line, err := d.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) > 0 {
			quit, cmdErr := d.execute(fields[0], fields[1:])
			if cmdErr != nil {
				_, _ = fmt.Fprintf(d.out, "error: %v\n", cmdErr)
			}
			if quit {
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// execute runs one debugger command and reports whether to quit.
func (d *debugger) execute(name string, args []string) (bool, error) {
	c := d.hist.Core()

	switch name {
	case "step", "s":
		n := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return false, fmt.Errorf("invalid step count %q", args[0])
			}
			n = v
		}
		for i := 0; i < n; i++ {
			status, err := d.hist.Step()
			if err != nil {
				return false, err
			}
			if status == pipeline.StatusHalted {
				_, _ = fmt.Fprintln(d.out, "halted")
				break
			}
		}
		printCycle(d.out, c.State())

	case "back", "b":
		entry, err := d.hist.Back()
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintf(d.out, "back to cycle %d (%s)\n", entry.Cycle, entry.ID)
		printCycle(d.out, c.State())

	case "reset", "r":
		if err := d.hist.Reset(); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(d.out, "reset to cycle 0")

	case "run":
		if err := d.hist.Run(); err != nil {
			return false, err
		}
		printFinal(d.out, c.Pipeline.Program().Name, c.State())

	case "state", "p":
		printCycle(d.out, c.State())

	case "regs":
		printFinal(d.out, c.Pipeline.Program().Name, c.State())

	case "history", "h":
		for _, e := range d.hist.Entries() {
			_, _ = fmt.Fprintf(d.out, "%s  cycle %d  pc %d\n", e.ID, e.Cycle, e.PC)
		}

	case "goto":
		if len(args) == 0 {
			return false, errors.New("goto needs an entry id")
		}
		id, err := xid.FromString(args[0])
		if err != nil {
			return false, fmt.Errorf("invalid entry id %q: %w", args[0], err)
		}
		if err := d.hist.Goto(id); err != nil {
			return false, err
		}
		printCycle(d.out, c.State())

	case "help":
		_, _ = fmt.Fprint(d.out, debugHelp)

	case "quit", "q", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q, try help", name)
	}

	return false, nil
}
