// Package loader provides assembly source loading for the Tomasulo core.
package loader

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Line is one retained source line.
type Line struct {
	// Text is the trimmed line as written.
	Text string
	// Number is the 1-based line number in the original source text.
	Number int
}

// Program is an ordered list of instruction lines. Line i is fetched at
// program counter i*4.
type Program struct {
	// Name identifies the program, usually the file path.
	Name string
	// Lines contains all non-blank, non-comment lines.
	Lines []Line
}

// Len returns the number of instruction lines.
func (p *Program) Len() int {
	return len(p.Lines)
}

// Text returns the instruction lines joined with newlines.
func (p *Program) Text() string {
	var b strings.Builder
	for _, l := range p.Lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse splits raw source text into a Program. Blank lines and lines whose
// first non-space character is '#' are discarded. Inline comments are left
// in place; the decoder strips them per operand.
func Parse(name, source string) *Program {
	prog := &Program{Name: name}

	for i, raw := range strings.Split(source, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		prog.Lines = append(prog.Lines, Line{Text: text, Number: i + 1})
	}

	return prog
}

// Read parses a program from r.
func Read(name string, r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read program %s: %w", name, err)
	}
	return Parse(name, string(data)), nil
}

// Load reads and parses an assembly source file.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(path, f)
}
