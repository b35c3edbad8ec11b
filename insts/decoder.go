package insts

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// InstructionWidth is the number of bytes the program counter advances per
// instruction.
const InstructionWidth = 4

var (
	intLiteral = regexp.MustCompile(`^[+-]?[0-9]+$`)
	memoryRef  = regexp.MustCompile(`^([+-]?[0-9]+)\(\s*([a-z0-9]+)\s*\)$`)
)

// Instruction represents a decoded assembly line. It is never mutated after
// Decode returns.
type Instruction struct {
	Op       Op        // Operation code
	Mnemonic string    // Lower-case mnemonic as written
	Operands []Operand // Operands in source order, destination first
	PC       uint64    // Program counter the line was fetched from
	Text     string    // Trimmed source line
}

// Operand returns operand i, or the zero Operand (OperandNone) if absent.
func (i *Instruction) Operand(n int) Operand {
	if n < 0 || n >= len(i.Operands) {
		return Operand{}
	}
	return i.Operands[n]
}

// Line returns the zero-based instruction index of the program counter.
func (i *Instruction) Line() uint64 {
	return i.PC / InstructionWidth
}

// String returns the source line.
func (i *Instruction) String() string {
	return i.Text
}

// Decoder decodes assembly lines into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one trimmed, non-comment source line fetched at pc.
// The mnemonic is split off at the first whitespace run; the remainder is a
// comma-separated operand list. Trailing "# ..." comments are stripped from
// each operand.
func (d *Decoder) Decode(line string, pc uint64) *Instruction {
	text := strings.TrimSpace(line)
	inst := &Instruction{PC: pc, Text: text}

	head, tail := splitMnemonic(text)
	inst.Mnemonic = strings.ToLower(head)
	inst.Op = LookupOp(inst.Mnemonic)

	// Anything after '#' is comment, commas included.
	tail = stripComment(tail)
	if strings.TrimSpace(tail) == "" {
		return inst
	}

	for _, token := range strings.Split(tail, ",") {
		inst.Operands = append(inst.Operands, d.decodeOperand(token))
	}

	return inst
}

// splitMnemonic splits at the first whitespace run.
func splitMnemonic(text string) (string, string) {
	idx := strings.IndexAny(text, " \t")
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimLeft(text[idx:], " \t")
}

func stripComment(token string) string {
	if idx := strings.IndexByte(token, '#'); idx >= 0 {
		return token[:idx]
	}
	return token
}

// decodeOperand classifies one operand token.
func (d *Decoder) decodeOperand(token string) Operand {
	text := strings.TrimSpace(stripComment(token))
	op := Operand{Kind: OperandSymbol, Text: text}

	if intLiteral.MatchString(text) {
		if imm, wide, ok := parseLiteral(text); ok {
			op.Kind = OperandImmediate
			op.Imm = imm
			op.Wide = wide
		}
		return op
	}

	lower := strings.ToLower(text)
	if reg, ok := ParseReg(lower); ok {
		op.Kind = OperandRegister
		op.Reg = reg
		return op
	}

	if m := memoryRef.FindStringSubmatch(lower); m != nil {
		disp, wide, litOK := parseLiteral(m[1])
		base, ok := ParseReg(m[2])
		if litOK && ok && base.IsInt() {
			op.Kind = OperandMemory
			op.Imm = disp
			op.Wide = wide
			op.Reg = base
		}
	}

	return op
}

// parseLiteral parses a decimal literal. A literal beyond int64 is still an
// integer: it is reduced modulo 2^16 with its sign kept, and wide is set.
func parseLiteral(text string) (value int64, wide bool, ok bool) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return v, false, true
	}
	if !errors.Is(err, strconv.ErrRange) {
		return 0, false, false
	}

	v = 0
	digits := strings.TrimLeft(text, "+-")
	for _, c := range digits {
		v = (v*10 + int64(c-'0')) % 0x10000
	}
	if strings.HasPrefix(text, "-") {
		v = -v
	}
	return v, true, true
}
