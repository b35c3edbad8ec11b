// Package insts provides instruction definitions and decoding for the
// assembly subset accepted by the Tomasulo core.
//
// This package turns one line of assembly into a structured instruction. It
// supports:
//   - Integer: ADD, ADDI, SUB, SUBI
//   - Memory: FLD, FSD with displacement(base) addressing
//   - Floating point: FADD, FSUB, FMUL, FDIV
//
// Decoding never fails. Unrecognized mnemonics decode to OpUnknown and are
// reported by the core when they reach writeback.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode("fld f1, 8(x2)", 0)
//	fmt.Printf("Op: %v, Dest: %v, Mem: %v\n", inst.Op, inst.Operand(0), inst.Operand(1))
package insts
