// Package main provides the entry point for tomasim.
// tomasim is a cycle-level simulator of a Tomasulo-scheduled floating-point
// core.
//
// For the full CLI, use: go run ./cmd/tomasim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tomasim - Tomasulo scheduler simulator")
	fmt.Println("")
	fmt.Println("Usage: tomasim <command> [options] <program.s>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run      Run programs and print the final machine state")
	fmt.Println("  debug    Step a program cycle by cycle with undo")
	fmt.Println("  bench    Run the benchmark kernels")
	fmt.Println("  config   Print or save the configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomasim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomasim' instead.")
	}
}
