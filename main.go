// Package main provides the entry point for rvamo.
// rvamo emulates RISC-V "A" extension instructions from an illegal
// instruction trap on harts that lack native atomics.
//
// For the full CLI, use: go run ./cmd/rvamo
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvamo - RISC-V atomic extension trap emulator")
	fmt.Println("")
	fmt.Println("Usage: rvamo <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  decode     Decode instruction words")
	fmt.Println("  scan       List atomic instructions in an ELF file")
	fmt.Println("  cost       Print the emulation cost table")
	fmt.Println("  selftest   Run every atomic operation through the trap handler")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvamo' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvamo' instead.")
	}
}
