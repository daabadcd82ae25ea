// Package main provides the entry point for TomSim.
// TomSim is a cycle-level Tomasulo dynamic-scheduling simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/tomsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("TomSim - Tomasulo Dynamic-Scheduling Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: tomsim [options] <program.asm>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config        Path to timing configuration JSON file")
	fmt.Println("  -mem           Initial memory as \"addr:value,...\"")
	fmt.Println("  -trace         Emit per-cycle scheduling events as JSON logs")
	fmt.Println("  -v             Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tomsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tomsim' instead.")
	}
}
