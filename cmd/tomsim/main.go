// Package main provides the entry point for TomSim.
// TomSim is a cycle-level Tomasulo dynamic-scheduling simulator.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/core"
	"github.com/sarchlab/tomsim/timing/latency"
	"github.com/sarchlab/tomsim/timing/tomasulo"
)

var (
	configPath   = flag.String("config", "", "Path to timing configuration JSON file")
	addStations  = flag.Int("add-stations", 3, "Number of ADD/SUB reservation stations")
	mulStations  = flag.Int("mul-stations", 2, "Number of MUL/DIV reservation stations")
	loadStations = flag.Int("load-stations", 2, "Number of LD reservation stations")
	memInit      = flag.String("mem", "", `Initial memory as "addr:value,addr:value,..."`)
	maxCycles    = flag.Uint64("max-cycles", 1000000, "Upper bound on simulated cycles, 0 for unbounded")
	strictCommit = flag.Bool("strict-commit", false, "Suppress register commits from stale producers")
	traceFlag    = flag.Bool("trace", false, "Emit per-cycle scheduling events as JSON logs on stderr")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomsim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *traceFlag {
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: tomasulo.LevelTrace,
		})
		slog.SetDefault(slog.New(handler))
	}

	atexit.Exit(run(flag.Arg(0)))
}

// run simulates the given program file and returns the process exit code.
func run(programPath string) int {
	text, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		return 1
	}

	program, err := insts.NewDecoder().DecodeProgram(string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding program: %v\n", err)
		return 1
	}

	memory, err := parseMemory(*memInit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -mem: %v\n", err)
		return 1
	}

	table := latency.NewTable()
	if *configPath != "" {
		config, err := latency.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			return 1
		}
		table = latency.NewTableWithConfig(config)
	}

	opts := []tomasulo.Option{tomasulo.WithLatencyTable(table)}
	if *strictCommit {
		opts = append(opts, tomasulo.WithStrictCommit())
	}

	scheduler := tomasulo.NewEngine(tomasulo.Config{
		AdditiveStations:       *addStations,
		MultiplicativeStations: *mulStations,
		LoadStations:           *loadStations,
	}, opts...)
	scheduler.InitMemory(memory)
	scheduler.LoadInstructions(program)

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", len(program))
		fmt.Printf("Memory entries: %d\n", len(memory))
	}

	c := core.NewBuilder().
		WithEngine(sim.NewSerialEngine()).
		WithScheduler(scheduler).
		WithMaxCycles(*maxCycles).
		Build("Core")

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation error at cycle %d: %v\n", scheduler.Cycle(), err)
		return 1
	}

	report(scheduler)
	return 0
}

// report prints the final machine state and scheduling statistics.
func report(scheduler *tomasulo.Engine) {
	fmt.Println(tomasulo.FormatRegisters(scheduler))
	fmt.Println(tomasulo.FormatStations(scheduler))
	fmt.Println(tomasulo.FormatMemory(scheduler))

	stats := scheduler.Stats()
	fmt.Printf("\nCycles: %d\n", stats.Cycles)
	fmt.Printf("Issued: %d\n", stats.Issued)
	fmt.Printf("Retired: %d\n", stats.Retired)
	fmt.Printf("Structural stalls: %d\n", stats.StructuralStalls)
	fmt.Printf("Broadcasts: %d\n", stats.Broadcasts)
	fmt.Printf("CPI: %.2f\n", stats.CPI())
}

// parseMemory parses the -mem flag: comma-separated addr:value pairs.
func parseMemory(spec string) ([]emu.MemoryEntry, error) {
	if spec == "" {
		return nil, nil
	}

	var entries []emu.MemoryEntry
	for _, pair := range strings.Split(spec, ",") {
		addrText, valueText, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("bad memory entry %q, want addr:value", pair)
		}

		addr, err := strconv.ParseInt(strings.TrimSpace(addrText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad memory address %q", addrText)
		}

		value, err := strconv.ParseInt(strings.TrimSpace(valueText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad memory value %q", valueText)
		}

		entries = append(entries, emu.MemoryEntry{Address: addr, Value: value})
	}

	return entries, nil
}
