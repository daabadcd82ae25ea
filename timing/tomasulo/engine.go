package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/timing/latency"
)

// Config sets the reservation-station pool sizes.
type Config struct {
	// AdditiveStations is the size of the ADD/SUB pool. Default: 3.
	AdditiveStations int

	// MultiplicativeStations is the size of the MUL/DIV pool. Default: 2.
	MultiplicativeStations int

	// LoadStations is the size of the LD pool. Default: 2.
	LoadStations int
}

// DefaultConfig returns the default pool sizes.
func DefaultConfig() Config {
	return Config{
		AdditiveStations:       3,
		MultiplicativeStations: 2,
		LoadStations:           2,
	}
}

// Statistics holds scheduling statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Issued is the number of instructions issued to a station.
	Issued uint64
	// Retired is the number of instructions that reached writeback.
	Retired uint64
	// StructuralStalls is the number of cycles issue stalled for want of a
	// free station.
	StructuralStalls uint64
	// Broadcasts is the number of operand tags resolved by result broadcast.
	Broadcasts uint64
}

// CPI returns the cycles per retired instruction.
func (s Statistics) CPI() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Retired)
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLatencyTable sets a custom latency table for instruction timing.
func WithLatencyTable(table *latency.Table) Option {
	return func(e *Engine) {
		e.latencyTable = table
	}
}

// WithStrictCommit makes writeback skip the register-file commit when the
// completing station is no longer the register's current producer. The
// default (permissive) mode commits unconditionally, reproducing the
// transient WAW clobber of the original scheduler. Broadcasts to waiting
// stations are unaffected either way.
func WithStrictCommit() Option {
	return func(e *Engine) {
		e.strictCommit = true
	}
}

// Engine owns the station pools, register file, memory, and the pending
// instruction queue, and advances them one cycle per Step call.
//
// The Engine performs no internal locking; the caller is responsible for
// serializing calls to Step. Given identical configuration, memory, and
// instruction sequence, the cycle-by-cycle trace is fully reproducible.
type Engine struct {
	addPool  *Pool
	mulPool  *Pool
	loadPool *Pool

	regFile *emu.RegFile
	memory  *emu.Memory

	queue     []*insts.Instruction
	completed map[*insts.Instruction]struct{}

	latencyTable *latency.Table
	strictCommit bool

	cycle uint64
	stats Statistics
}

// NewEngine creates an engine with the given pool sizes. Non-positive pool
// sizes fall back to the defaults.
func NewEngine(config Config, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if config.AdditiveStations <= 0 {
		config.AdditiveStations = defaults.AdditiveStations
	}
	if config.MultiplicativeStations <= 0 {
		config.MultiplicativeStations = defaults.MultiplicativeStations
	}
	if config.LoadStations <= 0 {
		config.LoadStations = defaults.LoadStations
	}

	e := &Engine{
		addPool:   NewPool(KindAdd, config.AdditiveStations),
		mulPool:   NewPool(KindMul, config.MultiplicativeStations),
		loadPool:  NewPool(KindLoad, config.LoadStations),
		regFile:   emu.NewRegFile(),
		memory:    emu.NewMemory(),
		completed: make(map[*insts.Instruction]struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.latencyTable == nil {
		e.latencyTable = latency.NewTable()
	}

	return e
}

// InitMemory loads an ordered sequence of address/value entries into the
// data memory. Later entries for the same address overwrite earlier ones.
func (e *Engine) InitMemory(entries []emu.MemoryEntry) {
	e.memory.Init(entries)
}

// LoadInstructions replaces the pending queue wholesale with the given
// ordered sequence.
func (e *Engine) LoadInstructions(sequence []*insts.Instruction) {
	e.queue = append(e.queue[:0:0], sequence...)
}

// Reset reinitializes the instruction-flow state: registers to zero with no
// producers, every station to idle, clock to 0, queue and completed set
// emptied. Memory contents and pool sizing persist from construction.
func (e *Engine) Reset() {
	e.regFile.Reset()
	for _, pool := range e.pools() {
		for _, s := range pool.Stations {
			s.Clear()
		}
	}
	e.queue = nil
	e.completed = make(map[*insts.Instruction]struct{})
	e.cycle = 0
	e.stats = Statistics{}
}

// Cycle returns the current cycle counter.
func (e *Engine) Cycle() uint64 {
	return e.cycle
}

// Registers returns a snapshot of the register file.
func (e *Engine) Registers() [emu.NumRegisters]emu.Register {
	return e.regFile.Snapshot()
}

// Stations returns a snapshot of the given pool in declaration order.
func (e *Engine) Stations(kind Kind) []Station {
	switch kind {
	case KindAdd:
		return e.addPool.Snapshot()
	case KindMul:
		return e.mulPool.Snapshot()
	case KindLoad:
		return e.loadPool.Snapshot()
	default:
		panic(fmt.Sprintf("unknown station kind %d", kind))
	}
}

// AllStations returns a snapshot of every station, additive pool first,
// then multiplicative, then load.
func (e *Engine) AllStations() []Station {
	var stations []Station
	for _, pool := range e.pools() {
		stations = append(stations, pool.Snapshot()...)
	}
	return stations
}

// MemorySnapshot returns the populated memory entries ordered by address.
func (e *Engine) MemorySnapshot() []emu.MemoryEntry {
	return e.memory.Snapshot()
}

// PendingCount returns the number of instructions still awaiting issue.
func (e *Engine) PendingCount() int {
	return len(e.queue)
}

// Done reports quiescence: the queue is empty and no station is busy.
// The simulation has no terminal state of its own; done is an external
// observation.
func (e *Engine) Done() bool {
	if len(e.queue) > 0 {
		return false
	}
	for _, pool := range e.pools() {
		for _, s := range pool.Stations {
			if s.Busy {
				return false
			}
		}
	}
	return true
}

// Stats returns the scheduling statistics.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// pools returns the pools in their fixed iteration order.
func (e *Engine) pools() [3]*Pool {
	return [3]*Pool{e.addPool, e.mulPool, e.loadPool}
}
