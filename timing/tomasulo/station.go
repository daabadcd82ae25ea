// Package tomasulo implements the Tomasulo dynamic-scheduling engine:
// register renaming through station tags, reservation-station structural
// hazard resolution, and broadcast-based operand wake-up.
//
// The engine advances one logical cycle per Step call, running issue,
// execute, and writeback in that fixed order. There is no internal
// concurrency; "parallelism" among stations is simulated by iterating all
// of them inside one synchronous Step.
package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomsim/insts"
)

// Kind identifies a reservation-station pool. ADD and SUB share the
// additive pool; MUL and DIV share the multiplicative pool.
type Kind uint8

// Station pool kinds.
const (
	KindAdd Kind = iota
	KindMul
	KindLoad
)

// String returns the pool's tag prefix.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "Add"
	case KindMul:
		return "Mul"
	case KindLoad:
		return "Load"
	default:
		return "?"
	}
}

// KindForOp maps an operation to the pool that executes it. Store maps to
// no pool; ok is false for it and for unknown operations.
func KindForOp(op insts.Op) (kind Kind, ok bool) {
	switch op {
	case insts.OpAdd, insts.OpSub:
		return KindAdd, true
	case insts.OpMul, insts.OpDiv:
		return KindMul, true
	case insts.OpLoad:
		return KindLoad, true
	default:
		return 0, false
	}
}

// Station is one reservation station. A station is either idle (Busy false,
// every other field zero) or holds exactly one in-flight instruction.
//
// For each operand, exactly one of {value, tag} holds once an instruction is
// issued: Qj empty means Vj is a concrete value, Qj non-empty means the
// operand is waiting for the station named Qj to broadcast. Loads have no
// register operands, so both tag slots stay empty and the station is ready
// immediately.
type Station struct {
	// Name is the station's tag, unique across all pools (e.g. "Add1").
	Name string

	// Kind is the pool this station belongs to.
	Kind Kind

	// Busy reports whether the station holds an in-flight instruction.
	Busy bool

	// Op is the operation being performed.
	Op insts.Op

	// Vj and Vk are the operand values, valid while the matching tag is empty.
	Vj float64
	Vk float64

	// Qj and Qk name the stations that will produce the operands.
	Qj string
	Qk string

	// Dest is the destination register index.
	Dest uint8

	// Imm is the memory address for loads.
	Imm int64

	// Remaining is the countdown of execution cycles left.
	Remaining uint64

	// Executing reports whether the countdown has been started.
	Executing bool

	// inst is the in-flight instruction instance, tracked by identity.
	inst *insts.Instruction
}

// Ready reports whether both operand slots are resolved to values.
func (s *Station) Ready() bool {
	return s.Busy && s.Qj == "" && s.Qk == ""
}

// Clear resets the station to idle, keeping its name and kind.
func (s *Station) Clear() {
	*s = Station{Name: s.Name, Kind: s.Kind}
}

// Pool is a fixed-size set of reservation stations of one kind. Stations
// are scanned in declaration order; that order is the tie-break for
// structural-hazard allocation.
type Pool struct {
	Kind     Kind
	Stations []*Station
}

// NewPool creates a pool of size stations named Kind1..KindN.
func NewPool(kind Kind, size int) *Pool {
	p := &Pool{Kind: kind}
	for i := 0; i < size; i++ {
		p.Stations = append(p.Stations, &Station{
			Name: fmt.Sprintf("%v%d", kind, i+1),
			Kind: kind,
		})
	}
	return p
}

// FindFree returns the first idle station in declaration order, nil if the
// pool is fully occupied.
func (p *Pool) FindFree() *Station {
	for _, s := range p.Stations {
		if !s.Busy {
			return s
		}
	}
	return nil
}

// Snapshot returns copies of all stations in declaration order.
func (p *Pool) Snapshot() []Station {
	stations := make([]Station, len(p.Stations))
	for i, s := range p.Stations {
		stations[i] = *s
	}
	return stations
}
