package tomasulo

import (
	"fmt"

	"github.com/sarchlab/tomsim/insts"
)

// Step advances the machine by one cycle, running issue, execute, and
// writeback in that fixed order.
//
// Step fails, with no state mutated and the clock not advanced, when the
// queue head is an instruction the engine cannot issue: a store (accepted
// by the grammar, but no pool claims it) or a malformed record. A
// structural hazard is not an error; the head simply waits for a station.
func (e *Engine) Step() error {
	if err := e.checkHead(); err != nil {
		return err
	}

	e.cycle++
	e.stats.Cycles++

	e.issue()
	e.execute()
	e.writeback()

	return nil
}

// checkHead validates the instruction about to be issued: the first queue
// entry that has not already retired. Retired identities are skipped here
// without being removed; issue drops them.
func (e *Engine) checkHead() error {
	for _, inst := range e.queue {
		if _, retired := e.completed[inst]; retired {
			continue
		}

		if inst.Op == insts.OpStore {
			return fmt.Errorf("store instructions are not implemented: %v", inst)
		}
		if _, ok := KindForOp(inst.Op); !ok {
			return fmt.Errorf("malformed instruction at queue head: %v", inst)
		}

		return nil
	}

	return nil
}

// issue places the queue head into a free station of the matching pool,
// capturing operands and renaming the destination register. Issue is
// strictly in-order with width 1: if no station is free, nothing issues
// this cycle.
func (e *Engine) issue() {
	// A retired instruction identity reappearing at the head is dropped
	// rather than re-issued; it does not consume the issue slot.
	for len(e.queue) > 0 {
		if _, retired := e.completed[e.queue[0]]; !retired {
			break
		}
		e.queue = e.queue[1:]
	}

	if len(e.queue) == 0 {
		return
	}

	head := e.queue[0]
	kind, ok := KindForOp(head.Op)
	if !ok {
		return
	}

	station := e.poolFor(kind).FindFree()
	if station == nil {
		e.stats.StructuralStalls++
		trace("IssueStall", "Cycle", e.cycle, "Inst", head.String())
		return
	}

	station.Busy = true
	station.Op = head.Op
	station.Dest = head.Rd
	station.Imm = head.Imm
	station.inst = head

	// Sources are captured before the destination is renamed, so an
	// instruction reading its own destination sees the previous producer.
	if head.Format == insts.FormatArith {
		if value, tag := e.regFile.Read(head.Rs); tag != "" {
			station.Qj = tag
		} else {
			station.Vj = value
		}
		if value, tag := e.regFile.Read(head.Rt); tag != "" {
			station.Qk = tag
		} else {
			station.Vk = value
		}
	}

	e.regFile.Rename(head.Rd, station.Name)
	e.queue = e.queue[1:]
	e.stats.Issued++

	trace("Issue", "Cycle", e.cycle, "Station", station.Name, "Inst", head.String())
}

// execute starts the countdown of every ready station that has not started
// yet, and decrements the countdown of those already executing. Stations
// with outstanding operand tags make no progress until a broadcast
// resolves them.
func (e *Engine) execute() {
	for _, pool := range e.pools() {
		for _, s := range pool.Stations {
			if !s.Ready() {
				continue
			}

			if !s.Executing {
				s.Executing = true
				s.Remaining = e.latencyTable.GetLatency(s.Op)
				trace("ExecuteStart", "Cycle", e.cycle, "Station", s.Name, "Latency", s.Remaining)
			} else if s.Remaining > 0 {
				s.Remaining--
			}
		}
	}
}

// writeback completes every executing station whose countdown has reached
// zero: it computes the result, commits it to the destination register,
// broadcasts it to every other waiting station, retires the instruction,
// and frees the station.
func (e *Engine) writeback() {
	for _, pool := range e.pools() {
		for _, s := range pool.Stations {
			if !s.Busy || !s.Executing || s.Remaining != 0 {
				continue
			}

			result := e.compute(s)
			e.commit(s, result)
			e.broadcast(s.Name, result)

			e.completed[s.inst] = struct{}{}
			e.stats.Retired++
			trace("Writeback", "Cycle", e.cycle, "Station", s.Name, "Result", result)

			s.Clear()
		}
	}
}

// compute evaluates a completing station's result. Division is real-number
// division; division by zero is not guarded and yields the float64 result
// (Inf or NaN).
func (e *Engine) compute(s *Station) float64 {
	switch s.Op {
	case insts.OpAdd:
		return s.Vj + s.Vk
	case insts.OpSub:
		return s.Vj - s.Vk
	case insts.OpMul:
		return s.Vj * s.Vk
	case insts.OpDiv:
		return s.Vj / s.Vk
	case insts.OpLoad:
		return float64(e.memory.Read(s.Imm))
	default:
		return 0
	}
}

// commit writes the result to the destination register. The default mode
// commits unconditionally even when a later-issued instruction has
// retargeted the register to a newer producer; strict mode skips the
// commit in that case and leaves the newer producer's rename intact.
func (e *Engine) commit(s *Station, result float64) {
	if e.strictCommit {
		if _, tag := e.regFile.Read(s.Dest); tag != s.Name {
			return
		}
	}
	e.regFile.Commit(s.Dest, result)
}

// broadcast publishes a completing station's result to every other busy
// station waiting on its tag. A station whose last missing operand arrives
// here is promoted to executing immediately, with its full latency, so its
// countdown begins next cycle rather than the one after.
func (e *Engine) broadcast(tag string, value float64) {
	for _, pool := range e.pools() {
		for _, s := range pool.Stations {
			if !s.Busy || s.Name == tag {
				continue
			}

			resolved := false
			if s.Qj == tag {
				s.Vj = value
				s.Qj = ""
				resolved = true
				e.stats.Broadcasts++
			}
			if s.Qk == tag {
				s.Vk = value
				s.Qk = ""
				resolved = true
				e.stats.Broadcasts++
			}

			if resolved && s.Ready() && !s.Executing {
				s.Executing = true
				s.Remaining = e.latencyTable.GetLatency(s.Op)
				trace("WakeUp", "Cycle", e.cycle, "Station", s.Name, "Latency", s.Remaining)
			}
		}
	}
}

// poolFor returns the pool that executes the given kind.
func (e *Engine) poolFor(kind Kind) *Pool {
	switch kind {
	case KindAdd:
		return e.addPool
	case KindMul:
		return e.mulPool
	case KindLoad:
		return e.loadPool
	default:
		panic(fmt.Sprintf("unknown station kind %d", kind))
	}
}
