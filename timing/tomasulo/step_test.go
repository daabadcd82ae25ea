package tomasulo_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/emu"
	"github.com/sarchlab/tomsim/timing/tomasulo"
)

// findStation returns the snapshot of the named station.
func findStation(e *tomasulo.Engine, name string) tomasulo.Station {
	for _, s := range e.AllStations() {
		if s.Name == name {
			return s
		}
	}
	Fail("no station named " + name)
	return tomasulo.Station{}
}

var _ = Describe("Step", func() {
	Describe("Classic load/add/mul example", func() {
		var e *tomasulo.Engine

		BeforeEach(func() {
			e = tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 5},
				{Address: 1, Value: 10},
				{Address: 2, Value: 15},
			})
			e.LoadInstructions(mustDecode(`
				LD R1, 0
				ADD R2, R1, R1
				MUL R3, R2, R2
			`))
		})

		It("should produce R1=5, R2=10, R3=100", func() {
			runToQuiescence(e)

			regs := e.Registers()
			Expect(regs[1].Value).To(Equal(5.0))
			Expect(regs[2].Value).To(Equal(10.0))
			Expect(regs[3].Value).To(Equal(100.0))
		})

		It("should finish in 15 cycles with the default latencies", func() {
			// LD commits at cycle 3, ADD at 5, MUL at 15 (2+2+10,
			// each countdown starting the cycle after wake-up).
			runToQuiescence(e)

			Expect(e.Cycle()).To(Equal(uint64(15)))
			Expect(e.Stats().Retired).To(Equal(uint64(3)))
			Expect(e.Stats().CPI()).To(Equal(5.0))
		})

		It("should hold ADD's operands as tags until the load broadcasts", func() {
			Expect(e.Step()).To(Succeed()) // LD issues
			Expect(e.Step()).To(Succeed()) // ADD issues, waits on Load1

			add1 := findStation(e, "Add1")
			Expect(add1.Busy).To(BeTrue())
			Expect(add1.Qj).To(Equal("Load1"))
			Expect(add1.Qk).To(Equal("Load1"))
			Expect(add1.Executing).To(BeFalse())
		})

		It("should commit the load at cycle 3", func() {
			for i := 0; i < 2; i++ {
				Expect(e.Step()).To(Succeed())
			}
			Expect(e.Registers()[1].Value).To(Equal(0.0))

			Expect(e.Step()).To(Succeed())

			Expect(e.Cycle()).To(Equal(uint64(3)))
			Expect(e.Registers()[1].Value).To(Equal(5.0))
			Expect(e.Registers()[1].Tag).To(BeEmpty())
		})

		It("should rename destinations at issue", func() {
			Expect(e.Step()).To(Succeed())

			Expect(e.Registers()[1].Tag).To(Equal("Load1"))

			Expect(e.Step()).To(Succeed())

			Expect(e.Registers()[2].Tag).To(Equal("Add1"))
		})
	})

	Describe("Latency fidelity", func() {
		// One instruction with ready operands: issue and start at cycle 1,
		// count down one per following cycle, write back when the countdown
		// hits zero. Completion cycle is therefore 1 + latency.
		DescribeTable("completion cycle is issue plus full latency",
			func(program string, wantCycles uint64) {
				e := tomasulo.NewEngine(tomasulo.Config{})
				e.LoadInstructions(mustDecode(program))

				runToQuiescence(e)

				Expect(e.Cycle()).To(Equal(wantCycles))
			},
			Entry("ADD takes 2 cycles", "ADD R1, R2, R3", uint64(3)),
			Entry("SUB takes 2 cycles", "SUB R1, R2, R3", uint64(3)),
			Entry("MUL takes 10 cycles", "MUL R1, R2, R3", uint64(11)),
			Entry("DIV takes 40 cycles", "DIV R1, R2, R3", uint64(41)),
			Entry("LD takes 2 cycles", "LD R1, 0", uint64(3)),
		)
	})

	Describe("In-order, width-1 issue", func() {
		It("should not let a later instruction bypass a stalled head", func() {
			e := tomasulo.NewEngine(tomasulo.Config{LoadStations: 1})
			e.LoadInstructions(mustDecode(`
				LD R1, 0
				LD R2, 1
				ADD R3, R4, R5
			`))

			Expect(e.Step()).To(Succeed()) // LD R1 claims the only load station
			Expect(e.Step()).To(Succeed()) // LD R2 stalls; ADD must wait behind it

			Expect(e.PendingCount()).To(Equal(2))
			for _, s := range e.Stations(tomasulo.KindAdd) {
				Expect(s.Busy).To(BeFalse())
			}
			Expect(e.Stats().StructuralStalls).To(BeNumerically(">", 0))
		})
	})

	Describe("Structural hazard stall", func() {
		It("should keep a second load queued until the first writes back", func() {
			e := tomasulo.NewEngine(tomasulo.Config{LoadStations: 1})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 5},
				{Address: 1, Value: 7},
			})
			e.LoadInstructions(mustDecode("LD R1, 0\nLD R2, 1"))

			Expect(e.Step()).To(Succeed()) // cycle 1: first load issues
			Expect(e.PendingCount()).To(Equal(1))

			Expect(e.Step()).To(Succeed()) // cycle 2: stalled
			Expect(e.Step()).To(Succeed()) // cycle 3: still stalled; first writes back
			Expect(e.PendingCount()).To(Equal(1))
			Expect(e.Registers()[1].Value).To(Equal(5.0))

			Expect(e.Step()).To(Succeed()) // cycle 4: second load issues
			Expect(e.PendingCount()).To(Equal(0))
			Expect(findStation(e, "Load1").Busy).To(BeTrue())

			runToQuiescence(e)
			Expect(e.Registers()[2].Value).To(Equal(7.0))
		})
	})

	Describe("Same-cycle wake-up", func() {
		It("should promote a woken station with its full latency", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{{Address: 0, Value: 5}})
			e.LoadInstructions(mustDecode("LD R1, 0\nADD R2, R1, R1"))

			// Cycle 3: the load broadcasts and the ADD is promoted in the
			// same writeback phase, countdown untouched until cycle 4.
			for i := 0; i < 3; i++ {
				Expect(e.Step()).To(Succeed())
			}

			add1 := findStation(e, "Add1")
			Expect(add1.Executing).To(BeTrue())
			Expect(add1.Remaining).To(Equal(uint64(2)))

			// Cycle 4: first countdown step.
			Expect(e.Step()).To(Succeed())
			Expect(findStation(e, "Add1").Remaining).To(Equal(uint64(1)))

			// Cycle 5: countdown hits zero and the ADD commits.
			Expect(e.Step()).To(Succeed())
			Expect(findStation(e, "Add1").Busy).To(BeFalse())
			Expect(e.Registers()[2].Value).To(Equal(10.0))
		})
	})

	Describe("Register renaming and WAW behavior", func() {
		It("should let an older producer clobber a newer rename on writeback", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 5},
				{Address: 1, Value: 7},
			})
			e.LoadInstructions(mustDecode("LD R1, 0\nLD R1, 1"))

			// Cycle 3: the first load commits unconditionally, erasing the
			// second load's rename. The intended invariant would keep
			// R1's producer as Load2 here; the reference behavior does not.
			for i := 0; i < 3; i++ {
				Expect(e.Step()).To(Succeed())
			}
			Expect(e.Registers()[1].Value).To(Equal(5.0))
			Expect(e.Registers()[1].Tag).To(BeEmpty())

			runToQuiescence(e)
			Expect(e.Registers()[1].Value).To(Equal(7.0))
		})

		It("should commit out of order in the default mode", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 10},
				{Address: 1, Value: 2},
			})
			// The DIV writes R1 last even though the ADD renamed R1 after
			// it: the stale producer's result lands on top.
			e.LoadInstructions(mustDecode(`
				LD R2, 0
				LD R3, 1
				DIV R1, R2, R3
				ADD R1, R4, R5
			`))

			runToQuiescence(e)

			Expect(e.Registers()[1].Value).To(Equal(5.0))
		})

		It("should suppress the stale commit in strict mode", func() {
			e := tomasulo.NewEngine(tomasulo.Config{}, tomasulo.WithStrictCommit())
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 10},
				{Address: 1, Value: 2},
			})
			e.LoadInstructions(mustDecode(`
				LD R2, 0
				LD R3, 1
				DIV R1, R2, R3
				ADD R1, R4, R5
			`))

			runToQuiescence(e)

			// The ADD (R4+R5 = 0) is the newest producer of R1 and wins.
			Expect(e.Registers()[1].Value).To(Equal(0.0))
		})

		It("should still broadcast in strict mode", func() {
			e := tomasulo.NewEngine(tomasulo.Config{}, tomasulo.WithStrictCommit())
			e.InitMemory([]emu.MemoryEntry{{Address: 0, Value: 5}})
			e.LoadInstructions(mustDecode("LD R1, 0\nADD R2, R1, R1"))

			runToQuiescence(e)

			Expect(e.Registers()[2].Value).To(Equal(10.0))
		})
	})

	Describe("Division", func() {
		It("should perform real-number division", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 7},
				{Address: 1, Value: 2},
			})
			e.LoadInstructions(mustDecode("LD R1, 0\nLD R2, 1\nDIV R3, R1, R2"))

			runToQuiescence(e)

			Expect(e.Registers()[3].Value).To(Equal(3.5))
		})

		It("should yield infinity on division by zero", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{{Address: 0, Value: 5}})
			e.LoadInstructions(mustDecode("LD R1, 0\nDIV R2, R1, R3"))

			runToQuiescence(e)

			Expect(math.IsInf(e.Registers()[2].Value, 1)).To(BeTrue())
		})
	})

	Describe("Store instructions", func() {
		It("should fail fast with no state mutated", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.LoadInstructions(mustDecode("SD R1, 0"))

			err := e.Step()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("store instructions are not implemented"))
			Expect(e.Cycle()).To(Equal(uint64(0)))
			Expect(e.PendingCount()).To(Equal(1))
			Expect(e.Stats()).To(BeZero())
		})

		It("should fail on a store queued behind a retired identity", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			program := mustDecode("ADD R1, R2, R3")
			e.LoadInstructions(program)
			runToQuiescence(e)
			cycles := e.Cycle()

			// The retired ADD instance is ahead of the store; it must not
			// shield the store from the head check.
			e.LoadInstructions(append(program[:1:1], mustDecode("SD R5, 0")...))
			err := e.Step()

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("store instructions are not implemented"))
			Expect(e.Cycle()).To(Equal(cycles))
			Expect(e.Stats().Issued).To(Equal(uint64(1)))
			for _, s := range e.AllStations() {
				Expect(s.Busy).To(BeFalse())
			}
		})

		It("should only fail once the store reaches the head", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.LoadInstructions(mustDecode("ADD R1, R2, R3\nSD R1, 0"))

			Expect(e.Step()).To(Succeed()) // ADD issues
			Expect(e.Step()).To(HaveOccurred())
			Expect(e.Cycle()).To(Equal(uint64(1)))
		})
	})

	Describe("Retired instruction identities", func() {
		It("should drop a re-queued retired instruction without re-issuing", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			program := mustDecode("ADD R1, R2, R3")
			e.LoadInstructions(program)
			runToQuiescence(e)
			Expect(e.Stats().Issued).To(Equal(uint64(1)))

			e.LoadInstructions(program) // the same instruction instance
			Expect(e.Step()).To(Succeed())

			Expect(e.Done()).To(BeTrue())
			Expect(e.Stats().Issued).To(Equal(uint64(1)))
		})

		It("should issue a fresh decode of the same text", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.LoadInstructions(mustDecode("ADD R1, R2, R3"))
			runToQuiescence(e)

			e.LoadInstructions(mustDecode("ADD R1, R2, R3"))
			Expect(e.Step()).To(Succeed())

			Expect(e.Stats().Issued).To(Equal(uint64(2)))
		})
	})

	Describe("Deterministic replay", func() {
		// One observation per cycle: registers, stations, memory.
		type cycleState struct {
			regs     [emu.NumRegisters]emu.Register
			stations []tomasulo.Station
			memory   []emu.MemoryEntry
		}

		capture := func(e *tomasulo.Engine) cycleState {
			return cycleState{
				regs:     e.Registers(),
				stations: e.AllStations(),
				memory:   e.MemorySnapshot(),
			}
		}

		It("should reproduce an identical trace after reset", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})
			e.InitMemory([]emu.MemoryEntry{
				{Address: 0, Value: 5},
				{Address: 1, Value: 10},
				{Address: 2, Value: 15},
			})
			program := mustDecode(`
				LD R1, 0
				ADD R2, R1, R1
				MUL R3, R2, R2
				SUB R4, R3, R2
			`)

			e.LoadInstructions(program)
			var first []cycleState
			for !e.Done() {
				Expect(e.Step()).To(Succeed())
				first = append(first, capture(e))
			}

			e.Reset()
			e.LoadInstructions(program)
			var second []cycleState
			for !e.Done() {
				Expect(e.Step()).To(Succeed())
				second = append(second, capture(e))
			}

			Expect(second).To(Equal(first))
		})
	})

	Describe("Idle stepping", func() {
		It("should advance the clock with nothing to do", func() {
			e := tomasulo.NewEngine(tomasulo.Config{})

			Expect(e.Step()).To(Succeed())
			Expect(e.Step()).To(Succeed())

			Expect(e.Cycle()).To(Equal(uint64(2)))
			Expect(e.Done()).To(BeTrue())
		})
	})
})
