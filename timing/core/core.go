// Package core runs the scheduling engine as an Akita simulation component.
// It wraps the engine so a whole run can be driven by an Akita event engine,
// one scheduler cycle per tick.
package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tomsim/timing/tomasulo"
)

// Core is a ticking component that advances the wrapped scheduling engine
// by one cycle per tick until the engine is quiescent.
type Core struct {
	*sim.TickingComponent

	scheduler *tomasulo.Engine
	maxCycles uint64
	err       error
}

// Tick advances the scheduler one cycle. Progress stops once the scheduler
// is quiescent, a step has failed, or the cycle limit is exhausted.
func (c *Core) Tick() (madeProgress bool) {
	if c.err != nil || c.scheduler.Done() {
		return false
	}

	if c.maxCycles > 0 && c.scheduler.Cycle() >= c.maxCycles {
		c.err = fmt.Errorf("cycle limit of %d reached", c.maxCycles)
		return false
	}

	if err := c.scheduler.Step(); err != nil {
		c.err = err
		return false
	}

	return true
}

// Scheduler returns the wrapped scheduling engine.
func (c *Core) Scheduler() *tomasulo.Engine {
	return c.scheduler
}

// Err returns the first step error encountered during ticking, nil if none.
func (c *Core) Err() error {
	return c.err
}

// Run schedules the first tick and runs the event engine until no work is
// left, returning the first scheduling error if one occurred.
func (c *Core) Run() error {
	c.TickNow()

	if err := c.Engine.Run(); err != nil {
		return err
	}

	return c.err
}

// Builder can create cores.
type Builder struct {
	engine    sim.Engine
	freq      sim.Freq
	scheduler *tomasulo.Engine
	maxCycles uint64
}

// NewBuilder returns a builder with a 1 GHz default frequency.
func NewBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the Akita event engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency of the core.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithScheduler sets the scheduling engine the core drives.
func (b Builder) WithScheduler(scheduler *tomasulo.Engine) Builder {
	b.scheduler = scheduler
	return b
}

// WithMaxCycles bounds the run to the given number of scheduler cycles,
// 0 meaning unbounded. A run that hits the bound fails instead of ticking
// on forever.
func (b Builder) WithMaxCycles(limit uint64) Builder {
	b.maxCycles = limit
	return b
}

// Build creates a core.
func (b Builder) Build(name string) *Core {
	if b.engine == nil {
		panic("core requires an event engine")
	}
	if b.scheduler == nil {
		panic("core requires a scheduling engine")
	}

	c := &Core{scheduler: b.scheduler, maxCycles: b.maxCycles}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
