// Package latency provides instruction timing models for the scheduling
// engine.
//
// The latency values follow the classic Tomasulo teaching configuration
// (Add/Sub 2, Mul 10, Div 40, Load 2) and can be changed via TimingConfig.
package latency

import (
	"github.com/sarchlab/tomsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with the default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// operation. The countdown starts when both operands are resolved, not at
// issue. Unknown operations report 1.
func (t *Table) GetLatency(op insts.Op) uint64 {
	switch op {
	case insts.OpAdd, insts.OpSub:
		return t.config.AddSubLatency

	case insts.OpMul:
		return t.config.MultiplyLatency

	case insts.OpDiv:
		return t.config.DivideLatency

	case insts.OpLoad:
		return t.config.LoadLatency

	default:
		return 1
	}
}

// IsMemoryOp returns true if the operation accesses memory.
func (t *Table) IsMemoryOp(op insts.Op) bool {
	return op == insts.OpLoad || op == insts.OpStore
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
