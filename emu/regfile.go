// Package emu provides the architectural machine state shared by the
// scheduling engine: the register file and the data memory.
package emu

// NumRegisters is the architectural register count (R0-R31).
const NumRegisters = 32

// Register is one register-file entry. While Tag is non-empty the stored
// value is stale: the reservation station named by Tag is still computing
// the register's next value, and issuing instructions must capture the tag
// instead of the value.
type Register struct {
	// Value is the last committed value.
	Value float64

	// Tag names the reservation station that will produce the next value.
	// Empty means the value is current.
	Tag string
}

// RegFile represents the register file: 32 registers, each holding a value
// and an optional producing-station tag.
type RegFile struct {
	regs [NumRegisters]Register
}

// NewRegFile creates a register file with all values zero and no producers.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// Read returns the register's committed value and its producing tag.
// An empty tag means the value is current and safe to use as an operand.
func (r *RegFile) Read(reg uint8) (float64, string) {
	entry := r.regs[reg]
	return entry.Value, entry.Tag
}

// Rename records the given station tag as the register's pending producer.
// Called at issue time; this is what makes WAR/WAW hazards disappear.
func (r *RegFile) Rename(reg uint8, tag string) {
	r.regs[reg].Tag = tag
}

// Commit stores a value and clears the pending producer. The caller decides
// whether the committing station is still the register's current producer;
// Commit itself is unconditional.
func (r *RegFile) Commit(reg uint8, value float64) {
	r.regs[reg].Value = value
	r.regs[reg].Tag = ""
}

// Snapshot returns a copy of all register entries, indexed by register.
func (r *RegFile) Snapshot() [NumRegisters]Register {
	return r.regs
}

// Reset clears every register to value 0 with no pending producer.
func (r *RegFile) Reset() {
	r.regs = [NumRegisters]Register{}
}
