package emu

import "sort"

// MemoryEntry is one address/value pair of the data memory.
type MemoryEntry struct {
	Address int64 `json:"address"`
	Value   int64 `json:"value"`
}

// Memory is a sparse address-to-value store. Addresses that were never
// written read as 0.
type Memory struct {
	cells map[int64]int64
}

// NewMemory creates an empty sparse memory.
func NewMemory() *Memory {
	return &Memory{
		cells: make(map[int64]int64),
	}
}

// Read returns the value at the given address, 0 if unset.
func (m *Memory) Read(addr int64) int64 {
	return m.cells[addr]
}

// Write stores a value at the given address.
func (m *Memory) Write(addr, value int64) {
	m.cells[addr] = value
}

// Init loads an ordered sequence of entries. Later entries for the same
// address overwrite earlier ones.
func (m *Memory) Init(entries []MemoryEntry) {
	for _, entry := range entries {
		m.cells[entry.Address] = entry.Value
	}
}

// Snapshot returns all populated entries ordered by ascending address.
func (m *Memory) Snapshot() []MemoryEntry {
	entries := make([]MemoryEntry, 0, len(m.cells))
	for addr, value := range m.cells {
		entries = append(entries, MemoryEntry{Address: addr, Value: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Address < entries[j].Address
	})

	return entries
}
