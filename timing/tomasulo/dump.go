package tomasulo

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// FormatRegisters renders the register file as a text table.
func FormatRegisters(e *Engine) string {
	w := table.NewWriter()
	w.SetTitle("Registers (cycle %d)", e.Cycle())
	w.AppendHeader(table.Row{"Register", "Value", "Producer"})

	for i, reg := range e.Registers() {
		producer := reg.Tag
		if producer == "" {
			producer = "-"
		}
		w.AppendRow(table.Row{fmt.Sprintf("R%d", i), formatValue(reg.Value), producer})
	}

	return w.Render()
}

// FormatStations renders every reservation station as a text table,
// additive pool first, then multiplicative, then load.
func FormatStations(e *Engine) string {
	w := table.NewWriter()
	w.SetTitle("Reservation Stations (cycle %d)", e.Cycle())
	w.AppendHeader(table.Row{"Station", "Busy", "Op", "Vj", "Vk", "Qj", "Qk", "Dest", "Imm", "Time"})

	for _, s := range e.AllStations() {
		if !s.Busy {
			w.AppendRow(table.Row{s.Name, "no", "", "", "", "", "", "", "", ""})
			continue
		}

		remaining := "-"
		if s.Executing {
			remaining = fmt.Sprintf("%d", s.Remaining)
		}
		w.AppendRow(table.Row{
			s.Name, "yes", s.Op.String(),
			operandValue(s.Vj, s.Qj), operandValue(s.Vk, s.Qk),
			s.Qj, s.Qk,
			fmt.Sprintf("R%d", s.Dest), s.Imm, remaining,
		})
	}

	return w.Render()
}

// FormatMemory renders the populated memory entries ordered by address.
func FormatMemory(e *Engine) string {
	w := table.NewWriter()
	w.SetTitle("Memory")
	w.AppendHeader(table.Row{"Address", "Value"})

	for _, entry := range e.MemorySnapshot() {
		w.AppendRow(table.Row{entry.Address, entry.Value})
	}

	return w.Render()
}

// operandValue shows an operand's value, blank while it still waits on a tag.
func operandValue(value float64, tag string) string {
	if tag != "" {
		return ""
	}
	return formatValue(value)
}

// formatValue trims trailing zeros so integral results print as integers.
func formatValue(value float64) string {
	return fmt.Sprintf("%g", value)
}
