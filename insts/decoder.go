package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Op represents an operation kind.
type Op uint8

// Operation kinds.
const (
	OpUnknown Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLoad
	OpStore
)

// String returns the assembly mnemonic for the operation.
func (op Op) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpSub:
		return "SUB"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpLoad:
		return "LD"
	case OpStore:
		return "SD"
	default:
		return "UNKNOWN"
	}
}

// Format represents an instruction operand format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatArith          // OP Rd, Rs, Rt
	FormatMem            // OP Rd, offset
)

// NumRegisters is the architectural register count (R0-R31).
const NumRegisters = 32

// Instruction represents a decoded instruction.
//
// Rs and Rt are only meaningful for FormatArith; Imm is only meaningful for
// FormatMem, where it is the absolute address of the memory access.
type Instruction struct {
	Op     Op     // Operation kind
	Format Format // Operand format

	Rd uint8 // Destination register
	Rs uint8 // First source register (arithmetic only)
	Rt uint8 // Second source register (arithmetic only)

	Imm int64 // Memory address for LD/SD
}

// String renders the instruction back to its assembly form.
func (i *Instruction) String() string {
	switch i.Format {
	case FormatArith:
		return fmt.Sprintf("%v R%d, R%d, R%d", i.Op, i.Rd, i.Rs, i.Rt)
	case FormatMem:
		return fmt.Sprintf("%v R%d, %d", i.Op, i.Rd, i.Imm)
	default:
		return "UNKNOWN"
	}
}

// Decoder decodes instruction text into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a single line of instruction text, e.g. "ADD R2, R1, R1"
// or "LD R1, 0". Mnemonics and register names are case-insensitive.
// An unrecognized mnemonic or a malformed operand list fails with a
// descriptive error; the engine never sees such a line.
func (d *Decoder) Decode(line string) (*Instruction, error) {
	text := stripComment(line)
	fields := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty instruction line")
	}

	mnemonic := strings.ToUpper(fields[0])
	operands := fields[1:]

	switch mnemonic {
	case "ADD":
		return d.decodeArith(OpAdd, operands)
	case "SUB":
		return d.decodeArith(OpSub, operands)
	case "MUL":
		return d.decodeArith(OpMul, operands)
	case "DIV":
		return d.decodeArith(OpDiv, operands)
	case "LD":
		return d.decodeMem(OpLoad, operands)
	case "SD":
		return d.decodeMem(OpStore, operands)
	default:
		return nil, fmt.Errorf("unsupported operation %q", mnemonic)
	}
}

// DecodeProgram decodes a multi-line program, skipping blank lines and
// comment-only lines. Errors carry the 1-based number of the offending line.
func (d *Decoder) DecodeProgram(text string) ([]*Instruction, error) {
	var program []*Instruction

	for n, line := range strings.Split(text, "\n") {
		if stripComment(line) == "" {
			continue
		}

		inst, err := d.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}

		program = append(program, inst)
	}

	return program, nil
}

// decodeArith decodes "Rd, Rs, Rt" operands.
func (d *Decoder) decodeArith(op Op, operands []string) (*Instruction, error) {
	if len(operands) != 3 {
		return nil, fmt.Errorf("%v expects 3 operands, got %d", op, len(operands))
	}

	rd, err := parseRegister(operands[0])
	if err != nil {
		return nil, err
	}
	rs, err := parseRegister(operands[1])
	if err != nil {
		return nil, err
	}
	rt, err := parseRegister(operands[2])
	if err != nil {
		return nil, err
	}

	return &Instruction{
		Op:     op,
		Format: FormatArith,
		Rd:     rd,
		Rs:     rs,
		Rt:     rt,
	}, nil
}

// decodeMem decodes "Rd, offset" operands.
func (d *Decoder) decodeMem(op Op, operands []string) (*Instruction, error) {
	if len(operands) != 2 {
		return nil, fmt.Errorf("%v expects 2 operands, got %d", op, len(operands))
	}

	rd, err := parseRegister(operands[0])
	if err != nil {
		return nil, err
	}

	offset, err := strconv.ParseInt(operands[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad offset %q", operands[1])
	}

	return &Instruction{
		Op:     op,
		Format: FormatMem,
		Rd:     rd,
		Imm:    offset,
	}, nil
}

// parseRegister parses a register name of the form R0..R31.
func parseRegister(name string) (uint8, error) {
	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "R") {
		return 0, fmt.Errorf("bad register %q", name)
	}

	index, err := strconv.Atoi(upper[1:])
	if err != nil || index < 0 || index >= NumRegisters {
		return 0, fmt.Errorf("bad register %q", name)
	}

	return uint8(index), nil
}

// stripComment removes ";" and "#" comments and surrounding whitespace.
func stripComment(line string) string {
	for _, marker := range []string{";", "#"} {
		if i := strings.Index(line, marker); i >= 0 {
			line = line[:i]
		}
	}
	return strings.TrimSpace(line)
}
