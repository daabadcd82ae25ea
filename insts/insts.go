// Package insts provides the instruction model and text decoding.
//
// This package turns assembly-style text into structured instruction
// records consumed by the scheduling engine. It supports:
//   - Arithmetic: ADD, SUB, MUL, DIV with two register sources
//   - Memory: LD (load from a constant address), SD (accepted syntactically,
//     not executable by the engine)
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("ADD R2, R1, R1")
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
//
// Instructions are handed around as pointers. Pointer identity is the
// instruction's identity: two decoded instructions with identical fields are
// still distinct in-flight entities to the engine.
package insts
