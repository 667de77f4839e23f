// Package insts provides RISC-V "A" extension instruction definitions and
// decoding.
//
// This package implements decoding of the AMO major opcode (0b0101111) into
// structured instruction representations. It supports:
//   - Load-reserved / store-conditional: LR, SC
//   - Atomic memory operations: AMOSWAP, AMOADD, AMOXOR, AMOAND, AMOOR,
//     AMOMIN, AMOMAX, AMOMINU, AMOMAXU
//   - Word (.w) and doubleword (.d) widths
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x1000a12f) // lr.w x2, (x1)
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d\n", inst.Op, inst.Rd, inst.Rs1)
package insts
