// Package emu provides RISC-V "A" extension emulation against a saved trap
// frame.
package emu

import "fmt"

// XLEN is the native register width of the emulated hart.
type XLEN uint8

// Supported register widths.
const (
	XLEN32 XLEN = 32
	XLEN64 XLEN = 64
)

// Mask returns the bit mask covering one register of this width.
func (x XLEN) Mask() uint64 {
	if x == XLEN32 {
		return 0xFFFF_FFFF
	}
	return ^uint64(0)
}

// Valid reports whether x is a supported width.
func (x XLEN) Valid() bool {
	return x == XLEN32 || x == XLEN64
}

// ParseXLEN converts 32 or 64 into an XLEN.
func ParseXLEN(bits int) (XLEN, error) {
	x := XLEN(bits)
	if bits < 0 || bits > 255 || !x.Valid() {
		return 0, fmt.Errorf("unsupported XLEN %d", bits)
	}
	return x, nil
}

// NumRegs is the number of general-purpose registers in a trap frame.
const NumRegs = 32

// RegFile is the trap frame: the general-purpose registers x0-x31 and the
// faulting program counter, as saved by the host trap entry sequence.
//
// x0 is an ordinary slot here. Hardware hard-wires it to zero, but the trap
// frame is plain memory and valid code never targets it.
type RegFile struct {
	// X holds general-purpose registers x0-x31, zero-extended to 64 bits
	// on 32-bit harts.
	X [NumRegs]uint64

	// PC is the address of the faulting instruction.
	PC uint64
}

// ReadReg reads a register value. Only the low five bits of reg are used.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	return r.X[reg&(NumRegs-1)]
}

// WriteReg writes a register value. Only the low five bits of reg are used.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	r.X[reg&(NumRegs-1)] = value
}

var abiNames = [NumRegs]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// ABIName returns the calling-convention name of register reg (e.g. "a0").
func ABIName(reg uint8) string {
	return abiNames[reg&(NumRegs-1)]
}

// Standard calling-convention register indices.
const (
	RegRA uint8 = 1
	RegSP uint8 = 2
	RegT0 uint8 = 5
	RegT1 uint8 = 6
	RegT2 uint8 = 7
	RegA0 uint8 = 10
	RegA7 uint8 = 17
	RegT3 uint8 = 28
	RegT6 uint8 = 31
)
