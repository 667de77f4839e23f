package emu

import "github.com/sarchlab/rvamo/insts"

// LoadStoreUnit performs the single-access loads and stores an atomic
// instruction is built from, at the instruction's operand width.
type LoadStoreUnit struct {
	xlen XLEN
}

// NewLoadStoreUnit creates a LoadStoreUnit for a hart of the given width.
func NewLoadStoreUnit(xlen XLEN) *LoadStoreUnit {
	return &LoadStoreUnit{xlen: xlen}
}

// Supports reports whether width is a legal operand width on this hart.
// Doubleword operations exist only on 64-bit harts.
func (lsu *LoadStoreUnit) Supports(width insts.Width) bool {
	switch width {
	case insts.WidthWord:
		return true
	case insts.WidthDoubleword:
		return lsu.xlen == XLEN64
	default:
		return false
	}
}

// Load reads the raw operand at addr, truncated to width.
func (lsu *LoadStoreUnit) Load(m DataMemory, addr uint64, width insts.Width) (uint64, error) {
	v, err := m.ReadWord(lsu.Address(addr), width)
	if err != nil {
		return 0, err
	}
	return truncate(v, width.Bits()), nil
}

// Store writes the low width bits of value at addr.
func (lsu *LoadStoreUnit) Store(m DataMemory, addr uint64, width insts.Width, value uint64) error {
	return m.WriteWord(lsu.Address(addr), width, truncate(value, width.Bits()))
}

// Address truncates an effective address to the hart's width.
func (lsu *LoadStoreUnit) Address(addr uint64) uint64 {
	return addr & lsu.xlen.Mask()
}

// RegValue converts a loaded operand to the value written to rd:
// sign-extended from the operand width and truncated to XLEN.
func (lsu *LoadStoreUnit) RegValue(v uint64, width insts.Width) uint64 {
	return uint64(signExtend(v, width.Bits())) & lsu.xlen.Mask()
}

func truncate(v uint64, bits uint) uint64 {
	if bits >= 64 {
		return v
	}
	return v & (1<<bits - 1)
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
