package emu

import "github.com/sarchlab/rvamo/insts"

// amoFunc combines the old memory value a with the rs2 operand b. Both are
// already truncated to the operand width; bits is that width.
type amoFunc func(a, b uint64, bits uint) uint64

var amoTable = map[insts.Op]amoFunc{
	insts.OpAMOSWAP: func(_, b uint64, _ uint) uint64 { return b },
	insts.OpAMOADD:  func(a, b uint64, _ uint) uint64 { return a + b },
	insts.OpAMOXOR:  func(a, b uint64, _ uint) uint64 { return a ^ b },
	insts.OpAMOAND:  func(a, b uint64, _ uint) uint64 { return a & b },
	insts.OpAMOOR:   func(a, b uint64, _ uint) uint64 { return a | b },
	insts.OpAMOMIN: func(a, b uint64, bits uint) uint64 {
		if signExtend(a, bits) <= signExtend(b, bits) {
			return a
		}
		return b
	},
	insts.OpAMOMAX: func(a, b uint64, bits uint) uint64 {
		if signExtend(a, bits) >= signExtend(b, bits) {
			return a
		}
		return b
	},
	insts.OpAMOMINU: func(a, b uint64, _ uint) uint64 { return min(a, b) },
	insts.OpAMOMAXU: func(a, b uint64, _ uint) uint64 { return max(a, b) },
}

// ApplyAMO returns the value an AMO of the given op and width stores,
// given the old memory value and the rs2 operand. ok is false for LR, SC
// and unknown operations.
func ApplyAMO(op insts.Op, width insts.Width, old, operand uint64) (result uint64, ok bool) {
	f, ok := amoTable[op]
	if !ok || width.Bits() == 0 {
		return 0, false
	}
	bits := width.Bits()
	return truncate(f(truncate(old, bits), truncate(operand, bits), bits), bits), true
}
