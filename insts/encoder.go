package insts

import "fmt"

var opFunct5 = func() map[Op]uint8 {
	m := make(map[Op]uint8, len(funct5Ops))
	for f, op := range funct5Ops {
		m[op] = f
	}
	return m
}()

// Encode builds the instruction word for op with the given width and
// register operands. The aq and rl bits are left clear. Register indices
// are truncated to 5 bits.
func Encode(op Op, width Width, rd, rs1, rs2 uint8) (uint32, error) {
	funct5, ok := opFunct5[op]
	if !ok {
		return 0, fmt.Errorf("cannot encode operation %v", op)
	}

	var funct3 uint8
	switch width {
	case WidthWord:
		funct3 = Funct3Word
	case WidthDoubleword:
		funct3 = Funct3Doubleword
	default:
		return 0, fmt.Errorf("cannot encode width %d", width)
	}

	if op == OpLR {
		rs2 = 0
	}

	word := uint32(funct5)<<funct5Shift |
		uint32(rs2&regMask)<<rs2Shift |
		uint32(rs1&regMask)<<rs1Shift |
		uint32(funct3)<<funct3Shift |
		uint32(rd&regMask)<<rdShift |
		OpcodeAMO

	return word, nil
}

// MustEncode is like Encode but panics on an unencodable operation or
// width. It is meant for tables of known-good instructions.
func MustEncode(op Op, width Width, rd, rs1, rs2 uint8) uint32 {
	word, err := Encode(op, width, rd, rs1, rs2)
	if err != nil {
		panic(err)
	}
	return word
}

// Mnemonic returns the full assembler mnemonic, including width and
// ordering suffixes, e.g. "amoadd.w.aqrl".
func (i *Instruction) Mnemonic() string {
	s := i.Op.String() + i.Width.Suffix()
	switch {
	case i.Aq && i.Rl:
		s += ".aqrl"
	case i.Aq:
		s += ".aq"
	case i.Rl:
		s += ".rl"
	}
	return s
}

// String renders the instruction in assembler syntax.
func (i *Instruction) String() string {
	switch i.Op {
	case OpUnknown:
		return fmt.Sprintf(".word 0x%08x", i.Word)
	case OpLR:
		return fmt.Sprintf("%s x%d, (x%d)", i.Mnemonic(), i.Rd, i.Rs1)
	default:
		return fmt.Sprintf("%s x%d, x%d, (x%d)", i.Mnemonic(), i.Rd, i.Rs2, i.Rs1)
	}
}
