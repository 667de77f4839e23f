package insts

import "encoding/binary"

// Located is an atomic instruction found in a code buffer.
type Located struct {
	Addr uint64
	Inst *Instruction
}

// instLength returns the length in bytes of the instruction whose low
// halfword is lo. Encodings longer than 32 bits are not used by any
// supported target and are stepped over as 32-bit.
func instLength(lo uint16) int {
	if lo&0b11 != 0b11 {
		return 2
	}
	return 4
}

// Scan walks a little-endian code buffer loaded at base and returns every
// instruction carrying the AMO opcode, including ones with an unknown
// funct5. Compressed 16-bit instructions are stepped over.
func Scan(code []byte, base uint64) []Located {
	decoder := NewDecoder()
	var found []Located

	for off := 0; off+2 <= len(code); {
		lo := binary.LittleEndian.Uint16(code[off:])
		n := instLength(lo)
		if n == 2 {
			off += 2
			continue
		}
		if off+4 > len(code) {
			break
		}

		word := binary.LittleEndian.Uint32(code[off:])
		if IsAtomic(word) {
			found = append(found, Located{
				Addr: base + uint64(off),
				Inst: decoder.Decode(word),
			})
		}
		off += n
	}

	return found
}
