// Package insts provides RISC-V "A" extension instruction definitions and
// decoding.
package insts

// OpcodeAMO is the major opcode shared by every A-extension instruction.
const OpcodeAMO uint32 = 0b0101111

// InstructionWidth is the size in bytes of one A-extension instruction.
// The trap shim advances the saved PC by this much after emulation.
const InstructionWidth = 4

// Field masks and shifts.
const (
	opcodeMask = 0x7F
	regMask    = 0x1F
	funct3Mask = 0x7
	funct5Mask = 0x1F

	rdShift     = 7
	funct3Shift = 12
	rs1Shift    = 15
	rs2Shift    = 20
	rlShift     = 25
	aqShift     = 26
	funct5Shift = 27
)

// funct5 values selecting the atomic operation.
const (
	Funct5AMOADD  uint8 = 0b00000
	Funct5AMOSWAP uint8 = 0b00001
	Funct5LR      uint8 = 0b00010
	Funct5SC      uint8 = 0b00011
	Funct5AMOXOR  uint8 = 0b00100
	Funct5AMOOR   uint8 = 0b01000
	Funct5AMOAND  uint8 = 0b01100
	Funct5AMOMIN  uint8 = 0b10000
	Funct5AMOMAX  uint8 = 0b10100
	Funct5AMOMINU uint8 = 0b11000
	Funct5AMOMAXU uint8 = 0b11100
)

// funct3 values selecting the operand width.
const (
	Funct3Word       uint8 = 0b010
	Funct3Doubleword uint8 = 0b011
)

// Op represents an A-extension operation.
type Op uint8

// A-extension operations.
const (
	OpUnknown Op = iota
	OpLR
	OpSC
	OpAMOSWAP
	OpAMOADD
	OpAMOXOR
	OpAMOAND
	OpAMOOR
	OpAMOMIN
	OpAMOMAX
	OpAMOMINU
	OpAMOMAXU
)

var funct5Ops = map[uint8]Op{
	Funct5LR:      OpLR,
	Funct5SC:      OpSC,
	Funct5AMOSWAP: OpAMOSWAP,
	Funct5AMOADD:  OpAMOADD,
	Funct5AMOXOR:  OpAMOXOR,
	Funct5AMOAND:  OpAMOAND,
	Funct5AMOOR:   OpAMOOR,
	Funct5AMOMIN:  OpAMOMIN,
	Funct5AMOMAX:  OpAMOMAX,
	Funct5AMOMINU: OpAMOMINU,
	Funct5AMOMAXU: OpAMOMAXU,
}

var opNames = [...]string{
	OpUnknown: "unknown",
	OpLR:      "lr",
	OpSC:      "sc",
	OpAMOSWAP: "amoswap",
	OpAMOADD:  "amoadd",
	OpAMOXOR:  "amoxor",
	OpAMOAND:  "amoand",
	OpAMOOR:   "amoor",
	OpAMOMIN:  "amomin",
	OpAMOMAX:  "amomax",
	OpAMOMINU: "amominu",
	OpAMOMAXU: "amomaxu",
}

// String returns the assembler mnemonic of the operation without its width
// suffix.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return opNames[OpUnknown]
}

// Ops returns every known operation in encoding-table order.
func Ops() []Op {
	return []Op{
		OpLR, OpSC, OpAMOSWAP, OpAMOADD, OpAMOXOR, OpAMOAND, OpAMOOR,
		OpAMOMIN, OpAMOMAX, OpAMOMINU, OpAMOMAXU,
	}
}

// IsAMO reports whether the operation is a read-modify-write AMO
// (everything except LR and SC).
func (op Op) IsAMO() bool {
	return op >= OpAMOSWAP && op <= OpAMOMAXU
}

// Width represents the memory operand width selected by funct3.
type Width uint8

// Operand widths.
const (
	WidthUnknown    Width = iota
	WidthWord             // .w, 32 bits
	WidthDoubleword       // .d, 64 bits
)

// Bits returns the operand size in bits, or 0 for an unknown width.
func (w Width) Bits() uint {
	switch w {
	case WidthWord:
		return 32
	case WidthDoubleword:
		return 64
	default:
		return 0
	}
}

// Bytes returns the operand size in bytes, or 0 for an unknown width.
func (w Width) Bytes() int {
	return int(w.Bits() / 8)
}

// Suffix returns the assembler width suffix (".w" or ".d").
func (w Width) Suffix() string {
	switch w {
	case WidthWord:
		return ".w"
	case WidthDoubleword:
		return ".d"
	default:
		return ".?"
	}
}

// Fields holds the raw operand fields of an A-extension instruction word.
type Fields struct {
	Rd     uint8 // bits [11:7]
	Funct3 uint8 // bits [14:12]
	Rs1    uint8 // bits [19:15], memory address
	Rs2    uint8 // bits [24:20], value operand (unused by LR)
	Rl     bool  // bit 25
	Aq     bool  // bit 26
	Funct5 uint8 // bits [31:27]
}

// Instruction represents a decoded A-extension instruction.
type Instruction struct {
	Fields

	Op    Op    // Operation selected by funct5
	Width Width // Operand width selected by funct3
	Word  uint32
}

// IsAtomic reports whether word carries the A-extension major opcode.
func IsAtomic(word uint32) bool {
	return word&opcodeMask == OpcodeAMO
}

// DecodeFields extracts the operand fields of word. It does not check the
// opcode, and every register index 0-31 is structurally valid.
func DecodeFields(word uint32) Fields {
	return Fields{
		Rd:     uint8((word >> rdShift) & regMask),
		Funct3: uint8((word >> funct3Shift) & funct3Mask),
		Rs1:    uint8((word >> rs1Shift) & regMask),
		Rs2:    uint8((word >> rs2Shift) & regMask),
		Rl:     (word>>rlShift)&1 == 1,
		Aq:     (word>>aqShift)&1 == 1,
		Funct5: uint8((word >> funct5Shift) & funct5Mask),
	}
}

// OpForFunct5 maps a funct5 subcode to its operation, or OpUnknown.
func OpForFunct5(funct5 uint8) Op {
	if op, ok := funct5Ops[funct5]; ok {
		return op
	}
	return OpUnknown
}

// WidthForFunct3 maps a funct3 value to its operand width, or WidthUnknown.
func WidthForFunct3(funct3 uint8) Width {
	switch funct3 {
	case Funct3Word:
		return WidthWord
	case Funct3Doubleword:
		return WidthDoubleword
	default:
		return WidthUnknown
	}
}

// Decoder decodes RISC-V machine code into A-extension instructions.
type Decoder struct{}

// NewDecoder creates a new A-extension instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Words outside the AMO opcode
// decode to OpUnknown with their fields still extracted.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Fields: DecodeFields(word),
		Op:     OpUnknown,
		Word:   word,
	}

	if !IsAtomic(word) {
		return inst
	}

	inst.Op = OpForFunct5(inst.Funct5)
	inst.Width = WidthForFunct3(inst.Funct3)

	return inst
}
