package insts_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvamo/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("IsAtomic", func() {
		It("should match the AMO major opcode", func() {
			Expect(insts.IsAtomic(0x1000A12F)).To(BeTrue())
			Expect(insts.IsAtomic(0x0000002F)).To(BeTrue())
		})

		It("should reject other opcodes", func() {
			Expect(insts.IsAtomic(0x00000013)).To(BeFalse()) // addi x0, x0, 0
			Expect(insts.IsAtomic(0x0000006F)).To(BeFalse()) // jal x0, 0
			Expect(insts.IsAtomic(0x0000003F)).To(BeFalse())
		})

		It("should depend only on the low seven bits", func() {
			r := rand.New(rand.NewSource(1))
			for i := 0; i < 10000; i++ {
				w := r.Uint32()
				Expect(insts.IsAtomic(w)).To(Equal(w&0x7F == 0x2F), "word 0x%08x", w)
			}
		})
	})

	Describe("DecodeFields", func() {
		// 0b00010_00_00000_00001_010_00010_0101111
		It("should extract LR fields", func() {
			f := insts.DecodeFields(0b00010_00_00000_00001_010_00010_0101111)

			Expect(f.Rd).To(Equal(uint8(2)))
			Expect(f.Rs1).To(Equal(uint8(1)))
			Expect(f.Rs2).To(Equal(uint8(0)))
			Expect(f.Funct5).To(Equal(insts.Funct5LR))
			Expect(f.Funct3).To(Equal(insts.Funct3Word))
		})

		It("should not validate the funct5 subcode", func() {
			f := insts.DecodeFields(0x3000A12F)

			Expect(f.Funct5).To(Equal(uint8(0b00110)))
			Expect(f.Rd).To(Equal(uint8(2)))
		})

		It("should extract all 32 register indices", func() {
			for r := uint8(0); r < 32; r++ {
				word := insts.MustEncode(insts.OpAMOADD, insts.WidthWord, r, 31-r, r)
				f := insts.DecodeFields(word)
				Expect(f.Rd).To(Equal(r))
				Expect(f.Rs1).To(Equal(31 - r))
				Expect(f.Rs2).To(Equal(r))
			}
		})
	})

	Describe("Decode", func() {
		// lr.w x2, (x1) -> 0x1000A12F
		It("should decode lr.w x2, (x1)", func() {
			inst := decoder.Decode(0x1000A12F)

			Expect(inst.Op).To(Equal(insts.OpLR))
			Expect(inst.Width).To(Equal(insts.WidthWord))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Aq).To(BeFalse())
			Expect(inst.Rl).To(BeFalse())
		})

		// amoadd.w x5, x6, (x7) -> 0x0063A2AF
		It("should decode amoadd.w x5, x6, (x7)", func() {
			inst := decoder.Decode(0x0063A2AF)

			Expect(inst.Op).To(Equal(insts.OpAMOADD))
			Expect(inst.Width).To(Equal(insts.WidthWord))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs2).To(Equal(uint8(6)))
			Expect(inst.Rs1).To(Equal(uint8(7)))
		})

		// sc.w x10, x11, (x12) -> 0x18B6252F
		It("should decode sc.w x10, x11, (x12)", func() {
			inst := decoder.Decode(0x18B6252F)

			Expect(inst.Op).To(Equal(insts.OpSC))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(11)))
			Expect(inst.Rs1).To(Equal(uint8(12)))
		})

		// amoswap.d.aqrl x1, x2, (x3) -> 0x0E21B0AF
		It("should decode ordering bits and doubleword width", func() {
			inst := decoder.Decode(0x0E21B0AF)

			Expect(inst.Op).To(Equal(insts.OpAMOSWAP))
			Expect(inst.Width).To(Equal(insts.WidthDoubleword))
			Expect(inst.Aq).To(BeTrue())
			Expect(inst.Rl).To(BeTrue())
		})

		It("should return OpUnknown for an undefined funct5", func() {
			inst := decoder.Decode(0x3000A12F)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})

		It("should return OpUnknown for a non-atomic opcode", func() {
			inst := decoder.Decode(0x00000013)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Width).To(Equal(insts.WidthUnknown))
		})

		It("should return WidthUnknown for a reserved funct3", func() {
			inst := decoder.Decode(0x1000012F) // lr with funct3=000
			Expect(inst.Op).To(Equal(insts.OpLR))
			Expect(inst.Width).To(Equal(insts.WidthUnknown))
		})
	})

	Describe("funct5 table", func() {
		DescribeTable("should map each subcode to its operation",
			func(funct5 uint8, op insts.Op) {
				Expect(insts.OpForFunct5(funct5)).To(Equal(op))
			},
			Entry("LR", uint8(0b00010), insts.OpLR),
			Entry("SC", uint8(0b00011), insts.OpSC),
			Entry("AMOSWAP", uint8(0b00001), insts.OpAMOSWAP),
			Entry("AMOADD", uint8(0b00000), insts.OpAMOADD),
			Entry("AMOXOR", uint8(0b00100), insts.OpAMOXOR),
			Entry("AMOAND", uint8(0b01100), insts.OpAMOAND),
			Entry("AMOOR", uint8(0b01000), insts.OpAMOOR),
			Entry("AMOMIN", uint8(0b10000), insts.OpAMOMIN),
			Entry("AMOMAX", uint8(0b10100), insts.OpAMOMAX),
			Entry("AMOMINU", uint8(0b11000), insts.OpAMOMINU),
			Entry("AMOMAXU", uint8(0b11100), insts.OpAMOMAXU),
			Entry("undefined 0b00110", uint8(0b00110), insts.OpUnknown),
			Entry("undefined 0b11111", uint8(0b11111), insts.OpUnknown),
		)
	})
})
