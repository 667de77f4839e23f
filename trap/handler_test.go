package trap_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvamo/emu"
	"github.com/sarchlab/rvamo/insts"
	"github.com/sarchlab/rvamo/timing/latency"
	"github.com/sarchlab/rvamo/trap"
)

const (
	entryPC = uint64(0x8000_0000)
	dataA   = uint64(0x8000_1000)
)

var _ = Describe("Handler", func() {
	var (
		memory    *emu.Memory
		frame     *emu.RegFile
		cause     trap.Cause
		forwarded []trap.Cause
		lastCtx   *trap.Context
		handler   *trap.Handler
	)

	place := func(word uint32) {
		memory.Write32(frame.PC, word)
	}

	BeforeEach(func() {
		memory = emu.NewMemory()
		frame = &emu.RegFile{PC: entryPC}
		cause = trap.Exception(trap.ExceptionIllegalInstruction)
		forwarded = nil
		lastCtx = nil

		handler = trap.NewHandler(
			memory,
			trap.CauseFunc(func() trap.Cause { return cause }),
			func(ctx *trap.Context, c trap.Cause) {
				forwarded = append(forwarded, c)
				lastCtx = ctx
			},
			trap.WithLogger(GinkgoLogr),
			trap.WithLatencyTable(latency.NewTable()),
		)
	})

	Describe("illegal instruction carrying an atomic", func() {
		It("should emulate and advance PC by one instruction", func() {
			memory.Write32(dataA, 5)
			frame.WriteReg(emu.RegA0, dataA)
			frame.WriteReg(emu.RegA0+1, 3)
			place(insts.MustEncode(insts.OpAMOADD, insts.WidthWord, emu.RegT0, emu.RegA0, emu.RegA0+1))

			outcome := handler.Handle(frame)

			Expect(outcome).To(Equal(trap.OutcomeEmulated))
			Expect(frame.PC).To(Equal(entryPC + insts.InstructionWidth))
			Expect(frame.ReadReg(emu.RegT0)).To(Equal(uint64(5)))
			Expect(memory.Read32(dataA)).To(Equal(uint32(8)))
			Expect(forwarded).To(BeEmpty())

			stats := handler.Stats()
			Expect(stats.Emulated[insts.OpAMOADD]).To(Equal(uint64(1)))
			Expect(stats.TotalEmulated()).To(Equal(uint64(1)))
			Expect(stats.Cycles).To(Equal(uint64(32)))
		})

		It("should run an LR/SC retry loop across two traps", func() {
			memory.Write32(dataA, 41)
			frame.WriteReg(emu.RegA0, dataA)

			place(insts.MustEncode(insts.OpLR, insts.WidthWord, emu.RegT0, emu.RegA0, 0))
			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeEmulated))

			// addi t0, t0, 1 executes natively
			frame.WriteReg(emu.RegT0, frame.ReadReg(emu.RegT0)+1)
			frame.PC += 4

			place(insts.MustEncode(insts.OpSC, insts.WidthWord, emu.RegT1, emu.RegA0, emu.RegT0))
			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeEmulated))

			Expect(frame.ReadReg(emu.RegT1)).To(BeZero())
			Expect(memory.Read32(dataA)).To(Equal(uint32(42)))
			Expect(frame.PC).To(Equal(entryPC + 12))
		})

		It("should emulate doubleword atomics on a 64-bit hart", func() {
			handler = trap.NewHandler(memory, trap.CauseFunc(func() trap.Cause { return cause }), nil,
				trap.WithEngine(emu.NewEngine(emu.WithXLEN(emu.XLEN64))))
			memory.Write64(dataA, 0xFFFF_FFFF_0000_0000)
			frame.WriteReg(emu.RegA0, dataA)
			frame.WriteReg(emu.RegA0+1, 0x0000_0000_FFFF_FFFF)
			place(insts.MustEncode(insts.OpAMOOR, insts.WidthDoubleword, emu.RegT0, emu.RegA0, emu.RegA0+1))

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeEmulated))

			Expect(memory.Read64(dataA)).To(Equal(^uint64(0)))
			Expect(frame.ReadReg(emu.RegT0)).To(Equal(uint64(0xFFFF_FFFF_0000_0000)))
			Expect(frame.PC).To(Equal(entryPC + 4))
		})

		It("should wrap PC at the hart width", func() {
			frame.PC = 0xFFFF_FFFC
			frame.WriteReg(emu.RegA0, dataA)
			place(insts.MustEncode(insts.OpAMOSWAP, insts.WidthWord, emu.RegT0, emu.RegA0, 0))

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeEmulated))
			Expect(frame.PC).To(BeZero())
		})
	})

	Describe("illegal instruction the engine declines", func() {
		var before emu.RegFile

		BeforeEach(func() {
			memory.Write32(dataA, 55)
			frame.WriteReg(emu.RegA0, dataA)
			frame.WriteReg(emu.RegA0+1, 9)
		})

		It("should forward an undefined atomic subcode unchanged", func() {
			// funct5 = 0b00110
			place(uint32(0b00110)<<27 | 11<<20 | 10<<15 | 0b010<<12 | 5<<7 | insts.OpcodeAMO)
			before = *frame

			outcome := handler.Handle(frame)

			Expect(outcome).To(Equal(trap.OutcomeForwarded))
			Expect(*frame).To(Equal(before))
			Expect(memory.Read32(dataA)).To(Equal(uint32(55)))
			Expect(forwarded).To(Equal([]trap.Cause{trap.Exception(trap.ExceptionIllegalInstruction)}))

			stats := handler.Stats()
			Expect(stats.Unhandled).To(Equal(uint64(1)))
			Expect(stats.TotalEmulated()).To(BeZero())
			Expect(stats.Cycles).To(Equal(uint64(18)))
		})

		It("should forward non-atomic instructions", func() {
			place(0x02B50533) // mul a0, a0, a1
			before = *frame

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeForwarded))
			Expect(*frame).To(Equal(before))
			Expect(forwarded).To(HaveLen(1))
		})

		It("should pass the host register view to the exception handler", func() {
			place(0x02B50533)

			handler.Handle(frame)

			Expect(lastCtx).NotTo(BeNil())
			Expect(lastCtx.A[0]).To(Equal(dataA))
			Expect(lastCtx.A[1]).To(Equal(uint64(9)))
		})

		It("should keep register changes made by the exception handler", func() {
			handler = trap.NewHandler(memory, trap.CauseFunc(func() trap.Cause { return cause }),
				func(ctx *trap.Context, _ trap.Cause) { ctx.A[0] = 0xBAD })
			place(0x02B50533)

			handler.Handle(frame)

			Expect(frame.ReadReg(emu.RegA0)).To(Equal(uint64(0xBAD)))
			Expect(frame.PC).To(Equal(entryPC))
		})

		It("should forward when the faulting instruction cannot be fetched", func() {
			storage := emu.NewStorageMemory(4096)
			handler = trap.NewHandler(storage, trap.CauseFunc(func() trap.Cause { return cause }),
				func(ctx *trap.Context, c trap.Cause) { forwarded = append(forwarded, c) })

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeForwarded))
			Expect(frame.PC).To(Equal(entryPC))
			Expect(forwarded).To(HaveLen(1))
			Expect(handler.Stats().AccessFaults).To(Equal(uint64(1)))
		})

		It("should survive a missing exception handler", func() {
			handler = trap.NewHandler(memory, trap.CauseFunc(func() trap.Cause { return cause }), nil)
			place(0x02B50533)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeForwarded))
			Expect(frame.PC).To(Equal(entryPC))
		})
	})

	Describe("other exceptions", func() {
		It("should forward without emulating", func() {
			memory.Write32(dataA, 5)
			frame.WriteReg(emu.RegA0, dataA)
			frame.WriteReg(emu.RegA0+1, 3)
			place(insts.MustEncode(insts.OpAMOADD, insts.WidthWord, emu.RegT0, emu.RegA0, emu.RegA0+1))
			cause = trap.Exception(trap.ExceptionBreakpoint)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeForwarded))

			Expect(memory.Read32(dataA)).To(Equal(uint32(5)))
			Expect(frame.PC).To(Equal(entryPC))
			Expect(forwarded).To(Equal([]trap.Cause{cause}))
			Expect(handler.Stats().ForwardedExceptions).To(Equal(uint64(1)))
			Expect(handler.Stats().Cycles).To(BeZero())
		})
	})

	Describe("interrupts", func() {
		var (
			called        []int
			defaultCalled int
		)

		BeforeEach(func() {
			called = nil
			defaultCalled = 0

			vectors := trap.VectorTable{
				{Reserved: true},
				{Handler: func() { called = append(called, 1) }},
				{Reserved: true, Handler: func() { called = append(called, 2) }},
				{Handler: func() { called = append(called, 3) }},
			}

			handler = trap.NewHandler(memory, trap.CauseFunc(func() trap.Cause { return cause }), nil,
				trap.WithVectors(vectors),
				trap.WithDefaultInterruptHandler(func() { defaultCalled++ }),
			)
		})

		It("should route the last table entry to its handler", func() {
			cause = trap.Interrupt(3)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeInterrupt))
			Expect(called).To(Equal([]int{3}))
			Expect(defaultCalled).To(BeZero())
		})

		It("should route a code equal to the table length to the default handler", func() {
			cause = trap.Interrupt(4)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeDefaultInterrupt))
			Expect(called).To(BeEmpty())
			Expect(defaultCalled).To(Equal(1))
		})

		It("should route reserved slots to the default handler", func() {
			cause = trap.Interrupt(2)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeDefaultInterrupt))
			Expect(called).To(BeEmpty())
			Expect(defaultCalled).To(Equal(1))
		})

		It("should not touch the frame", func() {
			before := *frame
			cause = trap.Interrupt(1)

			handler.Handle(frame)

			Expect(*frame).To(Equal(before))
			Expect(handler.Stats().Interrupts).To(Equal(uint64(1)))
		})

		It("should tolerate a missing default handler", func() {
			handler = trap.NewHandler(memory, trap.CauseFunc(func() trap.Cause { return cause }), nil)
			cause = trap.Interrupt(trap.InterruptMachineTimer)

			Expect(handler.Handle(frame)).To(Equal(trap.OutcomeDefaultInterrupt))
			Expect(handler.Stats().DefaultInterrupts).To(Equal(uint64(1)))
		})
	})

	Describe("ResetStats", func() {
		It("should clear all counters", func() {
			cause = trap.Exception(trap.ExceptionBreakpoint)
			handler.Handle(frame)

			handler.ResetStats()

			Expect(handler.Stats().ForwardedExceptions).To(BeZero())
			Expect(handler.Stats().Emulated).To(BeEmpty())
		})
	})
})
