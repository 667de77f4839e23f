package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/rvamo/emu"
	"github.com/sarchlab/rvamo/insts"
	"github.com/sarchlab/rvamo/trap"
)

const (
	selfTestMemory = 64 * 1024
	selfTestCode   = 0x1000
	selfTestData   = 0x2000
)

type selfTestCase struct {
	op      insts.Op
	old     uint64
	operand uint64
	want    uint64 // memory afterwards
}

var selfTestCases = []selfTestCase{
	{insts.OpAMOSWAP, 5, 3, 3},
	{insts.OpAMOADD, 5, 3, 8},
	{insts.OpAMOXOR, 5, 3, 6},
	{insts.OpAMOAND, 5, 3, 1},
	{insts.OpAMOOR, 5, 3, 7},
	{insts.OpAMOMIN, 5, 3, 3},
	{insts.OpAMOMAX, 5, 3, 5},
	{insts.OpAMOMINU, 5, 3, 3},
	{insts.OpAMOMAXU, 5, 3, 5},
	{insts.OpAMOMIN, 0xFFFF_FFFF, 1, 0xFFFF_FFFF},
	{insts.OpAMOMINU, 0xFFFF_FFFF, 1, 1},
}

// selfTestHart is a single hart whose only instructions are the ones the
// self test places at its PC.
type selfTestHart struct {
	memory  *emu.StorageMemory
	frame   *emu.RegFile
	handler *trap.Handler
}

func newSelfTestHart(c *commonFlags, stderr io.Writer) (*selfTestHart, error) {
	table, err := c.latencyTable()
	if err != nil {
		return nil, err
	}

	log := c.logger(stderr)
	memory := emu.NewStorageMemory(selfTestMemory)
	illegal := trap.Exception(trap.ExceptionIllegalInstruction)

	handler := trap.NewHandler(
		memory,
		trap.CauseFunc(func() trap.Cause { return illegal }),
		func(ctx *trap.Context, cause trap.Cause) {
			log.Info("exception forwarded", "cause", cause.String())
		},
		trap.WithLogger(log),
		trap.WithLatencyTable(table),
	)

	return &selfTestHart{
		memory:  memory,
		frame:   &emu.RegFile{PC: selfTestCode},
		handler: handler,
	}, nil
}

// step places word at PC and takes an illegal-instruction trap on it.
func (h *selfTestHart) step(word uint32) (trap.Outcome, error) {
	if err := h.memory.LoadProgram(h.frame.PC, le32(word)); err != nil {
		return 0, err
	}
	return h.handler.Handle(h.frame), nil
}

func le32(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}

func runSelfTest(args []string, stdout, stderr io.Writer) int {
	var c commonFlags
	fs := newFlagSet("selftest", stderr, &c)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	hart, err := newSelfTestHart(&c, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failures := 0
	report := func(name string, ok bool, detail string) {
		status := "PASS"
		if !ok {
			status = "FAIL"
			failures++
		}
		fmt.Fprintf(stdout, "%s  %-28s %s\n", status, name, detail)
	}

	const (
		rd  = emu.RegT0
		rs1 = emu.RegA0
		rs2 = emu.RegA0 + 1
	)

	for _, tc := range selfTestCases {
		if err := hart.memory.WriteWord(selfTestData, insts.WidthWord, tc.old); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		hart.frame.WriteReg(rs1, selfTestData)
		hart.frame.WriteReg(rs2, tc.operand)
		pc := hart.frame.PC

		word := insts.MustEncode(tc.op, insts.WidthWord, rd, rs1, rs2)
		outcome, err := hart.step(word)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}

		got, _ := hart.memory.ReadWord(selfTestData, insts.WidthWord)
		old := hart.frame.ReadReg(rd)
		ok := outcome == trap.OutcomeEmulated && got == tc.want && old == tc.old &&
			hart.frame.PC == pc+insts.InstructionWidth
		name := fmt.Sprintf("%s %#x, %#x", tc.op, tc.old, tc.operand)
		report(name, ok, fmt.Sprintf("mem=%#x rd=%#x", got, old))
	}

	// lr/sc pair, then a second sc that must fail
	_ = hart.memory.WriteWord(selfTestData, insts.WidthWord, 41)
	hart.frame.WriteReg(rs2, 42)
	lr, _ := hart.step(insts.MustEncode(insts.OpLR, insts.WidthWord, rd, rs1, 0))
	sc, _ := hart.step(insts.MustEncode(insts.OpSC, insts.WidthWord, rd, rs1, rs2))
	got, _ := hart.memory.ReadWord(selfTestData, insts.WidthWord)
	report("lr/sc", lr == trap.OutcomeEmulated && sc == trap.OutcomeEmulated &&
		hart.frame.ReadReg(rd) == 0 && got == 42, fmt.Sprintf("mem=%d", got))

	hart.frame.WriteReg(rs2, 43)
	_, _ = hart.step(insts.MustEncode(insts.OpSC, insts.WidthWord, rd, rs1, rs2))
	got, _ = hart.memory.ReadWord(selfTestData, insts.WidthWord)
	report("sc without reservation", hart.frame.ReadReg(rd) == 1 && got == 42,
		fmt.Sprintf("rd=%d mem=%d", hart.frame.ReadReg(rd), got))

	// undefined subcode must be forwarded with PC untouched
	pc := hart.frame.PC
	bad := uint32(0b00110)<<27 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(insts.Funct3Word)<<12 |
		uint32(rd)<<7 | insts.OpcodeAMO
	outcome, _ := hart.step(bad)
	report("undefined subcode", outcome == trap.OutcomeForwarded && hart.frame.PC == pc, outcome.String())

	stats := hart.handler.Stats()
	fmt.Fprintf(stdout, "\nEmulated: %d  Unhandled: %d  Estimated cycles: %d\n",
		stats.TotalEmulated(), stats.Unhandled, stats.Cycles)

	if failures > 0 {
		fmt.Fprintf(stdout, "%d checks failed\n", failures)
		return 1
	}
	return 0
}
