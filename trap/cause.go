// Package trap is the glue between a host trap-dispatch mechanism and the
// atomic emulation engine: it classifies the trap cause, emulates
// illegal-instruction traps that carry an atomic, and forwards everything
// else to host-supplied handlers.
package trap

import (
	"fmt"

	"github.com/sarchlab/rvamo/emu"
)

// Exception codes from mcause when the interrupt bit is clear.
const (
	ExceptionInstructionMisaligned uint64 = 0
	ExceptionInstructionFault      uint64 = 1
	ExceptionIllegalInstruction    uint64 = 2
	ExceptionBreakpoint            uint64 = 3
	ExceptionLoadMisaligned        uint64 = 4
	ExceptionLoadFault             uint64 = 5
	ExceptionStoreMisaligned       uint64 = 6
	ExceptionStoreFault            uint64 = 7
	ExceptionUserEnvCall           uint64 = 8
	ExceptionSupervisorEnvCall     uint64 = 9
	ExceptionMachineEnvCall        uint64 = 11
	ExceptionInstructionPageFault  uint64 = 12
	ExceptionLoadPageFault         uint64 = 13
	ExceptionStorePageFault        uint64 = 15
)

// Interrupt codes from mcause when the interrupt bit is set.
const (
	InterruptSupervisorSoft     uint64 = 1
	InterruptMachineSoft        uint64 = 3
	InterruptSupervisorTimer    uint64 = 5
	InterruptMachineTimer       uint64 = 7
	InterruptSupervisorExternal uint64 = 9
	InterruptMachineExternal    uint64 = 11
)

var exceptionNames = map[uint64]string{
	ExceptionInstructionMisaligned: "instruction address misaligned",
	ExceptionInstructionFault:      "instruction access fault",
	ExceptionIllegalInstruction:    "illegal instruction",
	ExceptionBreakpoint:            "breakpoint",
	ExceptionLoadMisaligned:        "load address misaligned",
	ExceptionLoadFault:             "load access fault",
	ExceptionStoreMisaligned:       "store address misaligned",
	ExceptionStoreFault:            "store access fault",
	ExceptionUserEnvCall:           "environment call from U-mode",
	ExceptionSupervisorEnvCall:     "environment call from S-mode",
	ExceptionMachineEnvCall:        "environment call from M-mode",
	ExceptionInstructionPageFault:  "instruction page fault",
	ExceptionLoadPageFault:         "load page fault",
	ExceptionStorePageFault:        "store page fault",
}

var interruptNames = map[uint64]string{
	InterruptSupervisorSoft:     "supervisor software interrupt",
	InterruptMachineSoft:        "machine software interrupt",
	InterruptSupervisorTimer:    "supervisor timer interrupt",
	InterruptMachineTimer:       "machine timer interrupt",
	InterruptSupervisorExternal: "supervisor external interrupt",
	InterruptMachineExternal:    "machine external interrupt",
}

// Cause is a classified mcause value.
type Cause struct {
	Interrupt bool
	Code      uint64
}

// ParseCause splits a raw mcause value for a hart of the given width. The
// interrupt flag is the most significant bit of the register.
func ParseCause(raw uint64, xlen emu.XLEN) Cause {
	raw &= xlen.Mask()
	top := uint64(1) << (uint(xlen) - 1)
	return Cause{
		Interrupt: raw&top != 0,
		Code:      raw &^ top,
	}
}

// Raw encodes the cause back into an mcause value.
func (c Cause) Raw(xlen emu.XLEN) uint64 {
	if c.Interrupt {
		return c.Code | uint64(1)<<(uint(xlen)-1)
	}
	return c.Code
}

// Exception returns an exception cause with the given code.
func Exception(code uint64) Cause {
	return Cause{Code: code}
}

// Interrupt returns an interrupt cause with the given code.
func Interrupt(code uint64) Cause {
	return Cause{Interrupt: true, Code: code}
}

// IsIllegalInstruction reports whether the cause is the illegal-instruction
// exception.
func (c Cause) IsIllegalInstruction() bool {
	return !c.Interrupt && c.Code == ExceptionIllegalInstruction
}

func (c Cause) String() string {
	names := exceptionNames
	kind := "exception"
	if c.Interrupt {
		names = interruptNames
		kind = "interrupt"
	}
	if name, ok := names[c.Code]; ok {
		return name
	}
	return fmt.Sprintf("%s %d", kind, c.Code)
}

// CauseSource reads the cause of the trap being handled, typically from
// the mcause CSR.
type CauseSource interface {
	Cause() Cause
}

// CauseFunc adapts a function to the CauseSource interface.
type CauseFunc func() Cause

// Cause calls f.
func (f CauseFunc) Cause() Cause {
	return f()
}
