package emu

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvamo/insts"
)

// ErrUnhandled is returned (wrapped) when the engine declines an
// instruction. Nothing was mutated and the trap should be forwarded.
var ErrUnhandled = errors.New("unhandled instruction")

// Reasons an instruction is unhandled. All of them wrap ErrUnhandled.
var (
	ErrNotAtomic        = fmt.Errorf("%w: not an atomic instruction", ErrUnhandled)
	ErrUnknownOperation = fmt.Errorf("%w: unknown atomic operation", ErrUnhandled)
	ErrUnsupportedWidth = fmt.Errorf("%w: unsupported operand width", ErrUnhandled)
)

// ErrAccessFault is returned (wrapped) when a DataMemory access fails. The
// instruction had no effect.
var ErrAccessFault = errors.New("memory access fault")

// Engine executes LR, SC and AMO instructions against a trap frame.
//
// An Engine owns one hart's reservation. It is not safe for concurrent use:
// the trap mechanism already guarantees a hart never runs two emulations at
// once, and harts must not share an Engine.
type Engine struct {
	xlen        XLEN
	decoder     *insts.Decoder
	lsu         *LoadStoreUnit
	reservation Reservation
	logger      logr.Logger
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithXLEN sets the hart register width. The default is XLEN32.
func WithXLEN(xlen XLEN) EngineOption {
	return func(e *Engine) {
		e.xlen = xlen
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logr.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine with no reservation held.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		xlen:    XLEN32,
		decoder: insts.NewDecoder(),
		logger:  logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if !e.xlen.Valid() {
		e.xlen = XLEN32
	}
	e.lsu = NewLoadStoreUnit(e.xlen)

	return e
}

// XLEN returns the hart register width.
func (e *Engine) XLEN() XLEN {
	return e.xlen
}

// Reservation returns the reserved address and whether one is held.
func (e *Engine) Reservation() (uint64, bool) {
	return e.reservation.Addr()
}

// Reset drops the reservation.
func (e *Engine) Reset() {
	e.reservation.Clear()
}

// Emulate decodes word and executes it against regs and m. It returns nil
// after every effect of the instruction has been applied, or an error
// wrapping ErrUnhandled or ErrAccessFault after applying none of them.
func (e *Engine) Emulate(word uint32, regs *RegFile, m DataMemory) error {
	if !insts.IsAtomic(word) {
		return fmt.Errorf("%w: 0x%08x", ErrNotAtomic, word)
	}
	return e.Execute(e.decoder.Decode(word), regs, m)
}

// Execute runs an already decoded instruction. See Emulate.
func (e *Engine) Execute(inst *insts.Instruction, regs *RegFile, m DataMemory) error {
	if inst.Op == insts.OpUnknown {
		return fmt.Errorf("%w: funct5 0b%05b", ErrUnknownOperation, inst.Funct5)
	}
	if !e.lsu.Supports(inst.Width) {
		return fmt.Errorf("%w: funct3 0b%03b on RV%d", ErrUnsupportedWidth, inst.Funct3, e.xlen)
	}

	var err error
	switch inst.Op {
	case insts.OpLR:
		err = e.loadReserved(inst, regs, m)
	case insts.OpSC:
		err = e.storeConditional(inst, regs, m)
	default:
		err = e.amo(inst, regs, m)
	}
	if err != nil {
		return err
	}

	if e.logger.V(2).Enabled() {
		e.logger.V(2).Info("emulated", "inst", inst.String(), "pc", fmt.Sprintf("0x%x", regs.PC))
	}

	return nil
}

// loadReserved: rd = *rs1, reserve rs1.
func (e *Engine) loadReserved(inst *insts.Instruction, regs *RegFile, m DataMemory) error {
	addr := e.lsu.Address(regs.ReadReg(inst.Rs1))

	v, err := e.lsu.Load(m, addr, inst.Width)
	if err != nil {
		return err
	}

	e.reservation.Set(addr)
	regs.WriteReg(inst.Rd, e.lsu.RegValue(v, inst.Width))

	return nil
}

// storeConditional: if rs1 is reserved, *rs1 = rs2 and rd = 0; otherwise
// rd = 1 and memory is untouched. A failed SC leaves the reservation as it
// was.
func (e *Engine) storeConditional(inst *insts.Instruction, regs *RegFile, m DataMemory) error {
	addr := e.lsu.Address(regs.ReadReg(inst.Rs1))

	if !e.reservation.Matches(addr) {
		regs.WriteReg(inst.Rd, 1)
		return nil
	}

	if err := e.lsu.Store(m, addr, inst.Width, regs.ReadReg(inst.Rs2)); err != nil {
		return err
	}

	regs.WriteReg(inst.Rd, 0)
	e.reservation.Clear()

	return nil
}

// amo: old = *rs1; rd = old; *rs1 = op(old, rs2).
func (e *Engine) amo(inst *insts.Instruction, regs *RegFile, m DataMemory) error {
	addr := e.lsu.Address(regs.ReadReg(inst.Rs1))
	operand := regs.ReadReg(inst.Rs2)

	old, err := e.lsu.Load(m, addr, inst.Width)
	if err != nil {
		return err
	}

	result, ok := ApplyAMO(inst.Op, inst.Width, old, operand)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownOperation, inst.Op)
	}

	prev := regs.ReadReg(inst.Rd)
	regs.WriteReg(inst.Rd, e.lsu.RegValue(old, inst.Width))

	if err := e.lsu.Store(m, addr, inst.Width, result); err != nil {
		regs.WriteReg(inst.Rd, prev)
		return err
	}

	return nil
}
