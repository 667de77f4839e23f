package trap

import (
	"errors"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvamo/emu"
	"github.com/sarchlab/rvamo/insts"
	"github.com/sarchlab/rvamo/timing/latency"
)

// Memory is what the handler needs from the hart's address space: fetching
// the faulting instruction and the data accesses of the emulated atomic.
type Memory interface {
	emu.InstructionMemory
	emu.DataMemory
}

// ExceptionHandler is the host's fallback for exceptions the handler does
// not resolve. Changes it makes to ctx are written back to the trap frame.
type ExceptionHandler func(ctx *Context, cause Cause)

// Outcome tells the caller what a Dispatch did.
type Outcome uint8

// Dispatch outcomes.
const (
	// OutcomeEmulated: the atomic was emulated and PC advanced.
	OutcomeEmulated Outcome = iota
	// OutcomeForwarded: the exception handler was called; PC unchanged.
	OutcomeForwarded
	// OutcomeInterrupt: an installed interrupt handler was called.
	OutcomeInterrupt
	// OutcomeDefaultInterrupt: the default interrupt handler was called.
	OutcomeDefaultInterrupt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmulated:
		return "emulated"
	case OutcomeForwarded:
		return "forwarded"
	case OutcomeInterrupt:
		return "interrupt"
	case OutcomeDefaultInterrupt:
		return "default interrupt"
	default:
		return "unknown"
	}
}

// Handler is the trap entry point for one hart. It owns that hart's
// emulation engine and therefore its reservation.
type Handler struct {
	engine      *emu.Engine
	decoder     *insts.Decoder
	memory      Memory
	causes      CauseSource
	onException ExceptionHandler

	vectors          VectorTable
	defaultInterrupt InterruptHandler

	latencyTable *latency.Table
	logger       logr.Logger
	stats        Stats
}

// HandlerOption is a functional option for configuring the Handler.
type HandlerOption func(*Handler)

// WithEngine sets the emulation engine. The default is a 32-bit engine.
func WithEngine(engine *emu.Engine) HandlerOption {
	return func(h *Handler) {
		h.engine = engine
	}
}

// WithVectors sets the interrupt vector table. The default is empty, which
// routes every interrupt to the default handler.
func WithVectors(vectors VectorTable) HandlerOption {
	return func(h *Handler) {
		h.vectors = vectors
	}
}

// WithDefaultInterruptHandler sets the handler for interrupts with no
// installed vector.
func WithDefaultInterruptHandler(handler InterruptHandler) HandlerOption {
	return func(h *Handler) {
		h.defaultInterrupt = handler
	}
}

// WithLatencyTable enables cycle estimates in Stats.
func WithLatencyTable(table *latency.Table) HandlerOption {
	return func(h *Handler) {
		h.latencyTable = table
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logr.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a trap handler. memory is the hart's address space,
// causes reads the trap cause, and onException receives every exception
// the handler does not resolve.
func NewHandler(
	memory Memory,
	causes CauseSource,
	onException ExceptionHandler,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		decoder:     insts.NewDecoder(),
		memory:      memory,
		causes:      causes,
		onException: onException,
		logger:      logr.Discard(),
		stats:       Stats{Emulated: make(map[insts.Op]uint64)},
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.engine == nil {
		h.engine = emu.NewEngine(emu.WithLogger(h.logger))
	}

	return h
}

// Engine returns the handler's emulation engine.
func (h *Handler) Engine() *emu.Engine {
	return h.engine
}

// Stats returns a snapshot of the handler statistics.
func (h *Handler) Stats() Stats {
	return h.stats.clone()
}

// ResetStats clears the handler statistics.
func (h *Handler) ResetStats() {
	h.stats = Stats{Emulated: make(map[insts.Op]uint64)}
}

// Handle is the entry point the host trap mechanism calls after saving the
// trap frame. It reads the cause and dispatches. On return the frame holds
// the state to resume with.
func (h *Handler) Handle(frame *emu.RegFile) Outcome {
	return h.Dispatch(frame, h.causes.Cause())
}

// Dispatch handles a trap with an already known cause.
func (h *Handler) Dispatch(frame *emu.RegFile, cause Cause) Outcome {
	if cause.Interrupt {
		return h.dispatchInterrupt(cause)
	}

	if !cause.IsIllegalInstruction() {
		h.stats.ForwardedExceptions++
		h.forward(frame, cause)
		return OutcomeForwarded
	}

	if h.emulate(frame) {
		return OutcomeEmulated
	}

	h.forward(frame, cause)
	return OutcomeForwarded
}

// emulate fetches and runs the instruction at frame.PC, advancing PC on
// success.
func (h *Handler) emulate(frame *emu.RegFile) bool {
	word, err := h.memory.Fetch(frame.PC)
	if err != nil {
		h.stats.AccessFaults++
		h.logger.V(1).Info("instruction fetch failed", "pc", frame.PC, "err", err.Error())
		return false
	}

	inst := h.decoder.Decode(word)
	err = h.engine.Emulate(word, frame, h.memory)

	switch {
	case err == nil:
		frame.PC = (frame.PC + insts.InstructionWidth) & h.engine.XLEN().Mask()
		h.stats.Emulated[inst.Op]++
		h.chargeCycles(inst, true)
		return true
	case errors.Is(err, emu.ErrAccessFault):
		h.stats.AccessFaults++
	default:
		h.stats.Unhandled++
	}

	h.chargeCycles(inst, false)
	h.logger.V(1).Info("not emulated", "pc", frame.PC, "word", word, "err", err.Error())
	return false
}

func (h *Handler) chargeCycles(inst *insts.Instruction, emulated bool) {
	if h.latencyTable == nil {
		return
	}
	if emulated {
		h.stats.Cycles += h.latencyTable.GetLatency(inst)
		return
	}
	h.stats.Cycles += h.latencyTable.ForwardLatency()
}

func (h *Handler) forward(frame *emu.RegFile, cause Cause) {
	h.logger.V(1).Info("forwarding exception", "cause", cause.String(), "pc", frame.PC)

	if h.onException == nil {
		h.logger.Error(nil, "no exception handler installed", "cause", cause.String())
		return
	}

	ctx := ContextFromFrame(frame)
	h.onException(ctx, cause)
	ctx.Apply(frame)
}

func (h *Handler) dispatchInterrupt(cause Cause) Outcome {
	if handler, ok := h.vectors.Lookup(cause.Code); ok {
		h.stats.Interrupts++
		handler()
		return OutcomeInterrupt
	}

	h.stats.DefaultInterrupts++
	h.logger.V(1).Info("default interrupt", "cause", cause.String())
	if h.defaultInterrupt != nil {
		h.defaultInterrupt()
	}
	return OutcomeDefaultInterrupt
}
