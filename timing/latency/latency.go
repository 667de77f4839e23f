// Package latency provides a cycle cost model for emulating atomic
// instructions through an illegal-instruction trap.
//
// The values can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/rvamo/insts"
)

// Table provides emulation cost lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// overhead is the part of every trap that emulation cannot avoid.
func (t *Table) overhead() uint64 {
	c := t.config
	return c.TrapEntryLatency + c.CauseLatency + c.FetchLatency + c.DecodeLatency + c.TrapReturnLatency
}

// ForwardLatency is the cost of trapping on an instruction the engine
// declines, up to the hand-off to the exception handler.
func (t *Table) ForwardLatency() uint64 {
	c := t.config
	return c.TrapEntryLatency + c.CauseLatency + c.FetchLatency + c.DecodeLatency
}

// GetLatency returns the cycles to trap, emulate and resume the given
// instruction. A successful SC is assumed. Unknown instructions cost
// ForwardLatency.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil || inst.Op == insts.OpUnknown {
		return t.ForwardLatency()
	}

	c := t.config
	switch inst.Op {
	case insts.OpLR:
		return t.overhead() + c.LoadLatency
	case insts.OpSC:
		return t.overhead() + c.StoreLatency
	default:
		return t.overhead() + c.LoadLatency + c.ALULatency + c.StoreLatency
	}
}

// GetMinLatency returns the cheapest path through the instruction. For SC
// that is the failure path, which skips the store.
func (t *Table) GetMinLatency(inst *insts.Instruction) uint64 {
	if inst != nil && inst.Op == insts.OpSC {
		return t.overhead()
	}
	return t.GetLatency(inst)
}

// GetMaxLatency returns the most expensive path through the instruction.
func (t *Table) GetMaxLatency(inst *insts.Instruction) uint64 {
	return t.GetLatency(inst)
}

// Slowdown returns emulated cost over native cost for the instruction.
func (t *Table) Slowdown(inst *insts.Instruction) float64 {
	if t.config.NativeAtomicLatency == 0 {
		return 0
	}
	return float64(t.GetLatency(inst)) / float64(t.config.NativeAtomicLatency)
}

// IsLoadOp returns true if emulating the instruction reads memory.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpLR || inst.Op.IsAMO()
}

// IsStoreOp returns true if emulating the instruction may write memory.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpSC || inst.Op.IsAMO()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
