package trap

import "github.com/sarchlab/rvamo/insts"

// Stats counts what the handler has done since creation or the last
// ResetStats.
type Stats struct {
	// Emulated counts successfully emulated instructions per operation.
	Emulated map[insts.Op]uint64
	// Unhandled counts illegal-instruction traps the engine declined.
	Unhandled uint64
	// AccessFaults counts emulations abandoned on a memory access error.
	AccessFaults uint64
	// ForwardedExceptions counts exceptions other than illegal instruction.
	ForwardedExceptions uint64
	// Interrupts counts interrupts routed to an installed handler.
	Interrupts uint64
	// DefaultInterrupts counts interrupts routed to the default handler.
	DefaultInterrupts uint64
	// Cycles is the estimated cost of all illegal-instruction traps, when a
	// latency table is configured.
	Cycles uint64
}

// TotalEmulated returns the number of successfully emulated instructions.
func (s Stats) TotalEmulated() uint64 {
	var n uint64
	for _, c := range s.Emulated {
		n += c
	}
	return n
}

func (s Stats) clone() Stats {
	c := s
	c.Emulated = make(map[insts.Op]uint64, len(s.Emulated))
	for op, n := range s.Emulated {
		c.Emulated[op] = n
	}
	return c
}
