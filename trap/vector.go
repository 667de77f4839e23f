package trap

// InterruptHandler services one interrupt.
type InterruptHandler func()

// Vector is one slot of an interrupt vector table.
type Vector struct {
	// Reserved marks a slot with no handler installed.
	Reserved bool
	Handler  InterruptHandler
}

// VectorTable maps interrupt codes to handlers by index.
type VectorTable []Vector

// Lookup returns the handler installed for code. It returns false when code
// is past the end of the table, the slot is reserved, or the slot has a nil
// handler.
func (t VectorTable) Lookup(code uint64) (InterruptHandler, bool) {
	if code >= uint64(len(t)) {
		return nil, false
	}
	v := t[code]
	if v.Reserved || v.Handler == nil {
		return nil, false
	}
	return v.Handler, true
}

// standardVectors is the number of slots in the privileged-architecture
// interrupt layout (codes 0-11).
const standardVectors = 12

// StandardVectorTable builds the 12-slot machine-mode layout: the six
// defined interrupt codes get the given handlers (or stay reserved when
// absent) and every other slot is reserved.
func StandardVectorTable(handlers map[uint64]InterruptHandler) VectorTable {
	t := make(VectorTable, standardVectors)
	for code := range t {
		h, ok := handlers[uint64(code)]
		if !ok || interruptNames[uint64(code)] == "" {
			t[code] = Vector{Reserved: true}
			continue
		}
		t[code] = Vector{Handler: h}
	}
	return t
}
