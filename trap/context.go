package trap

import "github.com/sarchlab/rvamo/emu"

var tRegs = [7]uint8{5, 6, 7, 28, 29, 30, 31}

// Context is the register view the host runtime passes to its exception
// handler: the return address plus the caller-saved temporaries and
// argument registers. It is narrower than the full trap frame.
type Context struct {
	RA uint64
	T  [7]uint64 // t0-t6
	A  [8]uint64 // a0-a7
}

// ContextFromFrame projects a trap frame onto the host register view.
func ContextFromFrame(frame *emu.RegFile) *Context {
	ctx := &Context{RA: frame.ReadReg(emu.RegRA)}
	for i, reg := range tRegs {
		ctx.T[i] = frame.ReadReg(reg)
	}
	for i := range ctx.A {
		ctx.A[i] = frame.ReadReg(emu.RegA0 + uint8(i))
	}
	return ctx
}

// Apply writes the context back into the trap frame so that changes a
// handler makes survive the trap return.
func (c *Context) Apply(frame *emu.RegFile) {
	frame.WriteReg(emu.RegRA, c.RA)
	for i, reg := range tRegs {
		frame.WriteReg(reg, c.T[i])
	}
	for i, v := range c.A {
		frame.WriteReg(emu.RegA0+uint8(i), v)
	}
}
