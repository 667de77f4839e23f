package emu

import (
	"fmt"

	"github.com/sarchlab/rvamo/insts"
)

// DataMemory is the load/store capability the engine uses to reach the
// word an atomic instruction addresses. It performs plain single accesses
// and knows nothing about reservations.
type DataMemory interface {
	// ReadWord loads width bytes at addr, zero-extended.
	ReadWord(addr uint64, width insts.Width) (uint64, error)
	// WriteWord stores the low width bytes of value at addr.
	WriteWord(addr uint64, width insts.Width, value uint64) error
}

// InstructionMemory fetches the instruction word at a program counter.
type InstructionMemory interface {
	Fetch(pc uint64) (uint32, error)
}

// DataMemoryFuncs adapts a pair of functions to the DataMemory interface.
type DataMemoryFuncs struct {
	Read  func(addr uint64, width insts.Width) (uint64, error)
	Write func(addr uint64, width insts.Width, value uint64) error
}

// ReadWord calls f.Read.
func (f DataMemoryFuncs) ReadWord(addr uint64, width insts.Width) (uint64, error) {
	return f.Read(addr, width)
}

// WriteWord calls f.Write.
func (f DataMemoryFuncs) WriteWord(addr uint64, width insts.Width, value uint64) error {
	return f.Write(addr, width, value)
}

const pageBits = 12
const pageSize = 1 << pageBits

// Memory is a sparse little-endian byte-addressable memory. Unwritten bytes
// read as zero and no access ever faults.
type Memory struct {
	pages map[uint64]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint64]*[pageSize]byte)}
}

func (m *Memory) page(addr uint64, create bool) *[pageSize]byte {
	p, ok := m.pages[addr>>pageBits]
	if !ok && create {
		p = new([pageSize]byte)
		m.pages[addr>>pageBits] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&(pageSize-1)]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	m.page(addr, true)[addr&(pageSize-1)] = value
}

func (m *Memory) readN(addr uint64, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(m.Read8(addr+uint64(i))) << (8 * i)
	}
	return v
}

func (m *Memory) writeN(addr uint64, n int, value uint64) {
	for i := 0; i < n; i++ {
		m.Write8(addr+uint64(i), uint8(value>>(8*i)))
	}
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint64) uint16 { return uint16(m.readN(addr, 2)) }

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint64) uint32 { return uint32(m.readN(addr, 4)) }

// Read64 reads a little-endian doubleword.
func (m *Memory) Read64(addr uint64) uint64 { return m.readN(addr, 8) }

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint64, value uint16) { m.writeN(addr, 2, uint64(value)) }

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint64, value uint32) { m.writeN(addr, 4, uint64(value)) }

// Write64 writes a little-endian doubleword.
func (m *Memory) Write64(addr uint64, value uint64) { m.writeN(addr, 8, value) }

// LoadProgram copies program into memory starting at addr.
func (m *Memory) LoadProgram(addr uint64, program []byte) {
	for i, b := range program {
		m.Write8(addr+uint64(i), b)
	}
}

// ReadWord implements DataMemory.
func (m *Memory) ReadWord(addr uint64, width insts.Width) (uint64, error) {
	n := width.Bytes()
	if n == 0 {
		return 0, fmt.Errorf("%w: width %d at 0x%x", ErrAccessFault, width, addr)
	}
	return m.readN(addr, n), nil
}

// WriteWord implements DataMemory.
func (m *Memory) WriteWord(addr uint64, width insts.Width, value uint64) error {
	n := width.Bytes()
	if n == 0 {
		return fmt.Errorf("%w: width %d at 0x%x", ErrAccessFault, width, addr)
	}
	m.writeN(addr, n, value)
	return nil
}

// Fetch implements InstructionMemory.
func (m *Memory) Fetch(pc uint64) (uint32, error) {
	return m.Read32(pc), nil
}
