package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v3/mem/mem"

	"github.com/sarchlab/rvamo/insts"
)

// StorageMemory is a capacity-bounded physical memory backed by an Akita
// storage. Accesses that fall outside [0, capacity) fail with
// ErrAccessFault, which lets callers model a load/store access fault.
type StorageMemory struct {
	storage  *mem.Storage
	capacity uint64
}

// NewStorageMemory creates a physical memory of the given capacity in bytes.
func NewStorageMemory(capacity uint64) *StorageMemory {
	return &StorageMemory{
		storage:  mem.NewStorage(capacity),
		capacity: capacity,
	}
}

// Capacity returns the size of the memory in bytes.
func (s *StorageMemory) Capacity() uint64 {
	return s.capacity
}

func (s *StorageMemory) inRange(addr uint64, n int) bool {
	end := addr + uint64(n)
	return end >= addr && end <= s.capacity
}

func (s *StorageMemory) read(addr uint64, n int) ([]byte, error) {
	if n == 0 || !s.inRange(addr, n) {
		return nil, fmt.Errorf("%w: read %d bytes at 0x%x", ErrAccessFault, n, addr)
	}

	data, err := s.storage.Read(addr, uint64(n))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccessFault, err)
	}

	return data, nil
}

func (s *StorageMemory) write(addr uint64, data []byte) error {
	if len(data) == 0 || !s.inRange(addr, len(data)) {
		return fmt.Errorf("%w: write %d bytes at 0x%x", ErrAccessFault, len(data), addr)
	}

	if err := s.storage.Write(addr, data); err != nil {
		return fmt.Errorf("%w: %v", ErrAccessFault, err)
	}

	return nil
}

// ReadWord implements DataMemory.
func (s *StorageMemory) ReadWord(addr uint64, width insts.Width) (uint64, error) {
	data, err := s.read(addr, width.Bytes())
	if err != nil {
		return 0, err
	}

	if width == insts.WidthWord {
		return uint64(binary.LittleEndian.Uint32(data)), nil
	}
	return binary.LittleEndian.Uint64(data), nil
}

// WriteWord implements DataMemory.
func (s *StorageMemory) WriteWord(addr uint64, width insts.Width, value uint64) error {
	data := make([]byte, width.Bytes())
	switch width {
	case insts.WidthWord:
		binary.LittleEndian.PutUint32(data, uint32(value))
	case insts.WidthDoubleword:
		binary.LittleEndian.PutUint64(data, value)
	}
	return s.write(addr, data)
}

// Fetch implements InstructionMemory.
func (s *StorageMemory) Fetch(pc uint64) (uint32, error) {
	data, err := s.read(pc, insts.InstructionWidth)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// LoadProgram copies program into memory starting at addr.
func (s *StorageMemory) LoadProgram(addr uint64, program []byte) error {
	return s.write(addr, program)
}
