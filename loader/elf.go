// Package loader provides ELF loading for RISC-V firmware images.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/rvamo/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// RISC-V e_flags bits.
const (
	// FlagRVC marks code that may contain compressed instructions.
	FlagRVC uint32 = 0x1
	// FlagRVE marks the embedded (16-register) base ISA.
	FlagRVE uint32 = 0x8
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Executable reports whether the segment holds code.
func (s Segment) Executable() bool {
	return s.Flags&SegmentFlagExecute != 0
}

// Program represents a loaded RISC-V firmware image.
type Program struct {
	// EntryPoint is the address where execution begins.
	EntryPoint uint64
	// XLEN is the register width implied by the ELF class.
	XLEN emu.XLEN
	// Flags holds the raw RISC-V e_flags.
	Flags uint32
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Compressed reports whether the image was built with the C extension.
func (p *Program) Compressed() bool {
	return p.Flags&FlagRVC != 0
}

// Load parses a RISC-V ELF32 or ELF64 binary.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: f.Entry,
	}

	switch f.Class {
	case elf.ELFCLASS32:
		prog.XLEN = emu.XLEN32
	case elf.ELFCLASS64:
		prog.XLEN = emu.XLEN64
	default:
		return nil, fmt.Errorf("unsupported ELF class %v", f.Class)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	// debug/elf does not expose e_flags; read them from the header.
	flags, err := readFlags(f, path)
	if err != nil {
		return nil, err
	}
	prog.Flags = flags

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	return prog, nil
}
