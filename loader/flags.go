package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
)

// e_flags offsets within the ELF header.
const (
	flagsOffset32 = 36
	flagsOffset64 = 48
)

func readFlags(f *elf.File, path string) (uint32, error) {
	off := int64(flagsOffset64)
	if f.Class == elf.ELFCLASS32 {
		off = flagsOffset32
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var buf [4]byte
	if _, err := file.ReadAt(buf[:], off); err != nil {
		return 0, fmt.Errorf("failed to read ELF flags: %w", err)
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}
