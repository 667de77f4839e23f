package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds cycle costs for the pieces of an emulated atomic:
// trap entry, instruction fetch and decode, the memory accesses, and trap
// return. Defaults approximate a small in-order RV32 core.
type TimingConfig struct {
	// TrapEntryLatency covers the hardware trap plus saving the trap frame.
	// Default: 12 cycles.
	TrapEntryLatency uint64 `json:"trap_entry_latency"`

	// CauseLatency is reading and classifying mcause. Default: 2 cycles.
	CauseLatency uint64 `json:"cause_latency"`

	// FetchLatency is loading the faulting instruction word through the
	// saved PC. Default: 2 cycles.
	FetchLatency uint64 `json:"fetch_latency"`

	// DecodeLatency is extracting fields and selecting the operation.
	// Default: 2 cycles.
	DecodeLatency uint64 `json:"decode_latency"`

	// LoadLatency is one data load. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is one data store. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// ALULatency is combining the old value with rs2. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// TrapReturnLatency covers restoring the trap frame and returning.
	// Default: 10 cycles.
	TrapReturnLatency uint64 `json:"trap_return_latency"`

	// NativeAtomicLatency is what the instruction would cost on a core
	// with the A extension; it is the baseline for Slowdown.
	// Default: 10 cycles.
	NativeAtomicLatency uint64 `json:"native_atomic_latency"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		TrapEntryLatency:    12,
		CauseLatency:        2,
		FetchLatency:        2,
		DecodeLatency:       2,
		LoadLatency:         2,
		StoreLatency:        1,
		ALULatency:          1,
		TrapReturnLatency:   10,
		NativeAtomicLatency: 10,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the latencies every path depends on are non-zero.
func (c *TimingConfig) Validate() error {
	if c.TrapEntryLatency == 0 {
		return fmt.Errorf("trap_entry_latency must be > 0")
	}
	if c.TrapReturnLatency == 0 {
		return fmt.Errorf("trap_return_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.NativeAtomicLatency == 0 {
		return fmt.Errorf("native_atomic_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
