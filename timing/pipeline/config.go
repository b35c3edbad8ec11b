package pipeline

import (
	"fmt"

	"github.com/sarchlab/tomasim/emu"
	"github.com/sarchlab/tomasim/insts"
)

// MachineConfig describes the scheduler resources and the initial
// architectural state of a machine.
type MachineConfig struct {
	// LoadStoreStations is the number of load/store stations (load0...).
	LoadStoreStations int `json:"load_store_stations" yaml:"load_store_stations"`
	// AddStations is the number of add/sub stations (fadd1...).
	AddStations int `json:"add_stations" yaml:"add_stations"`
	// MultiplyStations is the number of multiply/divide stations (fmul1...).
	MultiplyStations int `json:"multiply_stations" yaml:"multiply_stations"`

	// MemoryLimit is the number of addressable memory cells.
	MemoryLimit int64 `json:"memory_limit" yaml:"memory_limit"`
	// UnmappedValue is returned by loads of addresses never written.
	UnmappedValue float64 `json:"unmapped_value" yaml:"unmapped_value"`
	// WarnUnmappedRead records an unmapped-read warning for such loads.
	WarnUnmappedRead bool `json:"warn_unmapped_read" yaml:"warn_unmapped_read"`

	// Memory is the initial memory image, address to value.
	Memory map[int64]float64 `json:"memory,omitempty" yaml:"memory,omitempty"`
	// IntRegisters holds initial integer register values by index.
	IntRegisters map[uint8]int64 `json:"int_registers,omitempty" yaml:"int_registers,omitempty"`
	// FloatRegisters holds initial floating-point register values by index.
	FloatRegisters map[uint8]float64 `json:"float_registers,omitempty" yaml:"float_registers,omitempty"`
}

// DefaultMachineConfig returns three load/store, three add and two
// multiply stations over 64K cells of empty memory.
func DefaultMachineConfig() *MachineConfig {
	return &MachineConfig{
		LoadStoreStations: 3,
		AddStations:       3,
		MultiplyStations:  2,
		MemoryLimit:       emu.DefaultMemoryLimit,
		UnmappedValue:     emu.DefaultUnmappedValue,
	}
}

// NumStations returns the size of the station pool.
func (c *MachineConfig) NumStations() int {
	return c.LoadStoreStations + c.AddStations + c.MultiplyStations
}

// Validate checks station counts, the memory limit and the initial state.
func (c *MachineConfig) Validate() error {
	if c.LoadStoreStations <= 0 {
		return fmt.Errorf("load_store_stations must be > 0")
	}
	if c.AddStations <= 0 {
		return fmt.Errorf("add_stations must be > 0")
	}
	if c.MultiplyStations <= 0 {
		return fmt.Errorf("multiply_stations must be > 0")
	}
	if c.NumStations() > maxStations {
		return fmt.Errorf("at most %d stations are supported, got %d", maxStations, c.NumStations())
	}
	if c.MemoryLimit <= 0 {
		return fmt.Errorf("memory_limit must be > 0")
	}

	for addr := range c.Memory {
		if addr < 0 || addr >= c.MemoryLimit {
			return fmt.Errorf("initial memory address %d outside [0, %d)", addr, c.MemoryLimit)
		}
	}
	for reg := range c.IntRegisters {
		if reg >= insts.NumRegs {
			return fmt.Errorf("integer register x%d does not exist", reg)
		}
	}
	for reg := range c.FloatRegisters {
		if reg >= insts.NumRegs {
			return fmt.Errorf("floating-point register f%d does not exist", reg)
		}
	}

	return nil
}

// Clone returns a deep copy of the MachineConfig.
func (c *MachineConfig) Clone() *MachineConfig {
	clone := *c

	if c.Memory != nil {
		clone.Memory = make(map[int64]float64, len(c.Memory))
		for k, v := range c.Memory {
			clone.Memory[k] = v
		}
	}
	if c.IntRegisters != nil {
		clone.IntRegisters = make(map[uint8]int64, len(c.IntRegisters))
		for k, v := range c.IntRegisters {
			clone.IntRegisters[k] = v
		}
	}
	if c.FloatRegisters != nil {
		clone.FloatRegisters = make(map[uint8]float64, len(c.FloatRegisters))
		for k, v := range c.FloatRegisters {
			clone.FloatRegisters[k] = v
		}
	}

	return &clone
}

// NewEmulator returns a functional emulator starting from the machine's
// initial architectural state.
func (c *MachineConfig) NewEmulator() *emu.Emulator {
	mem := emu.NewMemory(c.MemoryLimit)
	for addr, v := range c.Memory {
		mem.Write(addr, v)
	}

	e := emu.NewEmulator(
		emu.WithMemory(mem),
		emu.WithUnmappedValue(c.UnmappedValue),
		emu.WithUnmappedReadWarning(c.WarnUnmappedRead),
	)
	for reg, v := range c.IntRegisters {
		e.RegFile().WriteReg(reg, v)
	}
	for reg, v := range c.FloatRegisters {
		e.FloatRegFile().WriteValue(reg, v)
	}

	return e
}
