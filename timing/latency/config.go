package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// TimingConfig holds latency values for the instruction classes.
type TimingConfig struct {
	// IssueLatency is the number of cycles an instruction spends in the
	// Issued stage before it may begin execution. Default: 1 cycle.
	IssueLatency uint64 `json:"issue_latency" yaml:"issue_latency"`

	// IntegerLatency is the execution latency for add, sub, addi, subi and
	// unrecognized opcodes. Default: 1 cycle.
	IntegerLatency uint64 `json:"integer_latency" yaml:"integer_latency"`

	// LoadStoreLatency is the execution latency for fld and fsd.
	// Default: 2 cycles.
	LoadStoreLatency uint64 `json:"load_store_latency" yaml:"load_store_latency"`

	// AddLatency is the execution latency for fadd and fsub.
	// Default: 2 cycles.
	AddLatency uint64 `json:"add_latency" yaml:"add_latency"`

	// MultiplyLatency is the execution latency for fmul.
	// Default: 10 cycles.
	MultiplyLatency uint64 `json:"multiply_latency" yaml:"multiply_latency"`

	// DivideLatency is the execution latency for fdiv.
	// Default: 40 cycles, four times MultiplyLatency.
	DivideLatency uint64 `json:"divide_latency" yaml:"divide_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		IssueLatency:     1,
		IntegerLatency:   1,
		LoadStoreLatency: 2,
		AddLatency:       2,
		MultiplyLatency:  10,
		DivideLatency:    40,
	}
}

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LoadConfig loads a TimingConfig from a JSON or YAML file. The format is
// chosen by extension (.yaml/.yml, otherwise JSON). Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON or YAML file.
func (c *TimingConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0) and that divide
// is not cheaper than multiply.
func (c *TimingConfig) Validate() error {
	if c.IssueLatency == 0 {
		return fmt.Errorf("issue_latency must be > 0")
	}
	if c.IntegerLatency == 0 {
		return fmt.Errorf("integer_latency must be > 0")
	}
	if c.LoadStoreLatency == 0 {
		return fmt.Errorf("load_store_latency must be > 0")
	}
	if c.AddLatency == 0 {
		return fmt.Errorf("add_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency < c.MultiplyLatency {
		return fmt.Errorf("divide_latency must be >= multiply_latency")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
