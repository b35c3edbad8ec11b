package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/tomasim/timing/cache"
	"github.com/sarchlab/tomasim/timing/latency"
	"github.com/sarchlab/tomasim/timing/pipeline"
)

// simConfig is the on-disk configuration read by every subcommand. Missing
// sections keep their defaults; a dcache section enables the data cache.
type simConfig struct {
	Timing  *latency.TimingConfig   `json:"timing" yaml:"timing"`
	Machine *pipeline.MachineConfig `json:"machine" yaml:"machine"`
	DCache  *cache.Config           `json:"dcache,omitempty" yaml:"dcache,omitempty"`
}

func defaultSimConfig() *simConfig {
	return &simConfig{
		Timing:  latency.DefaultTimingConfig(),
		Machine: pipeline.DefaultMachineConfig(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// loadSimConfig reads path as YAML or JSON by extension. An empty path
// yields the defaults.
func loadSimConfig(path string) (*simConfig, error) {
	config := defaultSimConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	if config.Machine == nil {
		config.Machine = pipeline.DefaultMachineConfig()
	}

	if err := config.Timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing section: %w", err)
	}
	if err := config.Machine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid machine section: %w", err)
	}
	if config.DCache != nil {
		if err := config.DCache.Validate(); err != nil {
			return nil, fmt.Errorf("invalid dcache section: %w", err)
		}
	}

	return config, nil
}

// save writes the configuration as YAML or JSON by extension.
func (c *simConfig) save(path string) error {
	data, err := c.marshal(isYAML(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *simConfig) marshal(asYAML bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return data, nil
}

// options turns the configuration into pipeline options. forceDCache
// enables the default data cache when the file has no dcache section.
func (c *simConfig) options(forceDCache bool, logger logrus.FieldLogger) []pipeline.PipelineOption {
	opts := []pipeline.PipelineOption{
		pipeline.WithLatencyTable(latency.NewTableWithConfig(c.Timing)),
		pipeline.WithMachineConfig(c.Machine),
		pipeline.WithLogger(logger),
	}

	switch {
	case c.DCache != nil:
		opts = append(opts, pipeline.WithDCache(*c.DCache))
	case forceDCache:
		opts = append(opts, pipeline.WithDCache(cache.DefaultL1DConfig()))
	}

	return opts
}
