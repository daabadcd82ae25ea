package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds execution latencies, in cycles, for each functional
// unit class. The defaults reproduce the classic Tomasulo teaching values.
type TimingConfig struct {
	// AddSubLatency is the execution latency of the additive unit
	// (ADD and SUB). Default: 2 cycles.
	AddSubLatency uint64 `json:"add_sub_latency"`

	// MultiplyLatency is the execution latency of MUL. Default: 10 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the execution latency of DIV. Default: 40 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// LoadLatency is the execution latency of LD. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		AddSubLatency:   2,
		MultiplyLatency: 10,
		DivideLatency:   40,
		LoadLatency:     2,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields absent from the
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

	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.AddSubLatency == 0 {
		return fmt.Errorf("add_sub_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency == 0 {
		return fmt.Errorf("divide_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	return &TimingConfig{
		AddSubLatency:   c.AddSubLatency,
		MultiplyLatency: c.MultiplyLatency,
		DivideLatency:   c.DivideLatency,
		LoadLatency:     c.LoadLatency,
	}
}
