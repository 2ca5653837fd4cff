package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig holds a complete experiment definition, loadable from YAML.
// Fields absent from the file keep their DefaultExperimentConfig values.
type ExperimentConfig struct {
	Simulations        int          `yaml:"simulations"`
	Participants       int          `yaml:"participants"`
	MaxFactors         int          `yaml:"max_factors"`
	Workers            int          `yaml:"workers"`              // 0 = physical cores - 1
	MaxTasksPerWorker  int          `yaml:"max_tasks_per_worker"` // 0 = never recycle
	Seed               int64        `yaml:"seed"`                 // 0 = unseeded
	SharedParticipants bool         `yaml:"shared_participants"`
	Methods            []MethodSpec `yaml:"methods"`
	Bins               BinsConfig   `yaml:"bins"`
}

// BinsConfig holds the CDF thresholds of both imbalance measures.
type BinsConfig struct {
	Factor BinSpec `yaml:"factor"`
	Arm    BinSpec `yaml:"arm"`
}

// BinSpec describes evenly spaced thresholds in [Start, Stop).
type BinSpec struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Step  float64 `yaml:"step"`
}

// MaxBins caps the number of thresholds a BinSpec may expand to.
const MaxBins = 1_000_000

// Validate checks the bin range.
func (b BinSpec) Validate() error {
	_, err := BinCount(b.Start, b.Stop, b.Step)
	return err
}

// BinCount returns how many thresholds start, start+step, ... fall below stop.
// Non-finite bounds and ranges expanding past MaxBins are rejected.
func BinCount(start, stop, step float64) (int, error) {
	for _, v := range []float64{start, stop, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("bin bounds must be finite, got start=%f stop=%f step=%f: %w", start, stop, step, ErrInvalidConfig)
		}
	}
	if step <= 0 {
		return 0, fmt.Errorf("bin step must be positive, got %f: %w", step, ErrInvalidConfig)
	}
	if stop <= start {
		return 0, fmt.Errorf("bin stop %f must exceed start %f: %w", stop, start, ErrInvalidConfig)
	}
	n := math.Ceil((stop-start)/step - 1e-9)
	if math.IsInf(n, 0) || n > MaxBins {
		return 0, fmt.Errorf("bins %f..%f step %f expand past %d thresholds: %w", start, stop, step, MaxBins, ErrInvalidConfig)
	}
	return int(n), nil
}

// DefaultMaxTasksPerWorker bounds how many cells a worker serves before it is recycled.
const DefaultMaxTasksPerWorker = 500

// DefaultExperimentConfig returns the parameters of the Pocock & Simon
// replication: 100 simulations of 50 participants, 1 to 8 factors.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		Simulations:       100,
		Participants:      50,
		MaxFactors:        8,
		MaxTasksPerWorker: DefaultMaxTasksPerWorker,
		Methods:           DefaultMethods(),
		Bins: BinsConfig{
			Factor: BinSpec{Start: 0, Stop: 0.32, Step: 0.02},
			Arm:    BinSpec{Start: 0, Stop: 20, Step: 1},
		},
	}
}

// LoadExperimentConfig reads a YAML experiment file over the defaults.
// Unknown fields are rejected so typos cause errors.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	cfg := DefaultExperimentConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks counts, method definitions and bins.
func (c *ExperimentConfig) Validate() error {
	if c.Simulations <= 0 {
		return fmt.Errorf("simulations must be positive, got %d: %w", c.Simulations, ErrInvalidConfig)
	}
	if c.Participants <= 0 {
		return fmt.Errorf("participants must be positive, got %d: %w", c.Participants, ErrInvalidConfig)
	}
	if c.MaxFactors <= 0 {
		return fmt.Errorf("max_factors must be positive, got %d: %w", c.MaxFactors, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d: %w", c.Workers, ErrInvalidConfig)
	}
	if c.MaxTasksPerWorker < 0 {
		return fmt.Errorf("max_tasks_per_worker must be non-negative, got %d: %w", c.MaxTasksPerWorker, ErrInvalidConfig)
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("no methods configured: %w", ErrInvalidConfig)
	}
	names := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		if names[m.Name] {
			return fmt.Errorf("duplicate method %q: %w", m.Name, ErrInvalidConfig)
		}
		names[m.Name] = true
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if err := c.Bins.Factor.Validate(); err != nil {
		return fmt.Errorf("factor bins: %w", err)
	}
	if err := c.Bins.Arm.Validate(); err != nil {
		return fmt.Errorf("arm bins: %w", err)
	}
	return nil
}
