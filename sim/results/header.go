// Package results persists Result Tables: a YAML run header alongside a flat
// CSV of imbalance rows, and a SQLite store holding many runs.
package results

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pinsleepe/well-random/sim"
)

// FormatVersion is written to every run header.
const FormatVersion = 1

// RunHeader captures the metadata of one grid run.
type RunHeader struct {
	Version    int                  `yaml:"results_version"`
	RunID      string               `yaml:"run_id"`
	CreatedAt  string               `yaml:"created_at,omitempty"`
	Strategy   string               `yaml:"strategy,omitempty"` // "parallel" or "sequential"
	Experiment sim.ExperimentConfig `yaml:"experiment"`
}

// NewRunHeader stamps a fresh run ID and the current UTC time onto cfg.
func NewRunHeader(cfg sim.ExperimentConfig, strategy string) *RunHeader {
	return &RunHeader{
		Version:    FormatVersion,
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		Strategy:   strategy,
		Experiment: cfg,
	}
}

// WriteHeader writes the header as YAML.
func WriteHeader(header *RunHeader, path string) error {
	data, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run header: %w", err)
	}
	return nil
}

// ReadHeader reads a YAML run header.
func ReadHeader(path string) (*RunHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run header: %w", err)
	}
	return parseHeader(data)
}

// parseHeader decodes a YAML run header and rejects unknown format versions.
func parseHeader(data []byte) (*RunHeader, error) {
	var header RunHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parsing run header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported results version %d (want %d)", header.Version, FormatVersion)
	}
	return &header, nil
}
