package sim

import (
	"fmt"
	"math/rand"
)

// AssignmentRecord is one simulated participant's assignment by one minimizer.
// Levels and Arm index into the minimizer's ordered factors and arms.
type AssignmentRecord struct {
	Levels      []int
	Arm         int
	Probability float64
}

// SimulatedTrial drives a set of minimizers through a stream of synthetic
// participants whose factor levels are drawn uniformly at random.
//
// By default every minimizer sees its own independently drawn participants.
// With SharedParticipants set, one stream is drawn and replayed to every
// minimizer (common random numbers). Independent streams add sampling noise
// to between-method comparisons.
type SimulatedTrial struct {
	SharedParticipants bool

	factors    []Factor
	minimizers []Minimizer
}

// NewSimulatedTrial creates a trial over factors for the given minimizers.
// Minimizer names must be unique and every minimizer must be stratified by
// the same number of factors as the trial.
func NewSimulatedTrial(factors []Factor, minimizers []Minimizer) (*SimulatedTrial, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("trial has no factors: %w", ErrInvalidConfig)
	}
	if len(minimizers) == 0 {
		return nil, fmt.Errorf("trial has no minimizers: %w", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(minimizers))
	for _, m := range minimizers {
		if seen[m.Name()] {
			return nil, fmt.Errorf("duplicate minimizer %q: %w", m.Name(), ErrInvalidConfig)
		}
		seen[m.Name()] = true
		if len(m.Arms()) == 0 {
			return nil, fmt.Errorf("minimizer %q has no arms: %w", m.Name(), ErrInvalidConfig)
		}
		if len(m.Factors()) != len(factors) {
			return nil, fmt.Errorf("minimizer %q has %d factors, trial has %d: %w",
				m.Name(), len(m.Factors()), len(factors), ErrInvalidConfig)
		}
	}
	return &SimulatedTrial{factors: factors, minimizers: minimizers}, nil
}

// Minimizers returns the trial's minimizers in configuration order.
func (t *SimulatedTrial) Minimizers() []Minimizer {
	return t.minimizers
}

// Simulate assigns n participants with every minimizer and returns each
// minimizer's records, keyed by name, in arrival order.
func (t *SimulatedTrial) Simulate(rng *rand.Rand, n int) (map[string][]AssignmentRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("participant count must be positive, got %d: %w", n, ErrInvalidConfig)
	}

	var shared [][]int
	if t.SharedParticipants {
		shared = t.drawParticipants(rng, n)
	}

	results := make(map[string][]AssignmentRecord, len(t.minimizers))
	for _, m := range t.minimizers {
		participants := shared
		if participants == nil {
			participants = t.drawParticipants(rng, n)
		}
		records := make([]AssignmentRecord, 0, n)
		for i, levels := range participants {
			arm, p, err := m.Assign(levels)
			if err != nil {
				return nil, fmt.Errorf("minimizer %q, participant %d: %w", m.Name(), i+1, err)
			}
			records = append(records, AssignmentRecord{Levels: levels, Arm: arm, Probability: p})
		}
		results[m.Name()] = records
	}
	return results, nil
}

func (t *SimulatedTrial) drawParticipants(rng *rand.Rand, n int) [][]int {
	participants := make([][]int, n)
	for i := range participants {
		levels := make([]int, len(t.factors))
		for j, f := range t.factors {
			levels[j] = rng.Intn(f.NumLevels())
		}
		participants[i] = levels
	}
	return participants
}
