// Package minimize implements the sim.Minimizer capability: Pocock & Simon
// minimization with range, standard-deviation or variance scoring, and pure
// random allocation.
package minimize

import (
	"fmt"
	"math/rand"

	"github.com/pinsleepe/well-random/sim"
)

// Minimizer assigns participants to arms so as to reduce imbalance within the
// strata of every factor. It keeps counts[factor][level][arm] of the
// participants assigned so far.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Minimizer struct {
	cfg        sim.MinimizerConfig
	score      ScoreFunc
	preferredP float64
	rng        *rand.Rand

	counts   [][][]int
	assigned int

	// scratch buffers reused across Assign calls
	armCounts  []float64
	imbalances []float64
}

// New creates a Minimizer with zeroed counts.
func New(cfg sim.MinimizerConfig, rng *rand.Rand) (*Minimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("minimizer %q: rng is nil: %w", cfg.Name, sim.ErrInvalidConfig)
	}
	score, err := NewScoreFunc(cfg.ImbalanceMethod)
	if err != nil {
		return nil, err
	}
	var preferredP float64
	if cfg.PreferredP != nil {
		preferredP = *cfg.PreferredP
	}

	counts := make([][][]int, len(cfg.Factors))
	for f, factor := range cfg.Factors {
		counts[f] = make([][]int, factor.NumLevels())
		for l := range counts[f] {
			counts[f][l] = make([]int, len(cfg.Arms))
		}
	}
	return &Minimizer{
		cfg:        cfg,
		score:      score,
		preferredP: preferredP,
		rng:        rng,
		counts:     counts,
		armCounts:  make([]float64, len(cfg.Arms)),
		imbalances: make([]float64, len(cfg.Arms)),
	}, nil
}

func (m *Minimizer) Name() string          { return m.cfg.Name }
func (m *Minimizer) Factors() []sim.Factor { return m.cfg.Factors }
func (m *Minimizer) Arms() []sim.Arm       { return m.cfg.Arms }

// Assigned returns the number of participants assigned so far.
func (m *Minimizer) Assigned() int { return m.assigned }

// Count returns how many participants at level of factor went to arm.
func (m *Minimizer) Count(factor, level, arm int) int {
	return m.counts[factor][level][arm]
}

// Imbalances returns, for each arm, the summed imbalance score the factor
// strata of a participant with levels would have if the participant were
// assigned to that arm. The returned slice is reused by the next call.
func (m *Minimizer) Imbalances(levels []int) ([]float64, error) {
	if err := m.checkLevels(levels); err != nil {
		return nil, err
	}
	for a := range m.imbalances {
		total := 0.0
		for f, level := range levels {
			for b, c := range m.counts[f][level] {
				m.armCounts[b] = float64(c)
			}
			m.armCounts[a]++
			total += m.score(m.armCounts)
		}
		m.imbalances[a] = total
	}
	return m.imbalances, nil
}

// Assign chooses an arm for a participant and records the assignment.
func (m *Minimizer) Assign(levels []int) (int, float64, error) {
	var imbalances []float64
	if m.cfg.ProbabilityMethod == sim.ProbabilityPureRandom {
		if err := m.checkLevels(levels); err != nil {
			return 0, 0, err
		}
		imbalances = m.imbalances[:len(m.cfg.Arms)]
	} else {
		var err error
		if imbalances, err = m.Imbalances(levels); err != nil {
			return 0, 0, err
		}
	}
	probs, err := ArmProbabilities(imbalances, m.cfg.ProbabilityMethod, m.preferredP)
	if err != nil {
		return 0, 0, err
	}

	arm := m.sample(probs)
	for f, level := range levels {
		m.counts[f][level][arm]++
	}
	m.assigned++
	return arm, probs[arm], nil
}

// sample draws an arm index from probs. Arms with zero probability are never
// returned.
func (m *Minimizer) sample(probs []float64) int {
	u := m.rng.Float64()
	cumulative := 0.0
	last := 0
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		cumulative += p
		last = i
		if u < cumulative {
			return i
		}
	}
	return last
}

func (m *Minimizer) checkLevels(levels []int) error {
	if len(levels) != len(m.cfg.Factors) {
		return fmt.Errorf("minimizer %q: participant has %d levels, want %d: %w",
			m.cfg.Name, len(levels), len(m.cfg.Factors), sim.ErrInvalidConfig)
	}
	for f, level := range levels {
		if level < 0 || level >= m.cfg.Factors[f].NumLevels() {
			return fmt.Errorf("minimizer %q: level %d out of range for factor %q: %w",
				m.cfg.Name, level, m.cfg.Factors[f].Name, sim.ErrInvalidConfig)
		}
	}
	return nil
}
