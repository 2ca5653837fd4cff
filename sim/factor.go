package sim

import (
	"fmt"
	"strconv"
)

// Factor is a categorical covariate with a fixed, ordered set of levels.
// Participants carry one level index per factor.
type Factor struct {
	Name   string
	Levels []string
}

// NewFactor creates a Factor, rejecting empty names, fewer than two levels
// and duplicate level names.
func NewFactor(name string, levels ...string) (Factor, error) {
	if name == "" {
		return Factor{}, fmt.Errorf("factor name is empty: %w", ErrInvalidConfig)
	}
	if len(levels) < 2 {
		return Factor{}, fmt.Errorf("factor %q needs at least 2 levels, got %d: %w", name, len(levels), ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if seen[l] {
			return Factor{}, fmt.Errorf("factor %q has duplicate level %q: %w", name, l, ErrInvalidConfig)
		}
		seen[l] = true
	}
	return Factor{Name: name, Levels: append([]string(nil), levels...)}, nil
}

// NumLevels returns the number of levels of the factor.
func (f Factor) NumLevels() int { return len(f.Levels) }

// Arm is a named treatment option.
type Arm struct {
	Name string
}

// DefaultFactors creates n binary factors Factor1..FactorN with levels "A" and "B".
func DefaultFactors(n int) []Factor {
	factors := make([]Factor, 0, n)
	for i := 1; i <= n; i++ {
		factors = append(factors, Factor{
			Name:   "Factor" + strconv.Itoa(i),
			Levels: []string{"A", "B"},
		})
	}
	return factors
}

// DefaultArms returns the two arms compared throughout: Arm1 and Arm2.
func DefaultArms() []Arm {
	return []Arm{{Name: "Arm1"}, {Name: "Arm2"}}
}
