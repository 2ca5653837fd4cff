package minimize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pinsleepe/well-random/sim"
)

// ScoreFunc scores the spread of arm counts within one factor level.
// Larger scores mean worse balance; a perfectly even spread scores 0.
type ScoreFunc func(armCounts []float64) float64

// RangeScore is max - min of the arm counts.
func RangeScore(armCounts []float64) float64 {
	return floats.Max(armCounts) - floats.Min(armCounts)
}

// VarianceScore is the population variance of the arm counts.
func VarianceScore(armCounts []float64) float64 {
	return stat.PopVariance(armCounts, nil)
}

// SDScore is the population standard deviation of the arm counts.
func SDScore(armCounts []float64) float64 {
	return math.Sqrt(stat.PopVariance(armCounts, nil))
}

// NewScoreFunc returns the scoring function for an imbalance method name.
func NewScoreFunc(method string) (ScoreFunc, error) {
	switch method {
	case sim.ImbalanceRange:
		return RangeScore, nil
	case sim.ImbalanceSD:
		return SDScore, nil
	case sim.ImbalanceVariance:
		return VarianceScore, nil
	default:
		return nil, fmt.Errorf("unknown imbalance method %q: %w", method, sim.ErrInvalidConfig)
	}
}

// tieTolerance absorbs floating-point noise when comparing arm imbalances.
const tieTolerance = 1e-9

// ArmProbabilities returns the selection probability of each arm given the
// total imbalance each arm would produce.
//
// pure_random: every arm is equally likely.
// best_only: when all arms tie, every arm is equally likely; otherwise the
// arms with the lowest imbalance share preferredP and the remaining arms share
// 1 - preferredP.
func ArmProbabilities(imbalances []float64, method string, preferredP float64) ([]float64, error) {
	n := len(imbalances)
	if n == 0 {
		return nil, fmt.Errorf("no arms to score: %w", sim.ErrInvalidConfig)
	}
	probs := make([]float64, n)
	uniform := func() []float64 {
		for i := range probs {
			probs[i] = 1 / float64(n)
		}
		return probs
	}

	switch method {
	case sim.ProbabilityPureRandom:
		return uniform(), nil
	case sim.ProbabilityBestOnly:
	default:
		return nil, fmt.Errorf("unknown probability method %q: %w", method, sim.ErrInvalidConfig)
	}

	lowest := floats.Min(imbalances)
	best := 0
	for _, v := range imbalances {
		if v-lowest <= tieTolerance {
			best++
		}
	}
	if best == n {
		return uniform(), nil
	}
	for i, v := range imbalances {
		if v-lowest <= tieTolerance {
			probs[i] = preferredP / float64(best)
		} else {
			probs[i] = (1 - preferredP) / float64(n-best)
		}
	}
	return probs, nil
}
