package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ImbalanceSummary reduces one method's assignments in one simulation to the
// Pocock & Simon (1975) balance measures.
type ImbalanceSummary struct {
	SimIndex           int
	Method             string
	Factors            int       // number of factors the method stratified by
	FactorImbalances   []float64 // one score per factor, in factor order
	MaxFactorImbalance float64
	ArmImbalance       int
}

// Key identifies a summary within a Result Table.
type Key struct {
	SimIndex int
	Method   string
	Factors  int
}

// Key returns the row's identifying key.
func (s ImbalanceSummary) Key() Key {
	return Key{SimIndex: s.SimIndex, Method: s.Method, Factors: s.Factors}
}

// Summarize computes the per-factor, maximum per-factor and overall arm
// imbalance of a minimizer's records.
func Summarize(simIndex int, m Minimizer, records []AssignmentRecord) (ImbalanceSummary, error) {
	if len(records) == 0 {
		return ImbalanceSummary{}, fmt.Errorf("minimizer %q has no assignments: %w", m.Name(), ErrDegenerateStatistics)
	}
	factors := m.Factors()
	imbalances := make([]float64, len(factors))
	for i, f := range factors {
		v, err := FactorImbalance(records, i, f.NumLevels())
		if err != nil {
			return ImbalanceSummary{}, fmt.Errorf("minimizer %q, factor %q: %w", m.Name(), f.Name, err)
		}
		imbalances[i] = v
	}
	return ImbalanceSummary{
		SimIndex:           simIndex,
		Method:             m.Name(),
		Factors:            len(factors),
		FactorImbalances:   imbalances,
		MaxFactorImbalance: floats.Max(imbalances),
		ArmImbalance:       ArmImbalance(records, len(m.Arms())),
	}, nil
}

// FactorImbalance returns the spread of first-arm assignment rates across the
// levels of one factor: max(q) - min(q), where q is the share of a level's
// participants assigned to arm 0. For a binary factor this is |q_A - q_B|.
// A level with no participants makes its rate undefined and returns
// ErrDegenerateStatistics.
func FactorImbalance(records []AssignmentRecord, factor, numLevels int) (float64, error) {
	totals := make([]int, numLevels)
	firstArm := make([]int, numLevels)
	for _, r := range records {
		level := r.Levels[factor]
		totals[level]++
		if r.Arm == 0 {
			firstArm[level]++
		}
	}
	rates := make([]float64, numLevels)
	for l := range rates {
		if totals[l] == 0 {
			return 0, fmt.Errorf("level %d has no participants: %w", l, ErrDegenerateStatistics)
		}
		rates[l] = float64(firstArm[l]) / float64(totals[l])
	}
	return floats.Max(rates) - floats.Min(rates), nil
}

// ArmImbalance returns the difference between the largest and smallest arm
// counts; for two arms this is |n_1 - n_2|.
func ArmImbalance(records []AssignmentRecord, numArms int) int {
	counts := make([]int, numArms)
	for _, r := range records {
		counts[r.Arm]++
	}
	lo, hi := counts[0], counts[0]
	for _, c := range counts[1:] {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	return hi - lo
}
