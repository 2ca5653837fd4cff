// Package analysis derives empirical CDF summaries from a sim.ResultTable.
//
// The "CDF" here follows Pocock & Simon (1975): for each threshold, the
// proportion of observed imbalance values at or above it.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/pinsleepe/well-random/sim"
)

// CDFPoint is the proportion of values >= Threshold.
type CDFPoint struct {
	Threshold  float64
	Proportion float64
}

// CDFRow is one point of a grouped CDF table.
type CDFRow struct {
	Method     string
	Factors    int
	Threshold  float64
	Proportion float64
}

// EmpiricalCDF returns, for each threshold in the given order, the proportion
// of values greater than or equal to it. Empty values return
// sim.ErrDegenerateStatistics.
func EmpiricalCDF(values, thresholds []float64) ([]CDFPoint, error) {
	n := len(values)
	if n == 0 {
		return nil, fmt.Errorf("empirical CDF over zero values: %w", sim.ErrDegenerateStatistics)
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	points := make([]CDFPoint, len(thresholds))
	for i, th := range thresholds {
		// first index with sorted[idx] >= th
		idx := sort.SearchFloat64s(sorted, th)
		points[i] = CDFPoint{Threshold: th, Proportion: float64(n-idx) / float64(n)}
	}
	return points, nil
}

// Measure selects which imbalance a grouped CDF is computed over.
type Measure int

const (
	// FactorImbalance pools every per-factor score of every row.
	FactorImbalance Measure = iota
	// ArmImbalance takes one overall arm-count imbalance per row.
	ArmImbalance
)

var measureNames = map[Measure]string{
	FactorImbalance: "factor",
	ArmImbalance:    "arm",
}

func (m Measure) String() string {
	if name, ok := measureNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Measure(%d)", int(m))
}

// ParseMeasure converts "factor" or "arm" to a Measure.
func ParseMeasure(s string) (Measure, error) {
	for m, name := range measureNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown measure %q (valid: factor, arm): %w", s, sim.ErrInvalidConfig)
}

// Values returns the observations a row contributes to the measure.
func (m Measure) Values(row sim.ImbalanceSummary) []float64 {
	if m == ArmImbalance {
		return []float64{float64(row.ArmImbalance)}
	}
	return row.FactorImbalances
}

type partition struct {
	method  string
	factors int
}

// partitionValues groups the measure's observations by (method, factor count)
// and returns the partitions sorted by method, then factor count.
func partitionValues(table *sim.ResultTable, measure Measure) ([]partition, map[partition][]float64) {
	values := make(map[partition][]float64)
	for _, row := range table.Rows() {
		key := partition{method: row.Method, factors: row.Factors}
		values[key] = append(values[key], measure.Values(row)...)
	}
	keys := make([]partition, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].method != keys[j].method {
			return keys[i].method < keys[j].method
		}
		return keys[i].factors < keys[j].factors
	})
	return keys, values
}

// GroupCDF computes the empirical CDF of measure for every (method, factor
// count) present in the table. Combinations without rows are absent from the
// output. Rows are ordered by method, factor count, then threshold order.
func GroupCDF(table *sim.ResultTable, measure Measure, thresholds []float64) ([]CDFRow, error) {
	keys, values := partitionValues(table, measure)
	rows := make([]CDFRow, 0, len(keys)*len(thresholds))
	for _, k := range keys {
		points, err := EmpiricalCDF(values[k], thresholds)
		if err != nil {
			return nil, fmt.Errorf("%s with %d factors: %w", k.method, k.factors, err)
		}
		for _, p := range points {
			rows = append(rows, CDFRow{
				Method:     k.method,
				Factors:    k.factors,
				Threshold:  p.Threshold,
				Proportion: p.Proportion,
			})
		}
	}
	return rows, nil
}

// Bins returns evenly spaced thresholds start, start+step, ... below stop.
// Values are rounded to 12 decimal places so 0.02 steps print cleanly.
// Invalid or oversized ranges return sim.ErrInvalidConfig.
func Bins(start, stop, step float64) ([]float64, error) {
	n, err := sim.BinCount(start, stop, step)
	if err != nil {
		return nil, err
	}
	bins := make([]float64, n)
	for i := range bins {
		bins[i] = math.Round((start+float64(i)*step)*1e12) / 1e12
	}
	return bins, nil
}

// BinsFromSpec expands a sim.BinSpec.
func BinsFromSpec(spec sim.BinSpec) ([]float64, error) {
	return Bins(spec.Start, spec.Stop, spec.Step)
}

// DefaultFactorBins returns 0.00 to 0.30 in steps of 0.02.
func DefaultFactorBins() []float64 {
	bins, _ := Bins(0, 0.32, 0.02)
	return bins
}

// DefaultArmBins returns the integers 0 to 19.
func DefaultArmBins() []float64 {
	bins, _ := Bins(0, 20, 1)
	return bins
}
