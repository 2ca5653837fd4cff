package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pinsleepe/well-random/sim"
)

// Description summarizes one (method, factor count) partition of a measure.
type Description struct {
	Method  string
	Factors int
	Count   int
	Mean    float64
	StdDev  float64 // sample standard deviation; 0 for a single observation
	Median  float64
	Max     float64
}

// Describe computes descriptive statistics of measure per (method, factor
// count), ordered like GroupCDF.
func Describe(table *sim.ResultTable, measure Measure) ([]Description, error) {
	keys, values := partitionValues(table, measure)
	out := make([]Description, 0, len(keys))
	for _, k := range keys {
		x := values[k]
		if len(x) == 0 {
			return nil, fmt.Errorf("%s with %d factors has no values: %w", k.method, k.factors, sim.ErrDegenerateStatistics)
		}
		sorted := append([]float64(nil), x...)
		sort.Float64s(sorted)

		d := Description{
			Method:  k.method,
			Factors: k.factors,
			Count:   len(x),
			Mean:    stat.Mean(x, nil),
			Median:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Max:     floats.Max(x),
		}
		if len(x) > 1 {
			d.StdDev = stat.StdDev(x, nil)
		}
		out = append(out, d)
	}
	return out, nil
}
