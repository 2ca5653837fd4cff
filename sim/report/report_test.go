package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsleepe/well-random/sim"
	"github.com/pinsleepe/well-random/sim/analysis"
	"github.com/pinsleepe/well-random/sim/results"
)

func cdfRows() []analysis.CDFRow {
	return []analysis.CDFRow{
		{Method: sim.MethodMinimizerP07, Factors: 1, Threshold: 0, Proportion: 1},
		{Method: sim.MethodMinimizerP07, Factors: 1, Threshold: 0.02, Proportion: 0.5},
		{Method: sim.MethodMinimizerP07, Factors: 2, Threshold: 0, Proportion: 1},
		{Method: sim.MethodMinimizerP07, Factors: 2, Threshold: 0.02, Proportion: 0.625},
		{Method: sim.MethodPureRandom, Factors: 1, Threshold: 0, Proportion: 1},
		{Method: sim.MethodPureRandom, Factors: 1, Threshold: 0.02, Proportion: 0.9},
	}
}

func TestPivot(t *testing.T) {
	tables := Pivot(cdfRows())

	require.Len(t, tables, 2)
	p07 := tables[0]
	assert.Equal(t, sim.MethodMinimizerP07, p07.Method)
	assert.Equal(t, []int{1, 2}, p07.FactorCounts)
	assert.Equal(t, []float64{0, 0.02}, p07.Thresholds)
	assert.Equal(t, [][]float64{{1, 1}, {0.5, 0.625}}, p07.Proportions)

	assert.Equal(t, []int{1}, tables[1].FactorCounts, "pure random only has one factor column")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Render(&buf, "Factor imbalance", cdfRows()))

	out := buf.String()
	assert.Contains(t, out, "Factor imbalance")
	assert.Contains(t, out, "Minimization, p = 0.7")
	assert.Contains(t, out, "Purely random assignment")
	assert.Contains(t, out, "1 factor")
	assert.Contains(t, out, "2 factors")
	assert.Contains(t, out, "0.625")
	assert.Contains(t, out, "0.02")
	assert.Less(t, strings.Index(out, "Minimization, p = 0.7"), strings.Index(out, "Purely random assignment"))
}

func TestRender_NoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "Arm imbalance", nil))
	assert.Contains(t, buf.String(), "(no results)")
}

func TestMethodTitleAndFactorLabel(t *testing.T) {
	assert.Equal(t, "Minimization, p = 1.0", MethodTitle(sim.MethodMinimizerP10))
	assert.Equal(t, "custom", MethodTitle("custom"))
	assert.Equal(t, "1 factor", FactorLabel(1))
	assert.Equal(t, "8 factors", FactorLabel(8))
}

func TestRenderDescription(t *testing.T) {
	var buf bytes.Buffer
	desc := []analysis.Description{{Method: sim.MethodPureRandom, Factors: 1, Count: 100, Mean: 5.12, StdDev: 3.9, Median: 4, Max: 18}}

	require.NoError(t, RenderDescription(&buf, "Arm imbalance summary", desc))

	out := buf.String()
	assert.Contains(t, out, "Arm imbalance summary")
	assert.Contains(t, out, "5.120")
	assert.Contains(t, out, "18.000")
}

func TestRenderRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderRuns(&buf, nil))
	assert.Contains(t, buf.String(), "no stored runs")

	buf.Reset()
	runs := []results.RunSummary{{RunID: "abc", CreatedAt: "2026-01-02T03:04:05Z", Strategy: "parallel", Simulations: 100, Participants: 50, MaxFactors: 8, Rows: 1700}}
	require.NoError(t, RenderRuns(&buf, runs))
	assert.Contains(t, buf.String(), "abc")
	assert.Contains(t, buf.String(), "1700")
}
