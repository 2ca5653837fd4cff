package minimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsleepe/well-random/sim"
)

func TestScoreFuncs(t *testing.T) {
	tests := []struct {
		method string
		counts []float64
		want   float64
	}{
		{sim.ImbalanceRange, []float64{1, 3, 2}, 2},
		{sim.ImbalanceRange, []float64{4, 4}, 0},
		{sim.ImbalanceVariance, []float64{1, 3}, 1},
		{sim.ImbalanceSD, []float64{1, 3}, 1},
		{sim.ImbalanceSD, []float64{2, 2, 2}, 0},
	}
	for _, tc := range tests {
		score, err := NewScoreFunc(tc.method)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, score(tc.counts), 1e-12, "%s(%v)", tc.method, tc.counts)
	}

	_, err := NewScoreFunc("median")
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestArmProbabilities(t *testing.T) {
	tests := []struct {
		name       string
		imbalances []float64
		method     string
		p          float64
		want       []float64
	}{
		{"tie is uniform", []float64{2, 2}, sim.ProbabilityBestOnly, 0.7, []float64{0.5, 0.5}},
		{"best gets p", []float64{1, 3}, sim.ProbabilityBestOnly, 0.7, []float64{0.7, 0.3}},
		{"best second arm", []float64{3, 1}, sim.ProbabilityBestOnly, 1.0, []float64{0, 1}},
		{"tied best share p", []float64{1, 1, 4}, sim.ProbabilityBestOnly, 0.7, []float64{0.35, 0.35, 0.3}},
		{"pure random ignores scores", []float64{0, 9}, sim.ProbabilityPureRandom, 0, []float64{0.5, 0.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ArmProbabilities(tc.imbalances, tc.method, tc.p)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tc.want, got, 1e-12)
		})
	}

	_, err := ArmProbabilities(nil, sim.ProbabilityBestOnly, 0.7)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	_, err = ArmProbabilities([]float64{1, 2}, "weighted", 0.7)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
