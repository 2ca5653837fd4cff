package sim

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoOneSimulation_WithPureRandom_ThreeRecords(t *testing.T) {
	// GIVEN the default methods and 20 participants
	e, err := NewExecutor(DefaultMethods(), 20)
	require.NoError(t, err)

	// WHEN simulation 1 runs with 2 factors including pure random
	rows, err := e.DoOneSimulation(rand.New(rand.NewSource(11)), 1, 2, true)
	require.NoError(t, err)

	// THEN one record per method, each with 2 factor scores and a consistent max
	require.Len(t, rows, 3)
	wantMethods := []string{MethodMinimizerP07, MethodMinimizerP10, MethodPureRandom}
	for i, r := range rows {
		assert.Equal(t, wantMethods[i], r.Method)
		assert.Equal(t, 1, r.SimIndex)
		assert.Equal(t, 2, r.Factors)
		require.Len(t, r.FactorImbalances, 2)
		assert.Equal(t, max(r.FactorImbalances[0], r.FactorImbalances[1]), r.MaxFactorImbalance)
		for _, v := range r.FactorImbalances {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, r.ArmImbalance, 0)
		assert.LessOrEqual(t, r.ArmImbalance, 20)
	}
}

func TestDoOneSimulation_WithoutPureRandom_SkipsFactorInvariantMethods(t *testing.T) {
	e, err := NewExecutor(DefaultMethods(), 40)
	require.NoError(t, err)

	rows, err := e.DoOneSimulation(rand.New(rand.NewSource(5)), 4, 3, false)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEqual(t, MethodPureRandom, r.Method)
		assert.Len(t, r.FactorImbalances, 3)
	}
}

func TestDoOneSimulation_DeterministicMinimization_BoundsArmImbalance(t *testing.T) {
	// GIVEN p = 1.0 minimization over a single binary factor
	e, err := NewExecutor(DefaultMethods()[1:2], 51)
	require.NoError(t, err)

	for seed := int64(1); seed <= 20; seed++ {
		rows, err := e.DoOneSimulation(rand.New(rand.NewSource(seed)), int(seed), 1, false)
		require.NoError(t, err)

		// THEN each stratum differs by at most one, so the arms differ by at most two
		assert.LessOrEqual(t, rows[0].ArmImbalance, 2, "seed %d", seed)
	}
}

func TestDoOneSimulation_SameRNGSeed_IdenticalRows(t *testing.T) {
	e, err := NewExecutor(DefaultMethods(), 30)
	require.NoError(t, err)

	first, err := e.DoOneSimulation(rand.New(rand.NewSource(99)), 2, 4, true)
	require.NoError(t, err)
	second, err := e.DoOneSimulation(rand.New(rand.NewSource(99)), 2, 4, true)
	require.NoError(t, err)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different rows:\n%+v\n%+v", first, second)
	}
}

func TestExecutor_InvalidParameters(t *testing.T) {
	_, err := NewExecutor(DefaultMethods(), 0)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = NewExecutor(nil, 10)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	e, err := NewExecutor(DefaultMethods(), 10)
	require.NoError(t, err)
	_, err = e.DoOneSimulation(rand.New(rand.NewSource(1)), 1, 0, true)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	bad := []MethodSpec{{Name: "bad", ImbalanceMethod: "median", ProbabilityMethod: ProbabilityBestOnly}}
	e, err = NewExecutor(bad, 10)
	require.NoError(t, err)
	_, err = e.DoOneSimulation(rand.New(rand.NewSource(1)), 1, 1, true)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
