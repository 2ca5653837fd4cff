package grid

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsleepe/well-random/sim"
)

func oneRow(_ context.Context, _ *rand.Rand, c Cell) ([]sim.ImbalanceSummary, error) {
	return []sim.ImbalanceSummary{{SimIndex: c.SimIndex, Method: "m", Factors: c.Factors}}, nil
}

func TestParallel_RecyclesWorkersAtTaskCap(t *testing.T) {
	// GIVEN one worker slot that may serve a single cell per worker
	metrics := NewMetrics(prometheus.NewRegistry())
	p := Parallel{Workers: 1, MaxTasksPerWorker: 1, Metrics: metrics}

	// WHEN six cells run
	table, err := p.Run(context.Background(), Enumerate(3, 2), oneRow)
	require.NoError(t, err)

	// THEN every cell appears once and a worker was retired after each cell
	assert.Equal(t, 6, table.Len())
	assert.Len(t, table.Keys(), 6)
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.WorkersRecycledTotal))
	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.CellsTotal.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CellsInFlight))
}

func TestParallel_NoTaskCap_NeverRecycles(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	p := Parallel{Workers: 2, Metrics: metrics}

	_, err := p.Run(context.Background(), Enumerate(4, 2), oneRow)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkersRecycledTotal))
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.CellsTotal.WithLabelValues("ok")))
}

func TestSequential_RecordsErrorStatus(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	fail := func(_ context.Context, _ *rand.Rand, c Cell) ([]sim.ImbalanceSummary, error) {
		return nil, errors.New("nope")
	}

	_, err := Sequential{Metrics: metrics}.Run(context.Background(), Enumerate(2, 2), fail)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CellsTotal.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CellsTotal.WithLabelValues("ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.cellStarted()
	m.cellFinished(0, nil)
	m.workerRecycled()
}
