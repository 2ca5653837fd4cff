package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/pinsleepe/well-random/sim"
)

// Sequential runs cells one after another in the calling goroutine. Useful
// for debugging and small grids.
type Sequential struct {
	Metrics *Metrics // optional
}

// Run executes cells in order, stopping at the first failure.
func (s Sequential) Run(ctx context.Context, cells []Cell, fn CellFunc) (*sim.ResultTable, error) {
	rng := sim.UnseededRNG("sequential")
	table := sim.NewResultTable()
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		s.Metrics.cellStarted()
		rows, err := fn(ctx, rng, c)
		s.Metrics.cellFinished(time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		if err := table.Append(rows...); err != nil {
			return nil, err
		}
	}
	return table.Seal(), nil
}
