package grid

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pinsleepe/well-random/sim"
)

// Parallel runs cells on a bounded pool of worker goroutines.
//
// Each of the Workers slots hosts one worker at a time. A worker owns its RNG
// and serves at most MaxTasksPerWorker cells; it is then retired and the slot
// starts a fresh worker, which bounds per-worker state growth. Results are
// handed to the collector only when a cell completes. The first failing cell
// cancels the pool and its error is returned.
type Parallel struct {
	Workers           int // <= 0 = DefaultWorkers()
	MaxTasksPerWorker int // <= 0 = never recycle
	Metrics           *Metrics
}

// worker is one generation of a pool slot.
type worker struct {
	name string
	rng  *rand.Rand
}

func newWorker(slot, generation int) *worker {
	name := fmt.Sprintf("worker_%d_%d", slot, generation)
	return &worker{name: name, rng: sim.UnseededRNG(name)}
}

// Run dispatches cells to the pool and blocks until every worker has exited.
func (p Parallel) Run(ctx context.Context, cells []Cell, fn CellFunc) (*sim.ResultTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	workers = min(workers, max(len(cells), 1))
	logrus.Debugf("Starting %d workers (max %d cells per worker)", workers, p.MaxTasksPerWorker)

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan Cell)
	results := make(chan []sim.ImbalanceSummary, workers)

	g.Go(func() error {
		defer close(tasks)
		for _, c := range cells {
			select {
			case tasks <- c:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var slots sync.WaitGroup
	for slot := 0; slot < workers; slot++ {
		slots.Add(1)
		g.Go(func() error {
			defer slots.Done()
			return p.runSlot(gctx, slot, tasks, results, fn)
		})
	}
	go func() {
		slots.Wait()
		close(results)
	}()

	table := sim.NewResultTable()
	var appendErr error
	for rows := range results {
		if err := table.Append(rows...); err != nil && appendErr == nil {
			appendErr = err
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if appendErr != nil {
		return nil, appendErr
	}
	return table.Seal(), nil
}

// runSlot keeps a slot staffed until the task channel is drained.
func (p Parallel) runSlot(ctx context.Context, slot int, tasks <-chan Cell, results chan<- []sim.ImbalanceSummary, fn CellFunc) error {
	for generation := 0; ; generation++ {
		w := newWorker(slot, generation)
		drained, err := p.serve(ctx, w, tasks, results, fn)
		if err != nil || drained {
			return err
		}
		p.Metrics.workerRecycled()
		logrus.Debugf("Recycling %s after %d cells", w.name, p.MaxTasksPerWorker)
	}
}

// serve runs cells on w until the task channel closes (drained = true) or the
// worker reaches its task cap.
func (p Parallel) serve(ctx context.Context, w *worker, tasks <-chan Cell, results chan<- []sim.ImbalanceSummary, fn CellFunc) (drained bool, err error) {
	for served := 0; p.MaxTasksPerWorker <= 0 || served < p.MaxTasksPerWorker; served++ {
		var c Cell
		var ok bool
		select {
		case c, ok = <-tasks:
			if !ok {
				return true, nil
			}
		case <-ctx.Done():
			return false, ctx.Err()
		}

		start := time.Now()
		p.Metrics.cellStarted()
		rows, err := fn(ctx, w.rng, c)
		p.Metrics.cellFinished(time.Since(start), err)
		if err != nil {
			return false, fmt.Errorf("%s: %w", c, err)
		}
		logrus.Debugf("%s finished %s with %d rows", w.name, c, len(rows))

		select {
		case results <- rows:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return false, nil
}
