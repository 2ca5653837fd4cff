// Package grid schedules simulations over the simulation-index x
// factor-count grid, either sequentially or on a bounded, recycling worker
// pool, and assembles the results into one sim.ResultTable.
package grid

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pinsleepe/well-random/sim"
)

// Cell is one unit of work: simulation SimIndex with Factors binary factors.
type Cell struct {
	SimIndex          int
	Factors           int
	IncludePureRandom bool
}

func (c Cell) String() string {
	return fmt.Sprintf("cell sim=%d factors=%d", c.SimIndex, c.Factors)
}

// Enumerate returns the grid {1..nSimulations} x {1..maxFactors} in
// simulation-major order. Factor-invariant methods run only at one factor.
func Enumerate(nSimulations, maxFactors int) []Cell {
	cells := make([]Cell, 0, max(nSimulations, 0)*max(maxFactors, 0))
	for s := 1; s <= nSimulations; s++ {
		for f := 1; f <= maxFactors; f++ {
			cells = append(cells, Cell{SimIndex: s, Factors: f, IncludePureRandom: f == 1})
		}
	}
	return cells
}

// CellFunc runs one cell. rng is the calling worker's own RNG.
type CellFunc func(ctx context.Context, rng *rand.Rand, c Cell) ([]sim.ImbalanceSummary, error)

// Strategy executes a list of cells and collects every row they produce.
// Implementations must return an error, and no table, if any cell fails.
type Strategy interface {
	Run(ctx context.Context, cells []Cell, fn CellFunc) (*sim.ResultTable, error)
}

// Config groups the parameters of one grid run.
type Config struct {
	Simulations        int
	Participants       int
	MaxFactors         int
	Seed               int64 // 0 = unseeded
	Methods            []sim.MethodSpec
	SharedParticipants bool
}

// NewConfig extracts the grid parameters of an experiment.
func NewConfig(exp *sim.ExperimentConfig) Config {
	return Config{
		Simulations:        exp.Simulations,
		Participants:       exp.Participants,
		MaxFactors:         exp.MaxFactors,
		Seed:               exp.Seed,
		Methods:            exp.Methods,
		SharedParticipants: exp.SharedParticipants,
	}
}

// Validate rejects non-positive counts, empty method sets and invalid methods.
func (c Config) Validate() error {
	if c.Simulations <= 0 {
		return fmt.Errorf("simulation count must be positive, got %d: %w", c.Simulations, sim.ErrInvalidConfig)
	}
	if c.Participants <= 0 {
		return fmt.Errorf("participant count must be positive, got %d: %w", c.Participants, sim.ErrInvalidConfig)
	}
	if c.MaxFactors <= 0 {
		return fmt.Errorf("max factor count must be positive, got %d: %w", c.MaxFactors, sim.ErrInvalidConfig)
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("no methods configured: %w", sim.ErrInvalidConfig)
	}
	for _, m := range c.Methods {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Run enumerates the grid for cfg and executes it with strategy.
//
// With a non-zero Seed every cell draws from sim.CellRNG, so results do not
// depend on the strategy or on which worker ran the cell. Otherwise each
// worker's own clock-seeded RNG is used.
func Run(ctx context.Context, cfg Config, strategy Strategy) (*sim.ResultTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	executor, err := sim.NewExecutor(cfg.Methods, cfg.Participants)
	if err != nil {
		return nil, err
	}
	executor.SharedParticipants = cfg.SharedParticipants
	key := sim.NewSimulationKey(cfg.Seed)

	fn := func(_ context.Context, workerRNG *rand.Rand, c Cell) ([]sim.ImbalanceSummary, error) {
		rng := workerRNG
		if key.Seeded() {
			rng = sim.CellRNG(key, c.SimIndex, c.Factors)
		}
		return executor.DoOneSimulation(rng, c.SimIndex, c.Factors, c.IncludePureRandom)
	}

	cells := Enumerate(cfg.Simulations, cfg.MaxFactors)
	logrus.Infof("Simulating %d cells (%d simulations x %d factor counts, %d participants each)",
		len(cells), cfg.Simulations, cfg.MaxFactors, cfg.Participants)
	start := time.Now()

	table, err := strategy.Run(ctx, cells, fn)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Collected %d rows in %s", table.Len(), time.Since(start).Round(time.Millisecond))
	return table, nil
}
