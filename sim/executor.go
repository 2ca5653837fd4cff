package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Executor performs single simulation runs: one trial over a fresh set of
// minimizers, reduced to one ImbalanceSummary per method.
type Executor struct {
	Methods            []MethodSpec
	Participants       int
	SharedParticipants bool
}

// NewExecutor creates an Executor for the given methods and participant count.
func NewExecutor(methods []MethodSpec, participants int) (*Executor, error) {
	if participants <= 0 {
		return nil, fmt.Errorf("participant count must be positive, got %d: %w", participants, ErrInvalidConfig)
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no methods configured: %w", ErrInvalidConfig)
	}
	return &Executor{Methods: methods, Participants: participants}, nil
}

// DoOneSimulation runs simulation simIndex with nFactors binary factors.
// Factor-invariant methods are included only when includePureRandom is set.
func (e *Executor) DoOneSimulation(rng *rand.Rand, simIndex, nFactors int, includePureRandom bool) ([]ImbalanceSummary, error) {
	if nFactors <= 0 {
		return nil, fmt.Errorf("factor count must be positive, got %d: %w", nFactors, ErrInvalidConfig)
	}
	factors := DefaultFactors(nFactors)

	minimizers := make([]Minimizer, 0, len(e.Methods))
	for _, method := range e.Methods {
		if method.FactorInvariant && !includePureRandom {
			continue
		}
		m, err := NewMinimizer(method.Config(factors, DefaultArms()), rng)
		if err != nil {
			return nil, err
		}
		minimizers = append(minimizers, m)
	}

	trial, err := NewSimulatedTrial(factors, minimizers)
	if err != nil {
		return nil, err
	}
	trial.SharedParticipants = e.SharedParticipants

	results, err := trial.Simulate(rng, e.Participants)
	if err != nil {
		return nil, err
	}

	summaries := make([]ImbalanceSummary, 0, len(minimizers))
	for _, m := range minimizers {
		s, err := Summarize(simIndex, m, results[m.Name()])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	logrus.Debugf("simulation %d with %d factors: %d methods summarized", simIndex, nFactors, len(summaries))
	return summaries, nil
}
