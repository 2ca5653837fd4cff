// Package sim provides the core of the allocation-balance simulator: the
// data model, the minimizer capability, the trial simulator and the
// single-run executor.
//
// # Reading Guide
//
// Start with these files:
//   - minimizer.go: the Minimizer interface, MinimizerConfig and MethodSpec
//   - trial.go: SimulatedTrial, which feeds synthetic participants to minimizers
//   - imbalance.go: reduction of assignments to imbalance scores
//   - executor.go: one simulation run over a set of methods
//
// # Architecture
//
// The sim package defines interfaces and data types; implementations and
// orchestration live in sub-packages:
//   - sim/minimize/: range/sd/variance minimization and pure random allocation
//   - sim/grid/: simulation-index x factor-count grid scheduling (sequential or worker pool)
//   - sim/analysis/: empirical CDFs and descriptive statistics over Result Tables
//   - sim/results/: CSV and SQLite persistence of Result Tables
//   - sim/report/: terminal CDF tables
//
// sim/minimize registers its constructor via init() by setting the
// package-level NewMinimizerFunc, so sim never imports an implementation.
package sim
