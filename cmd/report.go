package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pinsleepe/well-random/sim"
	"github.com/pinsleepe/well-random/sim/analysis"
	"github.com/pinsleepe/well-random/sim/report"
	"github.com/pinsleepe/well-random/sim/results"
)

const (
	factorReportTitle = "Factor imbalance: proportion of per-factor imbalances >= threshold"
	armReportTitle    = "Arm imbalance: proportion of |n1 - n2| >= threshold"
)

var (
	// CLI flags for re-reporting stored results
	resultsDir     string    // Directory written by `run --out-dir`
	reportDBPath   string    // SQLite database written by `run --db`
	reportRunID    string    // Run to load from the database
	factorBinsFlag []float64 // start,stop,step for factor thresholds
	armBinsFlag    []float64 // start,stop,step for arm thresholds
	reportDescribe bool      // Also print descriptive statistics
)

// reportCmd recomputes CDF tables from stored results
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print imbalance CDF tables from stored results",
	Run: func(cmd *cobra.Command, args []string) {
		header, table, err := loadStoredRun(cmd.Context())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		bins, err := reportBins(cmd, header.Experiment.Bins)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Loaded run %s with %d rows", header.RunID, table.Len())
		if _, _, err := printReports(cmd.OutOrStdout(), table, bins, reportDescribe); err != nil {
			logrus.Fatalf("Analysis failed: %v", err)
		}
	},
}

func loadStoredRun(ctx context.Context) (*results.RunHeader, *sim.ResultTable, error) {
	switch {
	case resultsDir != "" && reportDBPath != "":
		return nil, nil, fmt.Errorf("--results and --db are mutually exclusive")
	case resultsDir != "":
		return results.LoadDir(resultsDir)
	case reportDBPath != "":
		if reportRunID == "" {
			return nil, nil, fmt.Errorf("--run is required with --db (see `well-random runs`)")
		}
		store, err := results.OpenSQLiteStore(reportDBPath)
		if err != nil {
			return nil, nil, err
		}
		defer func() { _ = store.Close() }()
		return store.LoadRun(ctx, reportRunID)
	default:
		return nil, nil, fmt.Errorf("one of --results or --db is required")
	}
}

// reportBins starts from the stored bins and applies explicitly set flags.
func reportBins(cmd *cobra.Command, stored sim.BinsConfig) (sim.BinsConfig, error) {
	bins := stored
	if cmd.Flags().Changed("factor-bins") {
		spec, err := binSpecFromFlag("factor-bins", factorBinsFlag)
		if err != nil {
			return bins, err
		}
		bins.Factor = spec
	}
	if cmd.Flags().Changed("arm-bins") {
		spec, err := binSpecFromFlag("arm-bins", armBinsFlag)
		if err != nil {
			return bins, err
		}
		bins.Arm = spec
	}
	return bins, nil
}

func binSpecFromFlag(name string, values []float64) (sim.BinSpec, error) {
	if len(values) != 3 {
		return sim.BinSpec{}, fmt.Errorf("--%s needs start,stop,step, got %d values: %w", name, len(values), sim.ErrInvalidConfig)
	}
	spec := sim.BinSpec{Start: values[0], Stop: values[1], Step: values[2]}
	if err := spec.Validate(); err != nil {
		return sim.BinSpec{}, fmt.Errorf("--%s: %w", name, err)
	}
	return spec, nil
}

// printReports computes and renders the factor and arm imbalance CDFs of
// table, returning the computed rows for export.
func printReports(w io.Writer, table *sim.ResultTable, bins sim.BinsConfig, withDescription bool) (factorRows, armRows []analysis.CDFRow, err error) {
	factorBins, err := analysis.BinsFromSpec(bins.Factor)
	if err != nil {
		return nil, nil, fmt.Errorf("factor bins: %w", err)
	}
	armBins, err := analysis.BinsFromSpec(bins.Arm)
	if err != nil {
		return nil, nil, fmt.Errorf("arm bins: %w", err)
	}

	factorRows, err = analysis.GroupCDF(table, analysis.FactorImbalance, factorBins)
	if err != nil {
		return nil, nil, err
	}
	armRows, err = analysis.GroupCDF(table, analysis.ArmImbalance, armBins)
	if err != nil {
		return nil, nil, err
	}

	if err := report.Render(w, factorReportTitle, factorRows); err != nil {
		return nil, nil, err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return nil, nil, err
	}
	if err := report.Render(w, armReportTitle, armRows); err != nil {
		return nil, nil, err
	}

	if withDescription {
		for _, m := range []analysis.Measure{analysis.FactorImbalance, analysis.ArmImbalance} {
			desc, err := analysis.Describe(table, m)
			if err != nil {
				return nil, nil, err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return nil, nil, err
			}
			if err := report.RenderDescription(w, fmt.Sprintf("Summary of %s imbalance", m), desc); err != nil {
				return nil, nil, err
			}
		}
	}
	return factorRows, armRows, nil
}

func registerReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&resultsDir, "results", "", "Results directory written by `run --out-dir`")
	cmd.Flags().StringVar(&reportDBPath, "db", "", "SQLite database written by `run --db`")
	cmd.Flags().StringVar(&reportRunID, "run", "", "Run ID to load from --db")
	cmd.Flags().Float64SliceVar(&factorBinsFlag, "factor-bins", nil, "Factor thresholds as start,stop,step (default from the stored run)")
	cmd.Flags().Float64SliceVar(&armBinsFlag, "arm-bins", nil, "Arm thresholds as start,stop,step (default from the stored run)")
	cmd.Flags().BoolVar(&reportDescribe, "describe", false, "Also print mean, sd, median and max per method and factor count")
}

func init() {
	registerReportFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}
