package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pinsleepe/well-random/sim"
	"github.com/pinsleepe/well-random/sim/analysis"
	"github.com/pinsleepe/well-random/sim/grid"
	_ "github.com/pinsleepe/well-random/sim/minimize"
	"github.com/pinsleepe/well-random/sim/results"
)

var (
	// CLI flags for the simulation grid
	simulations        int    // Number of independent simulations
	participants       int    // Participants per simulated trial
	maxFactors         int    // Largest number of stratification factors
	workers            int    // Parallel worker count (0 = physical cores - 1)
	maxTasksPerWorker  int    // Cells a worker serves before it is recycled
	sequential         bool   // Run cells one by one in the calling goroutine
	seed               int64  // Experiment seed (0 = unseeded)
	sharedParticipants bool   // Replay one participant stream to every method
	configPath         string // Experiment YAML file
	logLevel           string // Log verbosity level

	// CLI flags for outputs
	outDir      string // Directory for results CSV, header and CDF exports
	dbPath      string // SQLite database to store the run in
	metricsAddr string // Address to serve Prometheus metrics on
	describe    bool   // Also print descriptive statistics
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "well-random",
	Short: "Simulate covariate imbalance under minimization and random allocation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the simulation grid using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation grid and print imbalance CDF tables",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildExperimentConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics := grid.NewMetrics(reg)
		if metricsAddr != "" {
			srv := startMetricsServer(metricsAddr, reg)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		strategy, strategyName := selectStrategy(cfg, sequential, metrics)
		logrus.Infof("Starting %s run: %d simulations, %d participants, up to %d factors, seed=%d",
			strategyName, cfg.Simulations, cfg.Participants, cfg.MaxFactors, cfg.Seed)

		table, err := grid.Run(ctx, grid.NewConfig(cfg), strategy)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		factorRows, armRows, err := printReports(out, table, cfg.Bins, describe)
		if err != nil {
			logrus.Fatalf("Analysis failed: %v", err)
		}

		header := results.NewRunHeader(*cfg, strategyName)
		if outDir != "" {
			if err := exportRun(outDir, header, table, factorRows, armRows); err != nil {
				logrus.Fatalf("Export failed: %v", err)
			}
			logrus.Infof("Results written to %s", outDir)
		}
		if dbPath != "" {
			if err := saveRun(ctx, dbPath, header, table); err != nil {
				logrus.Fatalf("Saving run failed: %v", err)
			}
			_, _ = fmt.Fprintf(out, "\nStored run %s in %s\n", header.RunID, dbPath)
		}

		logrus.Info("Simulation complete.")
	},
}

// buildExperimentConfig starts from the defaults (or --config) and applies
// every explicitly set flag on top.
func buildExperimentConfig(cmd *cobra.Command) (*sim.ExperimentConfig, error) {
	var cfg *sim.ExperimentConfig
	if configPath != "" {
		loaded, err := sim.LoadExperimentConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		defaults := sim.DefaultExperimentConfig()
		cfg = &defaults
	}

	flags := cmd.Flags()
	if flags.Changed("simulations") {
		cfg.Simulations = simulations
	}
	if flags.Changed("participants") {
		cfg.Participants = participants
	}
	if flags.Changed("max-factors") {
		cfg.MaxFactors = maxFactors
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("max-tasks-per-worker") {
		cfg.MaxTasksPerWorker = maxTasksPerWorker
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("shared-participants") {
		cfg.SharedParticipants = sharedParticipants
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectStrategy returns the grid strategy for cfg and its name.
func selectStrategy(cfg *sim.ExperimentConfig, sequential bool, metrics *grid.Metrics) (grid.Strategy, string) {
	if sequential {
		return grid.Sequential{Metrics: metrics}, "sequential"
	}
	w := cfg.Workers
	if w <= 0 {
		w = grid.DefaultWorkers()
	}
	return grid.Parallel{Workers: w, MaxTasksPerWorker: cfg.MaxTasksPerWorker, Metrics: metrics}, "parallel"
}

// startMetricsServer serves reg on addr/metrics in the background.
func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Warnf("Metrics server stopped: %v", err)
		}
	}()
	logrus.Infof("Serving metrics on %s/metrics", addr)
	return srv
}

// exportRun writes the results directory: header, rows and both CDFs.
func exportRun(dir string, header *results.RunHeader, table *sim.ResultTable, factorRows, armRows []analysis.CDFRow) error {
	if err := results.ExportDir(dir, header, table); err != nil {
		return err
	}
	if err := results.ExportCDF(factorRows, filepath.Join(dir, "factor_cdf.csv")); err != nil {
		return err
	}
	return results.ExportCDF(armRows, filepath.Join(dir, "arm_cdf.csv"))
}

func saveRun(ctx context.Context, path string, header *results.RunHeader, table *sim.ResultTable) error {
	store, err := results.OpenSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SaveRun(ctx, header, table)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to cmd.
func registerRunFlags(cmd *cobra.Command) {
	defaults := sim.DefaultExperimentConfig()

	cmd.Flags().IntVar(&simulations, "simulations", defaults.Simulations, "Number of independent simulations")
	cmd.Flags().IntVar(&participants, "participants", defaults.Participants, "Participants per simulated trial")
	cmd.Flags().IntVar(&maxFactors, "max-factors", defaults.MaxFactors, "Simulate 1..N stratification factors")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel workers (0 = physical cores - 1)")
	cmd.Flags().IntVar(&maxTasksPerWorker, "max-tasks-per-worker", defaults.MaxTasksPerWorker, "Cells a worker serves before being recycled (0 = never)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Run cells sequentially instead of in parallel")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Experiment seed; 0 draws fresh randomness every run")
	cmd.Flags().BoolVar(&sharedParticipants, "shared-participants", false, "Replay one participant stream to every method")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to experiment YAML (flags override file values)")

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write header.yaml, results.csv and CDF CSVs to this directory")
	cmd.Flags().StringVar(&dbPath, "db", "", "Store the run in this SQLite database")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&describe, "describe", false, "Also print mean, sd, median and max per method and factor count")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	registerRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
