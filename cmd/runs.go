package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pinsleepe/well-random/sim/report"
	"github.com/pinsleepe/well-random/sim/results"
)

var runsDBPath string // SQLite database to list

// runsCmd lists the runs stored in a SQLite database
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs stored in a results database",
	Run: func(cmd *cobra.Command, args []string) {
		if runsDBPath == "" {
			logrus.Fatalf("--db is required")
		}
		store, err := results.OpenSQLiteStore(runsDBPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = store.Close() }()

		runs, err := store.ListRuns(cmd.Context())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := report.RenderRuns(cmd.OutOrStdout(), runs); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDBPath, "db", "", "SQLite database written by `run --db`")
	rootCmd.AddCommand(runsCmd)
}
