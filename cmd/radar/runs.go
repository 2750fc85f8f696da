package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/competitive-radar/backend/internal/storage/models"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.SQLite.Enabled {
			return fmt.Errorf("run history is disabled (sqlite.enabled=false)")
		}

		db, err := openHistory(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), flagRunsLimit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}
		printRuns(cmd, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 10, "number of runs to show")
}

func printRuns(cmd *cobra.Command, runs []models.RunRecord) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tMODE\tINPUTS\tTOP COMPETITORS\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			r.InputCount,
			strings.Join(r.TopCompetitors, ", "),
			r.ID,
		)
	}
	tw.Flush()
}
