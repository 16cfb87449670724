package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlowdi/jobsearcher/internal/logger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSTATUS\tFETCHED\tSCORED\tNEW\tEMBEDDING\tTOOK\tERROR")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\t%s\t%s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.Status,
				r.AdsFetched, r.AdsScored, r.AdsNew,
				r.EmbeddingAvailable,
				r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
				logger.TruncateForLog(r.Error, 60),
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntP("limit", "n", 10, "number of runs")
}
