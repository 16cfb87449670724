package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/report"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print stored ads seen within a time window, best first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		window, _ := cmd.Flags().GetDuration("window")
		if window <= 0 {
			window = cfg.Report.RecentWindow
		}
		limit, _ := cmd.Flags().GetInt("limit")

		now := time.Now()
		ads, err := db.QueryRecent(cmd.Context(), window, now)
		if err != nil {
			return err
		}
		if len(ads) == 0 {
			fmt.Printf("No ads seen in the last %s.\n", window)
			return nil
		}
		if limit > 0 && len(ads) > limit {
			ads = ads[:limit]
		}
		return report.Markdown(os.Stdout, ads, anyEmbedded(ads), now)
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)

	recentCmd.Flags().DurationP("window", "w", 0, "look-back window (default report.recent-window)")
	recentCmd.Flags().IntP("limit", "n", 25, "maximum number of ads (0 for all)")
}

func anyEmbedded(ads []domain.Ranked) bool {
	for _, a := range ads {
		if a.Score.EmbeddingScore != nil {
			return true
		}
	}
	return false
}
