package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, score, store and publish one batch of ads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runOnce(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("no-report", false, "do not write the markdown results file")
	runCmd.Flags().IntP("top", "n", 10, "number of matches printed to stdout (0 prints none)")
}

func runOnce(cmd *cobra.Command) error {
	a, err := newApplication()
	if err != nil {
		return err
	}
	defer a.Close()

	if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
		a.runner.Publisher = nil
	}

	res, err := a.runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if res.ReportPath != "" {
		a.log.Info("report written", zap.String("path", res.ReportPath))
	}
	if len(res.Ranked) == 0 {
		fmt.Println("No ads found.")
		return nil
	}

	top, _ := cmd.Flags().GetInt("top")
	if top <= 0 {
		return nil
	}
	shown := res.Ranked
	if len(shown) > top {
		shown = shown[:top]
	}
	return report.Markdown(os.Stdout, shown, res.Meta.EmbeddingAvailable, res.Meta.StartedAt.Local())
}
