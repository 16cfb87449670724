package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		now, _ := cmd.Flags().GetBool("now")
		s, err := a.startScheduler(ctx, scheduleSpec(cmd, a), now)
		if err != nil {
			return err
		}

		<-ctx.Done()
		a.log.Info("shutting down")
		s.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("spec", "", `cron spec, e.g. "0 7 * * 1-5" or "@every 6h" (default schedule.spec)`)
	scheduleCmd.Flags().Bool("now", false, "also run once immediately")
}

func scheduleSpec(cmd *cobra.Command, a *application) string {
	if spec, _ := cmd.Flags().GetString("spec"); spec != "" {
		return spec
	}
	return a.cfg.Schedule.Spec
}

// startScheduler fires a pipeline run on every tick. Ticks that land on a
// running batch are skipped by the scheduler and by the runner guard.
func (a *application) startScheduler(ctx context.Context, spec string, now bool) (*scheduler.Scheduler, error) {
	if err := scheduler.ValidateSpec(spec); err != nil {
		return nil, err
	}
	s := scheduler.New(spec, a.log.Named("scheduler"))
	err := s.Start(ctx, "pipeline", now, func(ctx context.Context) error {
		res, err := a.runner.Run(ctx)
		if err == nil && res.ReportPath != "" {
			a.log.Info("report written", zap.String("path", res.ReportPath))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
