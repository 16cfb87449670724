package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/httpapi"
	"github.com/mlowdi/jobsearcher/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for stored ads, runs and the scoring profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Serve.Addr
		}

		var sched *scheduler.Scheduler
		if withSchedule, _ := cmd.Flags().GetBool("schedule"); withSchedule {
			sched, err = a.startScheduler(ctx, scheduleSpec(cmd, a), false)
			if err != nil {
				return err
			}
		}

		deps := httpapi.Deps{
			DB:             a.db,
			Runner:         a.runner,
			Hub:            a.hub,
			Log:            a.log.Named("http"),
			RecentWindow:   a.cfg.Report.RecentWindow,
			ProfilePath:    a.profilePath,
			OnProfileSaved: a.reloadProfile,
			BaseContext:    ctx,
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.Handler(deps, a.secretAccounts()),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("listening", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
		}

		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("http shutdown", zap.Error(err))
		}
		if sched != nil {
			sched.Stop()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default serve.addr)")
	serveCmd.Flags().Bool("schedule", false, "also run the pipeline on the cron schedule")
	serveCmd.Flags().String("spec", "", "cron spec used with --schedule (default schedule.spec)")
}
