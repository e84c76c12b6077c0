package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/propertystewards/steward/internal/notify"
	"github.com/propertystewards/steward/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		noSchedule bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and notifier schedule",
		Long: `Starts the HTTP server that receives Wassenger webhooks and, unless
--no-schedule is given, the cron schedule for the stale-lead and
completed-job notifiers. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath, noSchedule)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "do not run the notifier cron schedule")
	return cmd
}

func runServe(ctx context.Context, configPath string, noSchedule bool) error {
	a, err := loadApp(configPath, appOpts{})
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gctx, server.StartOpts{
			Webhook:       a.pipeline,
			Jobs:          a.notifier,
			DB:            a.db,
			Port:          a.cfg.Server.Port,
			WebhookSecret: a.cfg.Server.WebhookSecret,
			Logger:        a.logger,
		})
	})

	if !noSchedule {
		sched, err := notify.NewScheduler(a.notifier, map[string]string{
			notify.JobStaleLeads:    a.cfg.Notifiers.StaleLeadCron,
			notify.JobCompletedJobs: a.cfg.Notifiers.CompletedJobCron,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		g.Go(func() error {
			return sched.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("steward stopped")
	return nil
}
