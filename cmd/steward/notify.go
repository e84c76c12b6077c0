package main

import (
	"fmt"

	"github.com/propertystewards/steward/internal/notify"
	"github.com/spf13/cobra"
)

func newNotifyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:       "notify <job>",
		Short:     "Run one notifier job now",
		Long:      "Runs stale-leads or completed-jobs once, outside the cron schedule.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{notify.JobStaleLeads, notify.JobCompletedJobs},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(configPath, appOpts{})
			if err != nil {
				return err
			}
			defer a.Close()
			return runNotify(cmd, a.notifier, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runNotify(cmd *cobra.Command, n *notify.Notifier, job string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	switch job {
	case notify.JobStaleLeads:
		count, err := n.StaleLeads(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(out, "No stale leads.")
			return nil
		}
		fmt.Fprintf(out, "Alerted admin about %d stale lead(s).\n", count)
	case notify.JobCompletedJobs:
		sent, err := n.CompletedJobs(ctx)
		if err != nil {
			if sent > 0 {
				fmt.Fprintf(out, "Reported %d completed job(s) before failing.\n", sent)
			}
			return err
		}
		fmt.Fprintf(out, "Reported %d completed job(s).\n", sent)
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", notify.ErrUnknownJob, job, notify.JobStaleLeads, notify.JobCompletedJobs)
	}
	return nil
}
