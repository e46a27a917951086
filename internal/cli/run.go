package cli

import (
	"fmt"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/infra/logger"

	"github.com/spf13/cobra"
)

// SweepCmd runs a single cycle sweep and prints its summary.
func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Re-evaluate every team's current cycle once",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer d.Close()

			svc := app.NewCycleService(d.cycles, cycle.NewEngine(), logger.ForComponent(app.JobCycleSweep))
			summary, err := svc.RunOnce(cmd.Context())
			PrintSummary(cmd.OutOrStdout(), summary)
			if err != nil {
				return err
			}
			if n := summary.Failed(); n > 0 {
				return fmt.Errorf("%d team(s) failed", n)
			}
			return nil
		},
	}
}

// RemindCmd sends the nomination reminders that are due today.
func RemindCmd() *cobra.Command {
	var lookback int
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send nomination reminders for cycles that ended the configured number of days ago",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer d.Close()

			bot, err := d.newBot()
			if err != nil {
				return err
			}
			days := d.cfg.ReminderLookbackDays
			if cmd.Flags().Changed("lookback-days") {
				days = lookback
			}

			svc := app.NewReminderService(d.cycles, d.newNotifier(bot), days, logger.ForComponent(app.JobNominationReminder))
			summary, err := svc.RunOnce(cmd.Context())
			PrintSummary(cmd.OutOrStdout(), summary)
			if err != nil {
				return err
			}
			if n := summary.Failed(); n > 0 {
				return fmt.Errorf("%d reminder(s) failed", n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&lookback, "lookback-days", 3, "Days after the cycle end date to send the reminder (overrides REMINDER_LOOKBACK_DAYS)")
	return cmd
}

// MigrateCmd applies the database schema.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer d.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema applied (%s)\n", d.cfg.DatabaseDriver)
			return nil
		},
	}
}
