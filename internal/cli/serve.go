package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/infra/logger"
	"reward_recognition_bot/internal/infra/scheduler"
	"reward_recognition_bot/internal/infra/telegram"

	"github.com/spf13/cobra"
)

// ServeCmd runs the bot and both schedulers until SIGINT or SIGTERM.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot with the cycle sweep and reminder schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := bootstrap(ctx, true)
			if err != nil {
				return err
			}
			defer d.Close()
			log := logger.ForComponent("main")

			bot, err := d.newBot()
			if err != nil {
				return err
			}

			engine := cycle.NewEngine()
			cycleService := app.NewCycleService(d.cycles, engine, logger.ForComponent(app.JobCycleSweep))
			reminderService := app.NewReminderService(d.cycles, d.newNotifier(bot), d.cfg.ReminderLookbackDays, logger.ForComponent(app.JobNominationReminder))
			championService := app.NewChampionService(d.teams, d.cycles, d.awards, d.noms, telegram.NewTelebotAdapter(bot), engine, logger.ForComponent("champion"))
			nominationService := app.NewNominationService(d.teams, d.cycles, d.awards, d.noms, logger.ForComponent("nomination"))

			telegramLogger := logger.ForComponent("telegram")
			telegram.RegisterBotCommands(ctx, bot, d.teams, telegramLogger)
			telegram.RegisterChampionHandlers(ctx, bot, championService, telegramLogger)
			telegram.RegisterNominationHandlers(ctx, bot, nominationService, telegramLogger)
			log.Info("Command handlers registered.")

			cycleScheduler := scheduler.NewCycleScheduler(logger.ForComponent("scheduler"), d.cfg.JobTimeout)
			cycleScheduler.Register(app.JobCycleSweep, d.cfg.CronSpecCycleSweep, cycleService)
			cycleScheduler.Register(app.JobNominationReminder, d.cfg.CronSpecReminder, reminderService)
			if err := cycleScheduler.Start(); err != nil {
				return fmt.Errorf("could not start scheduler: %w", err)
			}

			log.Info("Application setup complete. Bot and Scheduler are starting...")
			go bot.Start()

			<-ctx.Done()
			log.Info("Shutting down application...")
			bot.Stop()

			stopCtx, cancel := context.WithTimeout(context.Background(), d.cfg.JobTimeout)
			defer cancel()
			cycleScheduler.Stop(stopCtx)
			log.Info("Application shut down gracefully.")
			return nil
		},
	}
}
