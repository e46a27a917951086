package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/infra/config"
	idb "reward_recognition_bot/internal/infra/database"
	"reward_recognition_bot/internal/infra/logger"
	"reward_recognition_bot/internal/infra/retry"
	"reward_recognition_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// deps holds the configuration and repositories every command needs.
type deps struct {
	cfg    *config.AppConfig
	db     *sql.DB
	cycles *idb.CycleRepository
	teams  *idb.TeamRepository
	awards *idb.AwardRepository
	noms   *idb.NominationRepository
}

// bootstrap loads configuration, initializes logging and opens the database.
// The schema is applied when migrate is true.
func bootstrap(ctx context.Context, migrate bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	log := logger.ForComponent("bootstrap")
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"log_level":   cfg.LogLevel,
		"driver":      cfg.DatabaseDriver,
	}).Info("Configuration loaded")

	db, err := idb.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if migrate {
		if err := idb.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Debug("Schema applied")
	}

	return &deps{
		cfg:    cfg,
		db:     db,
		cycles: idb.NewCycleRepository(db),
		teams:  idb.NewTeamRepository(db),
		awards: idb.NewAwardRepository(db),
		noms:   idb.NewNominationRepository(db),
	}, nil
}

func (d *deps) Close() {
	if err := d.db.Close(); err != nil {
		logger.ForComponent("bootstrap").WithError(err).Warn("Closing database failed")
	}
}

// newBot creates the Telegram bot. Polling only starts when the caller calls Start.
func (d *deps) newBot() (*telebot.Bot, error) {
	if err := d.cfg.RequireTelegram(); err != nil {
		return nil, err
	}
	botLogger := logger.ForComponent("telebot")
	pref := telebot.Settings{
		Token:  d.cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("could not create Telegram bot: %w", err)
	}
	return bot, nil
}

func (d *deps) newNotifier(bot *telebot.Bot) *app.TelegramNotifier {
	policy := retry.Policy{
		MaxRetries: d.cfg.NotifyRetryMax,
		BaseDelay:  d.cfg.NotifyRetryBase,
		Retryable:  telegram.IsTransientError,
	}
	burst := int(d.cfg.NotifyRatePerSec)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(d.cfg.NotifyRatePerSec), burst)
	return app.NewTelegramNotifier(d.teams, d.awards, telegram.NewTelebotAdapter(bot), policy, limiter, logger.ForComponent("notifier"))
}
