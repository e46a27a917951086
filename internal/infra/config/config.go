package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken        string
	DatabaseDriver       string
	DatabaseURL          string
	LogLevel             string
	Environment          string
	CronSpecCycleSweep   string // Cycle maintenance cadence
	CronSpecReminder     string // Nomination reminder cadence
	ReminderLookbackDays int
	NotifyRatePerSec     float64
	NotifyRetryMax       int
	NotifyRetryBase      time.Duration
	JobTimeout           time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	cfg.DatabaseDriver = strings.ToLower(os.Getenv("DATABASE_DRIVER"))
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverPostgres
	}
	if cfg.DatabaseDriver != DriverPostgres && cfg.DatabaseDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecCycleSweep = os.Getenv("CRON_SPEC_CYCLE_SWEEP")
	if cfg.CronSpecCycleSweep == "" {
		cfg.CronSpecCycleSweep = "@every 4h"
	}

	cfg.CronSpecReminder = os.Getenv("CRON_SPEC_NOMINATION_REMINDER")
	if cfg.CronSpecReminder == "" {
		cfg.CronSpecReminder = "@every 12h"
	}

	if cfg.ReminderLookbackDays, err = intFromEnv("REMINDER_LOOKBACK_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.ReminderLookbackDays < 0 {
		return nil, fmt.Errorf("REMINDER_LOOKBACK_DAYS must not be negative")
	}

	cfg.NotifyRatePerSec = 1
	if raw := os.Getenv("NOTIFY_RATE_PER_SEC"); raw != "" {
		cfg.NotifyRatePerSec, err = strconv.ParseFloat(raw, 64)
		if err != nil || cfg.NotifyRatePerSec <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_RATE_PER_SEC %q", raw)
		}
	}

	if cfg.NotifyRetryMax, err = intFromEnv("NOTIFY_RETRY_MAX", 2); err != nil {
		return nil, err
	}
	if cfg.NotifyRetryBase, err = durationFromEnv("NOTIFY_RETRY_BASE", time.Second); err != nil {
		return nil, err
	}
	if cfg.JobTimeout, err = durationFromEnv("JOB_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireTelegram reports whether the bot transport can be started.
func (c *AppConfig) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	return nil
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return v, nil
}
