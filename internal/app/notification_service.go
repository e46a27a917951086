// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"reward_recognition_bot/internal/domain/award"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/team"
	domainTelegram "reward_recognition_bot/internal/domain/telegram"
	idb "reward_recognition_bot/internal/infra/database"
	"reward_recognition_bot/internal/infra/retry"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// PublishResultsUnique identifies the inline "Publish results" button.
const PublishResultsUnique = "publish_results"

// TelegramNotifier sends nomination reminders to the team's group chat.
type TelegramNotifier struct {
	teamRepo       team.Repository
	awardRepo      award.Repository
	telegramClient domainTelegram.Client
	retryPolicy    retry.Policy
	limiter        *rate.Limiter
	log            *logrus.Entry
}

func NewTelegramNotifier(
	tr team.Repository,
	ar award.Repository,
	tc domainTelegram.Client,
	policy retry.Policy,
	limiter *rate.Limiter, // nil disables pacing
	log *logrus.Entry,
) *TelegramNotifier {
	return &TelegramNotifier{
		teamRepo:       tr,
		awardRepo:      ar,
		telegramClient: tc,
		retryPolicy:    policy,
		limiter:        limiter,
		log:            log,
	}
}

// Notify resolves the team's chat and sends the reminder, retrying transient send failures.
func (n *TelegramNotifier) Notify(ctx context.Context, teamID string, snapshot cycle.Record) error {
	t, err := n.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrTeamNotFound) {
			return fmt.Errorf("%w: %s", ErrTeamNotConfigured, teamID)
		}
		return fmt.Errorf("failed to load team %s: %w", teamID, err)
	}

	awards, err := n.awardRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list awards for team %s: %w", teamID, err)
	}

	text := ReminderText(t, snapshot, awards)
	markup := &telebot.ReplyMarkup{}
	btnPublish := markup.Data("Publish results", PublishResultsUnique, teamID)
	markup.Inline(markup.Row(btnPublish))
	opts := &telebot.SendOptions{ReplyMarkup: markup, ParseMode: telebot.ModeHTML}

	attempt := 0
	err = n.retryPolicy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if n.limiter != nil {
			if err := n.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := n.telegramClient.SendMessage(t.ChatID, text, opts); err != nil {
			n.log.WithFields(logrus.Fields{"team_id": teamID, "attempt": attempt}).WithError(err).Warn("Sending nomination reminder failed")
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", t.ChatID, err)
	}
	return nil
}

// ReminderText renders the reminder for a team's cycle.
func ReminderText(t *team.Team, snapshot cycle.Record, awards []*award.Award) string {
	var sb strings.Builder

	title := t.Title
	if title == "" {
		title = "your team"
	}
	fmt.Fprintf(&sb, "🏆 <b>Nomination reminder for %s</b>\n", html.EscapeString(title))
	fmt.Fprintf(&sb, "Cycle: %s to %s\n",
		snapshot.StartDate.UTC().Format(time.DateOnly),
		snapshot.EndDate.UTC().Format(time.DateOnly))

	if len(awards) == 0 {
		sb.WriteString("\nNo awards are configured yet. The champion can add one with /add_award.")
		return sb.String()
	}

	sb.WriteString("\nNominate your teammates for:\n")
	for _, a := range awards {
		fmt.Fprintf(&sb, "• <b>%s</b>", html.EscapeString(a.Name))
		if a.Description != "" {
			fmt.Fprintf(&sb, " - %s", html.EscapeString(a.Description))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nWhen nominations are in, the champion can publish the results.")
	return sb.String()
}
