// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"strings"

	"reward_recognition_bot/internal/domain/team"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	teamRepo team.Repository,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /start command")

		if !isGroupChat(c.Chat()) {
			return c.Send("Hi! I run reward and recognition cycles for teams. Add me to your team's group chat and send /set_champion there.")
		}

		t, err := teamRepo.GetByChatID(ctx, c.Chat().ID)
		switch {
		case errors.Is(err, idb.ErrTeamNotFound):
			logCtx.Info("Chat is not registered yet")
			return c.Send("Hi team! Someone should become the champion with /set_champion to configure awards and cycles.")
		case err != nil:
			logCtx.WithError(err).Error("Error looking up team for /start command")
			return c.Send("Something went wrong. Please try again later.")
		case t.ChampionTelegramID == c.Sender().ID:
			return c.Send("Hi champion! Use /help to see what you can configure.")
		default:
			return c.Send("Hi! Your team is set up. Use /cycle to see the current nomination cycle and /awards for the awards.")
		}
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /help command")
		return c.Send(HelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

// HelpText lists the bot commands.
func HelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Available commands:\n\n")
	helpText.WriteString("`/set_champion`\n - Become the team champion, or reply to a message to hand the role over.\n\n")
	helpText.WriteString("`/configure_cycle <start> <end> <single|repeat|until|count> [range end|occurrences]`\n - Start a nomination cycle (champion only). Dates are YYYY-MM-DD.\n\n")
	helpText.WriteString("`/cycle`\n - Show the current nomination cycle.\n\n")
	helpText.WriteString("`/publish_results`\n - Publish the winners and close the cycle (champion only).\n\n")
	helpText.WriteString("`/add_award <name> [| description]`\n - Add an award (champion only).\n\n")
	helpText.WriteString("`/awards`\n - List the team's awards.\n\n")
	helpText.WriteString("`/nominate <award> [| reason]`\n - Reply to a teammate's message to nominate them.\n\n")
	helpText.WriteString("`/endorse <award>`\n - Reply to a nominee's message to endorse their nomination.\n\n")
	helpText.WriteString("`/nominations`\n - List the nominations of the current cycle.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
