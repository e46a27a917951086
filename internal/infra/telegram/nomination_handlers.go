package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/nomination"
	"reward_recognition_bot/internal/domain/team"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const endorseUnique = "endorse"

// RegisterNominationHandlers registers the commands members use to nominate and endorse each other.
func RegisterNominationHandlers(ctx context.Context, b *telebot.Bot, svc *app.NominationService, baseLogger *logrus.Entry) {
	b.Handle("/nominate", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/nominate", c)
		if !isGroupChat(c.Chat()) {
			return c.Send("Please run this command in your team's group chat.")
		}
		nominee, ok := repliedMember(c)
		awardName, reason := ParseAwardPayload(c.Message().Payload)
		if !ok || awardName == "" {
			return c.Send("Usage: reply to a teammate's message with /nominate <award> [| reason]")
		}

		n, err := svc.Nominate(ctx, team.IDForChat(c.Chat().ID), memberOf(c.Sender()), nominee, awardName, reason)
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		handlerLogger.WithField("nomination_id", n.NominationID).Info("Nomination added")

		markup := &telebot.ReplyMarkup{}
		markup.Inline(markup.Row(markup.Data("👍 Endorse", endorseUnique, n.TeamID, n.NominationID)))
		return c.Send(NominationText(n), &telebot.SendOptions{ReplyMarkup: markup, ParseMode: telebot.ModeHTML})
	})

	b.Handle("/endorse", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/endorse", c)
		nominee, ok := repliedMember(c)
		awardName := strings.TrimSpace(c.Message().Payload)
		if !ok || awardName == "" {
			return c.Send("Usage: reply to a nominee's message with /endorse <award>")
		}

		n, err := svc.Endorse(ctx, team.IDForChat(c.Chat().ID), c.Sender().ID, awardName, nominee.ID)
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		return c.Send(fmt.Sprintf("Endorsed %s for %s.", n.NomineeName, n.AwardName))
	})

	btnEndorse := telebot.Btn{Unique: endorseUnique}
	b.Handle(&btnEndorse, func(c telebot.Context) error {
		teamID, nominationID, _ := strings.Cut(c.Data(), "|")
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":       "endorse_button",
			"sender_id":     c.Sender().ID,
			"team_id":       teamID,
			"nomination_id": nominationID,
		})
		if teamID == "" || nominationID == "" {
			handlerLogger.Warn("Endorse button without nomination")
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown nomination."})
		}

		n, err := svc.EndorseNomination(ctx, teamID, nominationID, c.Sender().ID)
		if err != nil {
			text, known := errorReply(err)
			if !known {
				handlerLogger.WithError(err).Error("Failed to endorse nomination")
			}
			return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
		}
		return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("You endorsed %s for %s.", n.NomineeName, n.AwardName)})
	})

	b.Handle("/nominations", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/nominations", c)
		rec, noms, err := svc.ListNominations(ctx, team.IDForChat(c.Chat().ID))
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		return c.Send(FormatNominations(rec, noms))
	})
}

// NominationText announces a new nomination in the team chat.
func NominationText(n *nomination.Nomination) string {
	text := fmt.Sprintf("🏅 %s nominated <b>%s</b> for <b>%s</b>.",
		html.EscapeString(n.NominatedByName), html.EscapeString(n.NomineeName), html.EscapeString(n.AwardName))
	if n.Reason != "" {
		text += "\n<i>" + html.EscapeString(n.Reason) + "</i>"
	}
	return text
}

func FormatNominations(rec *cycle.Record, noms []*nomination.Nomination) string {
	if len(noms) == 0 {
		return "No nominations in the current cycle yet. Reply to a teammate's message with /nominate <award>."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nominations for %s to %s:\n",
		rec.StartDate.UTC().Format(time.DateOnly), rec.EndDate.UTC().Format(time.DateOnly))
	for _, n := range noms {
		fmt.Fprintf(&sb, "• %s: %s, by %s (%d endorsements)", n.AwardName, n.NomineeName, n.NominatedByName, n.Endorsements)
		if n.AwardGranted {
			sb.WriteString(" 🏆")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// repliedMember returns the author of the message being replied to.
func repliedMember(c telebot.Context) (app.Member, bool) {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil || msg.ReplyTo.Sender.IsBot {
		return app.Member{}, false
	}
	return memberOf(msg.ReplyTo.Sender), true
}

func memberOf(u *telebot.User) app.Member {
	return app.Member{ID: u.ID, Name: DisplayName(u)}
}

// DisplayName is the name shown for a user in bot messages.
func DisplayName(u *telebot.User) string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}
