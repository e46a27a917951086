package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/award"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/team"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const configureCycleUsage = "Usage: /configure_cycle <start YYYY-MM-DD> <end YYYY-MM-DD> <single|repeat|until|count> [range end YYYY-MM-DD | occurrences]"

// RegisterChampionHandlers registers the commands a team champion uses to run reward cycles.
// Commands are scoped to the group chat they are sent in.
func RegisterChampionHandlers(ctx context.Context, b *telebot.Bot, svc *app.ChampionService, baseLogger *logrus.Entry) {
	b.Handle("/set_champion", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/set_champion", c)
		if !isGroupChat(c.Chat()) {
			return c.Send("Please run this command in your team's group chat.")
		}

		// Replying to someone's message hands the role to them.
		championID := c.Sender().ID
		if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
			championID = msg.ReplyTo.Sender.ID
		}

		t, err := svc.SetChampion(ctx, c.Chat().ID, c.Chat().Title, c.Sender().ID, championID)
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		handlerLogger.WithField("champion_id", championID).Info("Champion updated")
		return c.Send(fmt.Sprintf("Champion of %s is now user %d.", displayTitle(t), t.ChampionTelegramID))
	})

	b.Handle("/configure_cycle", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/configure_cycle", c)
		cfg, err := ParseCycleConfig(c.Args())
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send(fmt.Sprintf("%v\n%s", err, configureCycleUsage))
		}

		rec, err := svc.ConfigureCycle(ctx, c.Sender().ID, team.IDForChat(c.Chat().ID), cfg)
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		return c.Send("Cycle configured.\n" + FormatCycle(rec))
	})

	b.Handle("/cycle", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/cycle", c)
		rec, err := svc.CurrentCycle(ctx, team.IDForChat(c.Chat().ID))
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		text := FormatCycle(rec)
		if last, err := svc.LastPublishedCycle(ctx, rec.TeamID); err == nil && last.CycleID != rec.CycleID && last.ResultPublishedOn != nil {
			text += fmt.Sprintf("\nLast results published on %s.", last.ResultPublishedOn.Format(time.DateOnly))
		}
		return c.Send(text)
	})

	b.Handle("/publish_results", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/publish_results", c)
		rec, err := svc.PublishResults(ctx, c.Sender().ID, team.IDForChat(c.Chat().ID))
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		handlerLogger.WithField("cycle_id", rec.CycleID).Info("Results published")
		return c.Send("🎉 Results are published! The cycle is now closed.")
	})

	btnPublish := telebot.Btn{Unique: app.PublishResultsUnique}
	b.Handle(&btnPublish, func(c telebot.Context) error {
		teamID := c.Data()
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "publish_button",
			"sender_id": c.Sender().ID,
			"team_id":   teamID,
		})
		if teamID == "" {
			handlerLogger.Warn("Publish button without team id")
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown team."})
		}

		if _, err := svc.PublishResults(ctx, c.Sender().ID, teamID); err != nil {
			text, known := errorReply(err)
			if !known {
				handlerLogger.WithError(err).Error("Failed to publish results")
			}
			return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
		}
		handlerLogger.Info("Results published from reminder")
		if err := c.Respond(&telebot.CallbackResponse{Text: "Results published!"}); err != nil {
			return err
		}
		return c.Send("🎉 Results are published! The cycle is now closed.")
	})

	b.Handle("/add_award", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/add_award", c)
		name, description := ParseAwardPayload(c.Message().Payload)
		if name == "" {
			return c.Send("Usage: /add_award <name> [| description]")
		}

		a, err := svc.AddAward(ctx, c.Sender().ID, team.IDForChat(c.Chat().ID), name, description)
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		handlerLogger.WithField("award_id", a.AwardID).Info("Award added")
		return c.Send(fmt.Sprintf("Award %q added.", a.Name))
	})

	b.Handle("/awards", func(c telebot.Context) error {
		handlerLogger := commandLogger(baseLogger, "/awards", c)
		awards, err := svc.ListAwards(ctx, team.IDForChat(c.Chat().ID))
		if err != nil {
			return replyError(c, handlerLogger, err)
		}
		return c.Send(FormatAwards(awards))
	})
}

// ParseCycleConfig parses the arguments of /configure_cycle.
func ParseCycleConfig(args []string) (app.CycleConfig, error) {
	var cfg app.CycleConfig
	if len(args) < 3 || len(args) > 4 {
		return cfg, errors.New("wrong number of arguments")
	}

	var err error
	if cfg.StartDate, err = time.Parse(time.DateOnly, args[0]); err != nil {
		return cfg, fmt.Errorf("invalid start date %q", args[0])
	}
	if cfg.EndDate, err = time.Parse(time.DateOnly, args[1]); err != nil {
		return cfg, fmt.Errorf("invalid end date %q", args[1])
	}
	if cfg.Recurrence, err = cycle.ParseRecurrenceKind(args[2]); err != nil {
		return cfg, err
	}

	switch cfg.Recurrence {
	case cycle.RecurrenceRepeatUntilEndDate:
		if len(args) != 4 {
			return cfg, errors.New("range end date is required")
		}
		rangeEnd, err := time.Parse(time.DateOnly, args[3])
		if err != nil {
			return cfg, fmt.Errorf("invalid range end date %q", args[3])
		}
		cfg.RangeEndDate = &rangeEnd
	case cycle.RecurrenceRepeatUntilOccurrenceCount:
		if len(args) != 4 {
			return cfg, errors.New("number of occurrences is required")
		}
		if cfg.Occurrences, err = strconv.Atoi(args[3]); err != nil {
			return cfg, fmt.Errorf("invalid number of occurrences %q", args[3])
		}
	default:
		if len(args) == 4 {
			return cfg, fmt.Errorf("unexpected argument %q", args[3])
		}
	}
	return cfg, nil
}

// ParseAwardPayload splits "name | description".
func ParseAwardPayload(payload string) (name, description string) {
	name, description, _ = strings.Cut(payload, "|")
	return strings.TrimSpace(name), strings.TrimSpace(description)
}

func FormatCycle(rec *cycle.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cycle %s to %s (%s)\n",
		rec.StartDate.UTC().Format(time.DateOnly), rec.EndDate.UTC().Format(time.DateOnly), strings.ToLower(string(rec.Recurrence)))
	fmt.Fprintf(&sb, "State: %s", strings.ToLower(string(rec.State)))
	if rec.IsPublished() {
		sb.WriteString(", results published")
	}
	switch rec.Recurrence {
	case cycle.RecurrenceRepeatUntilOccurrenceCount:
		fmt.Fprintf(&sb, "\nRepeats left: %d", rec.OccurrencesRemaining)
	case cycle.RecurrenceRepeatUntilEndDate:
		if rec.RangeEndDate != nil {
			fmt.Fprintf(&sb, "\nRepeats until: %s", rec.RangeEndDate.UTC().Format(time.DateOnly))
		}
	}
	return sb.String()
}

func FormatAwards(awards []*award.Award) string {
	if len(awards) == 0 {
		return "No awards yet. The champion can add one with /add_award."
	}
	var sb strings.Builder
	sb.WriteString("Awards:\n")
	for _, a := range awards {
		sb.WriteString("• " + a.Name)
		if a.Description != "" {
			sb.WriteString(" - " + a.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// errorReply maps a service error to the text shown to the user.
// known is false for unexpected errors.
func errorReply(err error) (text string, known bool) {
	switch {
	case errors.Is(err, app.ErrNotChampion):
		return "Only the team champion can do that.", true
	case errors.Is(err, app.ErrTeamNotConfigured):
		return "This chat has no champion yet. Use /set_champion first.", true
	case errors.Is(err, app.ErrNoCurrentCycle):
		return "No cycle is configured. Use /configure_cycle.", true
	case errors.Is(err, app.ErrAlreadyPublished):
		return "Results of this cycle are already published.", true
	case errors.Is(err, app.ErrInvalidCycleConfig), errors.Is(err, app.ErrEmptyAwardName):
		return fmt.Sprintf("Error: %v", err), true
	case errors.Is(err, idb.ErrDuplicateAward):
		return "An award with this name already exists.", true
	case errors.Is(err, idb.ErrAwardNotFound):
		return "There is no such award. Use /awards to see the list.", true
	case errors.Is(err, app.ErrCycleNotOpen):
		return "The current cycle is not open for nominations.", true
	case errors.Is(err, app.ErrSelfNomination):
		return "You cannot nominate yourself.", true
	case errors.Is(err, app.ErrSelfEndorsement):
		return "You cannot endorse yourself.", true
	case errors.Is(err, app.ErrNotNominated):
		return "This person has not been nominated for that award yet.", true
	case errors.Is(err, idb.ErrDuplicateNomination):
		return "You already nominated this person for that award.", true
	case errors.Is(err, idb.ErrDuplicateEndorsement):
		return "You already endorsed this person for that award.", true
	case errors.Is(err, idb.ErrNominationNotFound):
		return "This nomination no longer exists.", true
	default:
		return "Something went wrong. Please try again later.", false
	}
}

func replyError(c telebot.Context, logger *logrus.Entry, err error) error {
	text, known := errorReply(err)
	if known {
		logger.WithError(err).Warn("Command rejected")
	} else {
		logger.WithError(err).Error("Command failed")
	}
	return c.Send(text)
}

func commandLogger(base *logrus.Entry, command string, c telebot.Context) *logrus.Entry {
	fields := logrus.Fields{"handler": command}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	if c.Chat() != nil {
		fields["team_id"] = team.IDForChat(c.Chat().ID)
	}
	return base.WithFields(fields)
}

func isGroupChat(chat *telebot.Chat) bool {
	return chat != nil && (chat.Type == telebot.ChatGroup || chat.Type == telebot.ChatSuperGroup)
}

func displayTitle(t *team.Team) string {
	if t.Title != "" {
		return t.Title
	}
	return "this team"
}
