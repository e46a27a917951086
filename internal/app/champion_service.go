package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reward_recognition_bot/internal/domain/award"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/nomination"
	"reward_recognition_bot/internal/domain/team"
	domainTelegram "reward_recognition_bot/internal/domain/telegram"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Custom application-level errors for champion service
var (
	ErrNotChampion        = errors.New("performing user is not the champion of this team")
	ErrNoCurrentCycle     = errors.New("team has no reward cycle configured")
	ErrAlreadyPublished   = errors.New("results of the current cycle are already published")
	ErrTeamNotConfigured  = errors.New("team is not registered")
	ErrInvalidCycleConfig = errors.New("invalid cycle configuration")
	ErrEmptyAwardName     = errors.New("award name is empty")
)

// CycleConfig is what a champion supplies to start a team's cycle.
type CycleConfig struct {
	StartDate    time.Time
	EndDate      time.Time
	Recurrence   cycle.RecurrenceKind
	Occurrences  int        // RepeatUntilOccurrenceCount only
	RangeEndDate *time.Time // RepeatUntilEndDate only
}

// Validate checks the configuration against today's date.
func (c CycleConfig) Validate(now time.Time) error {
	start, end, today := truncateDate(c.StartDate), truncateDate(c.EndDate), truncateDate(now)
	switch {
	case c.StartDate.IsZero() || c.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidCycleConfig)
	case end.Before(start):
		return fmt.Errorf("%w: end date is before start date", ErrInvalidCycleConfig)
	case end.Before(today):
		return fmt.Errorf("%w: end date is in the past", ErrInvalidCycleConfig)
	case !c.Recurrence.Valid():
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalidCycleConfig, c.Recurrence)
	}

	switch c.Recurrence {
	case cycle.RecurrenceRepeatUntilOccurrenceCount:
		if c.Occurrences < 0 {
			return fmt.Errorf("%w: occurrence count must not be negative", ErrInvalidCycleConfig)
		}
	case cycle.RecurrenceRepeatUntilEndDate:
		if c.RangeEndDate == nil {
			return fmt.Errorf("%w: range end date is required", ErrInvalidCycleConfig)
		}
		if truncateDate(*c.RangeEndDate).Before(end) {
			return fmt.Errorf("%w: range end date is before the cycle end date", ErrInvalidCycleConfig)
		}
	}
	return nil
}

// ChampionService holds the actions a team champion performs from the chat.
type ChampionService struct {
	teamRepo       team.Repository
	cycleRepo      cycle.Repository
	awardRepo      award.Repository
	nominationRepo nomination.Repository
	telegramClient domainTelegram.Client
	engine         cycle.Engine
	log            *logrus.Entry
	now            func() time.Time
}

func NewChampionService(
	tr team.Repository,
	cr cycle.Repository,
	ar award.Repository,
	nr nomination.Repository,
	tc domainTelegram.Client, // announces winners
	engine cycle.Engine,
	log *logrus.Entry,
) *ChampionService {
	return &ChampionService{
		teamRepo:       tr,
		cycleRepo:      cr,
		awardRepo:      ar,
		nominationRepo: nr,
		telegramClient: tc,
		engine:         engine,
		log:            log,
		now:            time.Now,
	}
}

// SetChampion registers the chat as a team and makes championID its champion.
// Anyone may claim an unclaimed team; afterwards only the current champion can hand the role over.
func (s *ChampionService) SetChampion(ctx context.Context, chatID int64, title string, performingUserID, championID int64) (*team.Team, error) {
	t, err := s.teamRepo.GetByChatID(ctx, chatID)
	switch {
	case errors.Is(err, idb.ErrTeamNotFound):
		t = &team.Team{TeamID: team.IDForChat(chatID), ChatID: chatID}
	case err != nil:
		return nil, fmt.Errorf("failed to look up team: %w", err)
	case t.HasChampion() && t.ChampionTelegramID != performingUserID:
		return nil, ErrNotChampion
	}

	if title != "" {
		t.Title = title
	}
	t.ChampionTelegramID = championID
	if err := s.teamRepo.Upsert(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save team: %w", err)
	}

	s.log.WithFields(logrus.Fields{"team_id": t.TeamID, "champion_id": championID}).Info("Champion set")
	return t, nil
}

// ConfigureCycle replaces the team's current cycle with a fresh one built from cfg.
func (s *ChampionService) ConfigureCycle(ctx context.Context, performingUserID int64, teamID string, cfg CycleConfig) (*cycle.Record, error) {
	if _, err := s.requireChampion(ctx, performingUserID, teamID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := cfg.Validate(now); err != nil {
		return nil, err
	}

	rec := cycle.Record{
		TeamID:          teamID,
		CycleID:         s.newID(),
		StartDate:       cfg.StartDate.UTC(),
		EndDate:         cfg.EndDate.UTC(),
		Recurrence:      cfg.Recurrence,
		State:           cycle.StateInactive,
		ResultPublished: cycle.PublishUnpublished,
		CreatedByUserID: performingUserID,
		CreatedOn:       now,
	}
	switch cfg.Recurrence {
	case cycle.RecurrenceRepeatUntilOccurrenceCount:
		rec.OccurrencesRemaining = cfg.Occurrences
	case cycle.RecurrenceRepeatUntilEndDate:
		rangeEnd := cfg.RangeEndDate.UTC()
		rec.RangeEndDate = &rangeEnd
	}

	// The end date is not in the past, so this only derives the state.
	rec, _ = s.engine.Evaluate(rec, now)

	stored, err := s.cycleRepo.Upsert(ctx, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to save cycle: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"team_id":    teamID,
		"cycle_id":   stored.CycleID,
		"recurrence": stored.Recurrence,
		"state":      stored.State,
	}).Info("Cycle configured")
	return stored, nil
}

// PublishResults grants the awards of the team's current cycle, closes the cycle
// and announces the winners in the team chat.
func (s *ChampionService) PublishResults(ctx context.Context, performingUserID int64, teamID string) (*cycle.Record, error) {
	t, err := s.requireChampion(ctx, performingUserID, teamID)
	if err != nil {
		return nil, err
	}

	current, err := s.CurrentCycle(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if current.IsPublished() {
		return current, ErrAlreadyPublished
	}

	noms, err := s.nominationRepo.ListByCycle(ctx, teamID, current.CycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nominations: %w", err)
	}
	winners := SelectWinners(noms)

	now := s.now().UTC()
	var granted []string
	for _, w := range winners {
		granted = append(granted, w.NominationIDs...)
	}
	if err := s.nominationRepo.MarkGranted(ctx, teamID, granted, now); err != nil {
		return nil, fmt.Errorf("failed to grant awards: %w", err)
	}

	current.ResultPublished = cycle.PublishPublished
	current.ResultPublishedOn = &now
	current.State = cycle.StateInactive

	stored, err := s.cycleRepo.Upsert(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to save published cycle: %w", err)
	}
	log := s.log.WithFields(logrus.Fields{"team_id": teamID, "cycle_id": stored.CycleID, "winners": len(winners)})
	log.Info("Results published")

	// Announcement failures are logged only.
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
	if err := s.telegramClient.SendMessage(t.ChatID, WinnersText(t, *stored, winners), opts); err != nil {
		log.WithError(err).Error("Failed to announce winners")
	}
	return stored, nil
}

func (s *ChampionService) CurrentCycle(ctx context.Context, teamID string) (*cycle.Record, error) {
	rec, err := s.cycleRepo.GetCurrentCycle(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return nil, ErrNoCurrentCycle
		}
		return nil, fmt.Errorf("failed to load current cycle: %w", err)
	}
	return rec, nil
}

// LastPublishedCycle returns the cycle whose results were published most recently.
func (s *ChampionService) LastPublishedCycle(ctx context.Context, teamID string) (*cycle.Record, error) {
	rec, err := s.cycleRepo.GetPublishedCycle(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return nil, ErrNoCurrentCycle
		}
		return nil, fmt.Errorf("failed to load published cycle: %w", err)
	}
	return rec, nil
}

func (s *ChampionService) AddAward(ctx context.Context, performingUserID int64, teamID, name, description string) (*award.Award, error) {
	if _, err := s.requireChampion(ctx, performingUserID, teamID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyAwardName
	}

	a := &award.Award{
		TeamID:          teamID,
		AwardID:         s.newID(),
		Name:            name,
		Description:     strings.TrimSpace(description),
		CreatedByUserID: performingUserID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.awardRepo.Create(ctx, a); err != nil {
		if errors.Is(err, idb.ErrDuplicateAward) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create award: %w", err)
	}
	return a, nil
}

func (s *ChampionService) ListAwards(ctx context.Context, teamID string) ([]*award.Award, error) {
	awards, err := s.awardRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awards: %w", err)
	}
	return awards, nil
}

func (s *ChampionService) requireChampion(ctx context.Context, userID int64, teamID string) (*team.Team, error) {
	t, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrTeamNotFound) {
			return nil, ErrTeamNotConfigured
		}
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	if !t.HasChampion() || t.ChampionTelegramID != userID {
		return nil, ErrNotChampion
	}
	return t, nil
}

func (s *ChampionService) newID() string {
	if s.engine.NewID != nil {
		return s.engine.NewID()
	}
	return cycle.NewEngine().NewID()
}
