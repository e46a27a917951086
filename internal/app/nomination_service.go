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
	"reward_recognition_bot/internal/domain/nomination"
	"reward_recognition_bot/internal/domain/team"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

var (
	ErrCycleNotOpen    = errors.New("the current cycle is not open for nominations")
	ErrSelfNomination  = errors.New("members cannot nominate themselves")
	ErrSelfEndorsement = errors.New("members cannot endorse themselves")
	ErrNotNominated    = errors.New("this person has no nomination for the award in the current cycle")
)

// Member is a chat member taking part in nominations.
type Member struct {
	ID   int64
	Name string
}

// NominationService lets team members nominate and endorse each other during an active cycle.
type NominationService struct {
	teamRepo       team.Repository
	cycleRepo      cycle.Repository
	awardRepo      award.Repository
	nominationRepo nomination.Repository
	log            *logrus.Entry
	now            func() time.Time
}

func NewNominationService(tr team.Repository, cr cycle.Repository, ar award.Repository, nr nomination.Repository, log *logrus.Entry) *NominationService {
	return &NominationService{
		teamRepo:       tr,
		cycleRepo:      cr,
		awardRepo:      ar,
		nominationRepo: nr,
		log:            log,
		now:            time.Now,
	}
}

// Nominate records nominator's nomination of nominee for the named award in the team's open cycle.
func (s *NominationService) Nominate(ctx context.Context, teamID string, nominator, nominee Member, awardName, reason string) (*nomination.Nomination, error) {
	if nominator.ID == nominee.ID {
		return nil, ErrSelfNomination
	}
	rec, err := s.openCycle(ctx, teamID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAward(ctx, teamID, awardName)
	if err != nil {
		return nil, err
	}

	n := &nomination.Nomination{
		TeamID:          teamID,
		CycleID:         rec.CycleID,
		AwardID:         a.AwardID,
		AwardName:       a.Name,
		NomineeID:       nominee.ID,
		NomineeName:     nominee.Name,
		NominatedByID:   nominator.ID,
		NominatedByName: nominator.Name,
		Reason:          strings.TrimSpace(reason),
		NominatedOn:     s.now().UTC(),
	}
	if err := s.nominationRepo.Create(ctx, n); err != nil {
		if errors.Is(err, idb.ErrDuplicateNomination) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save nomination: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"team_id":       teamID,
		"cycle_id":      rec.CycleID,
		"nomination_id": n.NominationID,
		"award_id":      a.AwardID,
		"nominee_id":    nominee.ID,
	}).Info("Nomination saved")
	return n, nil
}

// Endorse supports an existing nomination of nomineeID for the named award.
func (s *NominationService) Endorse(ctx context.Context, teamID string, endorserID int64, awardName string, nomineeID int64) (*nomination.Nomination, error) {
	if endorserID == nomineeID {
		return nil, ErrSelfEndorsement
	}
	rec, err := s.openCycle(ctx, teamID)
	if err != nil {
		return nil, err
	}
	a, err := s.findAward(ctx, teamID, awardName)
	if err != nil {
		return nil, err
	}

	noms, err := s.nominationRepo.ListByCycle(ctx, teamID, rec.CycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nominations: %w", err)
	}
	for _, n := range noms {
		if n.AwardID == a.AwardID && n.NomineeID == nomineeID {
			return s.endorse(ctx, n, endorserID)
		}
	}
	return nil, ErrNotNominated
}

// EndorseNomination supports the nomination with the given id.
func (s *NominationService) EndorseNomination(ctx context.Context, teamID, nominationID string, endorserID int64) (*nomination.Nomination, error) {
	n, err := s.nominationRepo.GetByID(ctx, teamID, nominationID)
	if err != nil {
		if errors.Is(err, idb.ErrNominationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load nomination: %w", err)
	}
	if endorserID == n.NomineeID {
		return nil, ErrSelfEndorsement
	}
	rec, err := s.openCycle(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if rec.CycleID != n.CycleID {
		return nil, ErrCycleNotOpen
	}
	return s.endorse(ctx, n, endorserID)
}

// ListNominations returns the nominations of the team's current cycle.
func (s *NominationService) ListNominations(ctx context.Context, teamID string) (*cycle.Record, []*nomination.Nomination, error) {
	rec, err := s.cycleRepo.GetCurrentCycle(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return nil, nil, ErrNoCurrentCycle
		}
		return nil, nil, fmt.Errorf("failed to load current cycle: %w", err)
	}
	noms, err := s.nominationRepo.ListByCycle(ctx, teamID, rec.CycleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list nominations: %w", err)
	}
	return rec, noms, nil
}

func (s *NominationService) endorse(ctx context.Context, n *nomination.Nomination, endorserID int64) (*nomination.Nomination, error) {
	e := &nomination.Endorsement{
		TeamID:       n.TeamID,
		CycleID:      n.CycleID,
		AwardID:      n.AwardID,
		NomineeID:    n.NomineeID,
		EndorsedByID: endorserID,
		EndorsedOn:   s.now().UTC(),
	}
	if err := s.nominationRepo.Endorse(ctx, e); err != nil {
		if errors.Is(err, idb.ErrDuplicateEndorsement) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save endorsement: %w", err)
	}
	n.Endorsements++

	s.log.WithFields(logrus.Fields{
		"team_id":     n.TeamID,
		"cycle_id":    n.CycleID,
		"award_id":    n.AwardID,
		"nominee_id":  n.NomineeID,
		"endorser_id": endorserID,
	}).Info("Endorsement saved")
	return n, nil
}

// openCycle returns the team's current cycle if it accepts nominations.
func (s *NominationService) openCycle(ctx context.Context, teamID string) (*cycle.Record, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, idb.ErrTeamNotFound) {
			return nil, ErrTeamNotConfigured
		}
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}
	rec, err := s.cycleRepo.GetCurrentCycle(ctx, teamID)
	if err != nil {
		if errors.Is(err, idb.ErrCycleNotFound) {
			return nil, ErrNoCurrentCycle
		}
		return nil, fmt.Errorf("failed to load current cycle: %w", err)
	}
	if rec.State != cycle.StateActive || rec.IsPublished() {
		return nil, ErrCycleNotOpen
	}
	return rec, nil
}

func (s *NominationService) findAward(ctx context.Context, teamID, name string) (*award.Award, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyAwardName
	}
	a, err := s.awardRepo.GetByName(ctx, teamID, name)
	if err != nil {
		if errors.Is(err, idb.ErrAwardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to look up award: %w", err)
	}
	return a, nil
}

// Winner is a nominee chosen for an award when results are published.
type Winner struct {
	AwardID       string
	AwardName     string
	NomineeID     int64
	NomineeName   string
	Nominations   int
	Endorsements  int
	NominationIDs []string
}

// Score is the number of nominations plus endorsements the nominee received for the award.
func (w Winner) Score() int {
	return w.Nominations + w.Endorsements
}

// SelectWinners picks, for every award, the nominees with the highest score.
// Ties are all granted. The result follows the order of noms.
func SelectWinners(noms []*nomination.Nomination) []Winner {
	type key struct {
		awardID   string
		nomineeID int64
	}
	var order []key
	candidates := make(map[key]*Winner)
	for _, n := range noms {
		k := key{n.AwardID, n.NomineeID}
		w, ok := candidates[k]
		if !ok {
			w = &Winner{
				AwardID:      n.AwardID,
				AwardName:    n.AwardName,
				NomineeID:    n.NomineeID,
				NomineeName:  n.NomineeName,
				Endorsements: n.Endorsements,
			}
			candidates[k] = w
			order = append(order, k)
		}
		w.Nominations++
		w.NominationIDs = append(w.NominationIDs, n.NominationID)
	}

	best := make(map[string]int)
	for _, k := range order {
		if score := candidates[k].Score(); score > best[k.awardID] {
			best[k.awardID] = score
		}
	}

	winners := make([]Winner, 0, len(order))
	for _, k := range order {
		if w := candidates[k]; w.Score() == best[k.awardID] {
			winners = append(winners, *w)
		}
	}
	return winners
}

// WinnersText renders the results announcement for a published cycle.
func WinnersText(t *team.Team, rec cycle.Record, winners []Winner) string {
	var sb strings.Builder

	title := t.Title
	if title == "" {
		title = "your team"
	}
	fmt.Fprintf(&sb, "🏆 <b>Winners for %s</b>\n", html.EscapeString(title))
	fmt.Fprintf(&sb, "Cycle: %s to %s\n",
		rec.StartDate.UTC().Format(time.DateOnly),
		rec.EndDate.UTC().Format(time.DateOnly))

	if len(winners) == 0 {
		sb.WriteString("\nNo nominations were made in this cycle.")
		return sb.String()
	}

	sb.WriteString("\n")
	for _, w := range winners {
		fmt.Fprintf(&sb, "• <b>%s</b>: %s (%s, %s)\n",
			html.EscapeString(w.AwardName), html.EscapeString(w.NomineeName),
			plural(w.Nominations, "nomination"), plural(w.Endorsements, "endorsement"))
	}
	sb.WriteString("\nCongratulations! 🎉")
	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
