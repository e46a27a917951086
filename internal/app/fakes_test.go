package app

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"reward_recognition_bot/internal/domain/award"
	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/nomination"
	"reward_recognition_bot/internal/domain/team"
	idb "reward_recognition_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

// fakeCycleRepo keeps one current record per team.
type fakeCycleRepo struct {
	mu        sync.Mutex
	current   map[string]*cycle.Record
	published map[string]*cycle.Record
	order     []string
	loadErr   error
	upsertErr map[string]error
	panicOn   map[string]bool
	upserts   []cycle.Record
}

func newFakeCycleRepo(records ...*cycle.Record) *fakeCycleRepo {
	r := &fakeCycleRepo{
		current:   map[string]*cycle.Record{},
		published: map[string]*cycle.Record{},
		upsertErr: map[string]error{},
		panicOn:   map[string]bool{},
	}
	for _, rec := range records {
		r.put(rec)
	}
	return r
}

func (r *fakeCycleRepo) put(rec *cycle.Record) {
	if _, ok := r.current[rec.TeamID]; !ok {
		r.order = append(r.order, rec.TeamID)
	}
	cp := *rec
	r.current[rec.TeamID] = &cp
	if cp.IsPublished() {
		r.published[rec.TeamID] = &cp
	}
}

func (r *fakeCycleRepo) GetCurrentCycle(_ context.Context, teamID string) (*cycle.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.current[teamID]
	if !ok {
		return nil, idb.ErrCycleNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeCycleRepo) GetPublishedCycle(_ context.Context, teamID string) (*cycle.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.published[teamID]
	if !ok {
		return nil, idb.ErrCycleNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeCycleRepo) GetAllCurrentCycles(_ context.Context) ([]*cycle.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]*cycle.Record, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.current[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeCycleRepo) GetAllActiveCycles(ctx context.Context) ([]*cycle.Record, error) {
	all, err := r.GetAllCurrentCycles(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*cycle.Record, 0, len(all))
	for _, rec := range all {
		if rec.State == cycle.StateActive {
			active = append(active, rec)
		}
	}
	return active, nil
}

func (r *fakeCycleRepo) Upsert(_ context.Context, rec *cycle.Record) (*cycle.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn[rec.TeamID] {
		panic("storage exploded")
	}
	if err := r.upsertErr[rec.TeamID]; err != nil {
		return nil, err
	}
	r.upserts = append(r.upserts, *rec)
	r.put(rec)
	cp := *rec
	return &cp, nil
}

func (r *fakeCycleRepo) upsertedTeams() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	teams := make([]string, 0, len(r.upserts))
	for _, u := range r.upserts {
		teams = append(teams, u.TeamID)
	}
	return teams
}

type fakeTeamRepo struct {
	teams map[string]*team.Team
}

func newFakeTeamRepo(teams ...*team.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: map[string]*team.Team{}}
	for _, t := range teams {
		r.teams[t.TeamID] = t
	}
	return r
}

func (r *fakeTeamRepo) Upsert(_ context.Context, t *team.Team) error {
	cp := *t
	r.teams[t.TeamID] = &cp
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, teamID string) (*team.Team, error) {
	t, ok := r.teams[teamID]
	if !ok {
		return nil, idb.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTeamRepo) GetByChatID(ctx context.Context, chatID int64) (*team.Team, error) {
	return r.GetByID(ctx, team.IDForChat(chatID))
}

type fakeAwardRepo struct {
	awards []*award.Award
}

func (r *fakeAwardRepo) Create(_ context.Context, a *award.Award) error {
	for _, existing := range r.awards {
		if existing.TeamID == a.TeamID && existing.Name == a.Name {
			return idb.ErrDuplicateAward
		}
	}
	cp := *a
	r.awards = append(r.awards, &cp)
	return nil
}

func (r *fakeAwardRepo) GetByName(_ context.Context, teamID, name string) (*award.Award, error) {
	for _, a := range r.awards {
		if a.TeamID == teamID && strings.EqualFold(a.Name, name) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, idb.ErrAwardNotFound
}

func (r *fakeAwardRepo) ListByTeam(_ context.Context, teamID string) ([]*award.Award, error) {
	var out []*award.Award
	for _, a := range r.awards {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeNominationRepo struct {
	nominations  []*nomination.Nomination
	endorsements []nomination.Endorsement
	granted      map[string]time.Time
	nextID       func() string
}

func newFakeNominationRepo() *fakeNominationRepo {
	return &fakeNominationRepo{granted: map[string]time.Time{}, nextID: sequentialIDs("nom-")}
}

func (r *fakeNominationRepo) Create(_ context.Context, n *nomination.Nomination) error {
	for _, existing := range r.nominations {
		if existing.TeamID == n.TeamID && existing.CycleID == n.CycleID && existing.AwardID == n.AwardID &&
			existing.NominatedByID == n.NominatedByID && existing.NomineeID == n.NomineeID {
			return idb.ErrDuplicateNomination
		}
	}
	if n.NominationID == "" {
		n.NominationID = r.nextID()
	}
	cp := *n
	r.nominations = append(r.nominations, &cp)
	return nil
}

func (r *fakeNominationRepo) GetByID(_ context.Context, teamID, nominationID string) (*nomination.Nomination, error) {
	for _, n := range r.nominations {
		if n.TeamID == teamID && n.NominationID == nominationID {
			return r.withCount(n), nil
		}
	}
	return nil, idb.ErrNominationNotFound
}

func (r *fakeNominationRepo) ListByCycle(_ context.Context, teamID, cycleID string) ([]*nomination.Nomination, error) {
	out := make([]*nomination.Nomination, 0)
	for _, n := range r.nominations {
		if n.TeamID == teamID && n.CycleID == cycleID {
			out = append(out, r.withCount(n))
		}
	}
	return out, nil
}

func (r *fakeNominationRepo) Endorse(_ context.Context, e *nomination.Endorsement) error {
	for _, existing := range r.endorsements {
		if existing.TeamID == e.TeamID && existing.CycleID == e.CycleID && existing.AwardID == e.AwardID &&
			existing.NomineeID == e.NomineeID && existing.EndorsedByID == e.EndorsedByID {
			return idb.ErrDuplicateEndorsement
		}
	}
	r.endorsements = append(r.endorsements, *e)
	return nil
}

func (r *fakeNominationRepo) MarkGranted(_ context.Context, _ string, nominationIDs []string, publishedOn time.Time) error {
	for _, id := range nominationIDs {
		r.granted[id] = publishedOn
	}
	return nil
}

func (r *fakeNominationRepo) withCount(n *nomination.Nomination) *nomination.Nomination {
	cp := *n
	for _, e := range r.endorsements {
		if e.TeamID == n.TeamID && e.CycleID == n.CycleID && e.AwardID == n.AwardID && e.NomineeID == n.NomineeID {
			cp.Endorsements++
		}
	}
	return &cp
}

type sentMessage struct {
	ChatID  int64
	Text    string
	Options *telebot.SendOptions
}

// fakeTelegramClient fails the first len(errs) sends with the queued errors.
type fakeTelegramClient struct {
	errs  []error
	calls int
	sent  []sentMessage
}

func (c *fakeTelegramClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return err
	}
	c.sent = append(c.sent, sentMessage{ChatID: chatID, Text: text, Options: options})
	return nil
}

type fakeNotifier struct {
	fail     map[string]error
	notified []string
}

func (n *fakeNotifier) Notify(_ context.Context, teamID string, _ cycle.Record) error {
	if err := n.fail[teamID]; err != nil {
		return err
	}
	n.notified = append(n.notified, teamID)
	return nil
}
