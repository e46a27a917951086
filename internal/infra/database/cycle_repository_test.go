package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"reward_recognition_bot/internal/domain/cycle"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fixedClock returns successive instants one minute apart, starting at start.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func testCycle(teamID, cycleID string) *cycle.Record {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &cycle.Record{
		TeamID:          teamID,
		CycleID:         cycleID,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 14),
		Recurrence:      cycle.RecurrenceRepeatIndefinitely,
		State:           cycle.StateActive,
		ResultPublished: cycle.PublishUnpublished,
		CreatedByUserID: 77,
		CreatedOn:       start,
	}
}

func TestCycleRepositoryUpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleRepository(setupTestDB(t))
	repo.now = fixedClock(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	rec := testCycle("team-1", "c-1")
	rec.Recurrence = cycle.RecurrenceRepeatUntilEndDate
	rangeEnd := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	rec.RangeEndDate = &rangeEnd

	stored, err := repo.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if stored.UpdatedAt.IsZero() {
		t.Error("Upsert() did not set UpdatedAt")
	}

	got, err := repo.GetCurrentCycle(ctx, "team-1")
	if err != nil {
		t.Fatalf("GetCurrentCycle() error = %v", err)
	}
	if got.CycleID != "c-1" || got.Recurrence != cycle.RecurrenceRepeatUntilEndDate || got.State != cycle.StateActive {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.StartDate.Equal(rec.StartDate) || !got.EndDate.Equal(rec.EndDate) {
		t.Errorf("window = %s..%s, want %s..%s", got.StartDate, got.EndDate, rec.StartDate, rec.EndDate)
	}
	if got.RangeEndDate == nil || !got.RangeEndDate.Equal(rangeEnd) {
		t.Errorf("RangeEndDate = %v, want %s", got.RangeEndDate, rangeEnd)
	}
	if got.ResultPublishedOn != nil {
		t.Errorf("ResultPublishedOn = %v, want nil", got.ResultPublishedOn)
	}
	if got.CreatedByUserID != 77 {
		t.Errorf("CreatedByUserID = %d, want 77", got.CreatedByUserID)
	}
}

func TestCycleRepositoryUpsertOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleRepository(setupTestDB(t))
	repo.now = fixedClock(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	rec := testCycle("team-1", "c-1")
	if _, err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rec.State = cycle.StateInactive
	rec.ResultPublished = cycle.PublishPublished
	publishedOn := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	rec.ResultPublishedOn = &publishedOn
	if _, err := repo.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	all, err := repo.GetAllCurrentCycles(ctx)
	if err != nil {
		t.Fatalf("GetAllCurrentCycles() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d current cycles, want 1", len(all))
	}
	if all[0].State != cycle.StateInactive || !all[0].IsPublished() {
		t.Errorf("overwrite not applied: %+v", all[0])
	}
}

func TestCycleRepositoryCurrentIsLatestWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleRepository(setupTestDB(t))
	repo.now = fixedClock(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	old := testCycle("team-1", "c-old")
	old.State = cycle.StateInactive
	if _, err := repo.Upsert(ctx, old); err != nil {
		t.Fatal(err)
	}
	minted := testCycle("team-1", "c-new")
	if _, err := repo.Upsert(ctx, minted); err != nil {
		t.Fatal(err)
	}
	other := testCycle("team-2", "c-other")
	if _, err := repo.Upsert(ctx, other); err != nil {
		t.Fatal(err)
	}

	current, err := repo.GetCurrentCycle(ctx, "team-1")
	if err != nil {
		t.Fatalf("GetCurrentCycle() error = %v", err)
	}
	if current.CycleID != "c-new" {
		t.Errorf("current cycle = %s, want c-new", current.CycleID)
	}

	all, err := repo.GetAllCurrentCycles(ctx)
	if err != nil {
		t.Fatalf("GetAllCurrentCycles() error = %v", err)
	}
	got := map[string]string{}
	for _, r := range all {
		got[r.TeamID] = r.CycleID
	}
	if len(got) != 2 || got["team-1"] != "c-new" || got["team-2"] != "c-other" {
		t.Errorf("current cycles = %v", got)
	}
}

func TestCycleRepositoryGetAllActiveCyclesSkipsSupersededRows(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleRepository(setupTestDB(t))
	repo.now = fixedClock(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	// team-1: an Active row superseded by a newer Inactive one.
	stale := testCycle("team-1", "c-1")
	if _, err := repo.Upsert(ctx, stale); err != nil {
		t.Fatal(err)
	}
	latest := testCycle("team-1", "c-2")
	latest.State = cycle.StateInactive
	if _, err := repo.Upsert(ctx, latest); err != nil {
		t.Fatal(err)
	}
	active := testCycle("team-2", "c-3")
	if _, err := repo.Upsert(ctx, active); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetAllActiveCycles(ctx)
	if err != nil {
		t.Fatalf("GetAllActiveCycles() error = %v", err)
	}
	if len(got) != 1 || got[0].TeamID != "team-2" {
		t.Fatalf("active cycles = %+v, want only team-2", got)
	}
}

func TestCycleRepositoryGetPublishedCycle(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleRepository(setupTestDB(t))
	repo.now = fixedClock(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	if _, err := repo.GetPublishedCycle(ctx, "team-1"); !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("GetPublishedCycle() error = %v, want ErrCycleNotFound", err)
	}

	first := testCycle("team-1", "c-1")
	first.ResultPublished = cycle.PublishPublished
	on1 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	first.ResultPublishedOn = &on1
	second := testCycle("team-1", "c-2")
	second.ResultPublished = cycle.PublishPublished
	on2 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	second.ResultPublishedOn = &on2
	open := testCycle("team-1", "c-3")
	for _, rec := range []*cycle.Record{first, second, open} {
		if _, err := repo.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetPublishedCycle(ctx, "team-1")
	if err != nil {
		t.Fatalf("GetPublishedCycle() error = %v", err)
	}
	if got.CycleID != "c-2" {
		t.Errorf("published cycle = %s, want c-2", got.CycleID)
	}
}

func TestCycleRepositoryNotFound(t *testing.T) {
	repo := NewCycleRepository(setupTestDB(t))
	_, err := repo.GetCurrentCycle(context.Background(), "missing")
	if !errors.Is(err, ErrCycleNotFound) {
		t.Errorf("GetCurrentCycle() error = %v, want ErrCycleNotFound", err)
	}
}

func TestCycleRepositoryUpsertNil(t *testing.T) {
	repo := NewCycleRepository(setupTestDB(t))
	_, err := repo.Upsert(context.Background(), nil)
	if !errors.Is(err, cycle.ErrInvalidRecord) {
		t.Errorf("Upsert(nil) error = %v, want ErrInvalidRecord", err)
	}
}
