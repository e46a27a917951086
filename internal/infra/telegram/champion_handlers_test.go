package telegram

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/award"
	"reward_recognition_bot/internal/domain/cycle"
	idb "reward_recognition_bot/internal/infra/database"
)

func TestParseCycleConfig(t *testing.T) {
	date := func(s string) time.Time {
		d, _ := time.Parse(time.DateOnly, s)
		return d
	}

	t.Run("single", func(t *testing.T) {
		cfg, err := ParseCycleConfig([]string{"2024-03-01", "2024-03-14", "single"})
		if err != nil {
			t.Fatalf("ParseCycleConfig() error = %v", err)
		}
		if !cfg.StartDate.Equal(date("2024-03-01")) || !cfg.EndDate.Equal(date("2024-03-14")) || cfg.Recurrence != cycle.RecurrenceSingleOccurrence {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("until range end", func(t *testing.T) {
		cfg, err := ParseCycleConfig([]string{"2024-03-01", "2024-03-14", "until", "2024-06-30"})
		if err != nil {
			t.Fatalf("ParseCycleConfig() error = %v", err)
		}
		if cfg.RangeEndDate == nil || !cfg.RangeEndDate.Equal(date("2024-06-30")) {
			t.Errorf("RangeEndDate = %v", cfg.RangeEndDate)
		}
	})

	t.Run("count", func(t *testing.T) {
		cfg, err := ParseCycleConfig([]string{"2024-03-01", "2024-03-14", "count", "4"})
		if err != nil {
			t.Fatalf("ParseCycleConfig() error = %v", err)
		}
		if cfg.Recurrence != cycle.RecurrenceRepeatUntilOccurrenceCount || cfg.Occurrences != 4 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	invalid := map[string][]string{
		"too few":           {"2024-03-01", "2024-03-14"},
		"bad start":         {"03/01/2024", "2024-03-14", "single"},
		"bad end":           {"2024-03-01", "tomorrow", "single"},
		"unknown kind":      {"2024-03-01", "2024-03-14", "monthly"},
		"missing range end": {"2024-03-01", "2024-03-14", "until"},
		"missing count":     {"2024-03-01", "2024-03-14", "count"},
		"bad count":         {"2024-03-01", "2024-03-14", "count", "many"},
		"extra argument":    {"2024-03-01", "2024-03-14", "repeat", "3"},
	}
	for name, args := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCycleConfig(args); err == nil {
				t.Errorf("ParseCycleConfig(%v) error = nil", args)
			}
		})
	}
}

func TestParseAwardPayload(t *testing.T) {
	tests := []struct {
		payload, name, description string
	}{
		{"Team Player | always helps", "Team Player", "always helps"},
		{"  MVP  ", "MVP", ""},
		{"", "", ""},
		{"A | b | c", "A", "b | c"},
	}
	for _, tt := range tests {
		name, description := ParseAwardPayload(tt.payload)
		if name != tt.name || description != tt.description {
			t.Errorf("ParseAwardPayload(%q) = %q, %q; want %q, %q", tt.payload, name, description, tt.name, tt.description)
		}
	}
}

func TestFormatCycle(t *testing.T) {
	publishedOn := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	rec := &cycle.Record{
		StartDate:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:              time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Recurrence:           cycle.RecurrenceRepeatUntilOccurrenceCount,
		OccurrencesRemaining: 2,
		State:                cycle.StateInactive,
		ResultPublished:      cycle.PublishPublished,
		ResultPublishedOn:    &publishedOn,
	}
	text := FormatCycle(rec)
	for _, want := range []string{"2024-03-01 to 2024-03-14", "inactive, results published", "Repeats left: 2"} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatCycle() = %q, missing %q", text, want)
		}
	}
}

func TestFormatAwards(t *testing.T) {
	if got := FormatAwards(nil); !strings.Contains(got, "/add_award") {
		t.Errorf("FormatAwards(nil) = %q", got)
	}
	got := FormatAwards([]*award.Award{{Name: "MVP", Description: "most valuable"}, {Name: "Rookie"}})
	want := "Awards:\n• MVP - most valuable\n• Rookie"
	if got != want {
		t.Errorf("FormatAwards() = %q, want %q", got, want)
	}
}

func TestErrorReply(t *testing.T) {
	tests := []struct {
		err   error
		known bool
		text  string
	}{
		{app.ErrNotChampion, true, "Only the team champion"},
		{fmt.Errorf("wrapped: %w", app.ErrNoCurrentCycle), true, "/configure_cycle"},
		{app.ErrTeamNotConfigured, true, "/set_champion"},
		{app.ErrAlreadyPublished, true, "already published"},
		{idb.ErrDuplicateAward, true, "already exists"},
		{fmt.Errorf("%w: end date is in the past", app.ErrInvalidCycleConfig), true, "end date is in the past"},
		{fmt.Errorf("lookup: %w", idb.ErrAwardNotFound), true, "/awards"},
		{app.ErrCycleNotOpen, true, "not open"},
		{app.ErrSelfNomination, true, "nominate yourself"},
		{app.ErrSelfEndorsement, true, "endorse yourself"},
		{app.ErrNotNominated, true, "not been nominated"},
		{idb.ErrDuplicateNomination, true, "already nominated"},
		{idb.ErrDuplicateEndorsement, true, "already endorsed"},
		{idb.ErrNominationNotFound, true, "no longer exists"},
		{errors.New("connection refused"), false, "Something went wrong"},
	}
	for _, tt := range tests {
		text, known := errorReply(tt.err)
		if known != tt.known || !strings.Contains(text, tt.text) {
			t.Errorf("errorReply(%v) = %q, %v", tt.err, text, known)
		}
	}
}

func TestHelpTextListsCommands(t *testing.T) {
	help := HelpText()
	for _, cmd := range []string{"/set_champion", "/configure_cycle", "/cycle", "/publish_results", "/add_award", "/awards", "/nominate", "/endorse", "/nominations", "/help"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("help text does not mention %s", cmd)
		}
	}
}
