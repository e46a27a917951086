package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/cycle"

	"github.com/fatih/color"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestPrintSummary(t *testing.T) {
	disableColor(t)
	start := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	summary := app.RunSummary{
		Job:        app.JobCycleSweep,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Results: []app.TeamResult{
			{TeamID: "team-1", CycleID: "c-1", Outcome: string(cycle.OutcomeMinted)},
			{TeamID: "team-2", Outcome: app.OutcomeFailed, Err: errors.New("invalid cycle record: unknown recurrence kind")},
		},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, summary)
	out := buf.String()

	for _, want := range []string{
		"✗ cycle_sweep: 2 team(s), 1 failed (1.5s)",
		"team-1  c-1  minted",
		"team-2  -    failed  invalid cycle record",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintCycles(t *testing.T) {
	disableColor(t)
	rangeEnd := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	records := []*cycle.Record{
		{
			TeamID:     "-1001",
			CycleID:    "abc",
			StartDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			Recurrence: cycle.RecurrenceRepeatUntilEndDate, RangeEndDate: &rangeEnd,
			State: cycle.StateActive,
		},
	}

	var buf bytes.Buffer
	PrintCycles(&buf, records)
	out := buf.String()
	for _, want := range []string{"TEAM", "-1001", "2024-03-01", "until 2024-06-30", "ACTIVE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintCycles(&buf, nil)
	if buf.String() != "No cycles found\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}
