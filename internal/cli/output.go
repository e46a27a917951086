package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"reward_recognition_bot/internal/app"
	"reward_recognition_bot/internal/domain/cycle"

	"github.com/fatih/color"
)

// PrintSummary writes a run summary with one line per team.
func PrintSummary(w io.Writer, s app.RunSummary) {
	mark := color.New(color.FgGreen).Sprint("✓")
	if s.Failed() > 0 {
		mark = color.New(color.FgRed).Sprint("✗")
	}
	fmt.Fprintf(w, "%s %s: %d team(s), %d failed (%s)\n", mark, s.Job, len(s.Results), s.Failed(), s.Duration().Round(time.Millisecond))

	if len(s.Results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range s.Results {
		line := fmt.Sprintf("  %s\t%s\t%s", r.TeamID, orDash(r.CycleID), outcomeLabel(r.Outcome))
		if r.Err != nil {
			line += "\t" + r.Err.Error()
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

// PrintCycles writes records as a table.
func PrintCycles(w io.Writer, records []*cycle.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No cycles found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tCYCLE\tSTART\tEND\tRECURRENCE\tLEFT\tSTATE\tPUBLISHED")
	fmt.Fprintln(tw, "----\t-----\t-----\t---\t----------\t----\t-----\t---------")
	for _, r := range records {
		left := "-"
		switch r.Recurrence {
		case cycle.RecurrenceRepeatUntilOccurrenceCount:
			left = strconv.Itoa(r.OccurrencesRemaining)
		case cycle.RecurrenceRepeatUntilEndDate:
			if r.RangeEndDate != nil {
				left = "until " + r.RangeEndDate.UTC().Format(time.DateOnly)
			}
		}
		published := "-"
		if r.ResultPublishedOn != nil {
			published = r.ResultPublishedOn.UTC().Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TeamID,
			r.CycleID,
			r.StartDate.UTC().Format(time.DateOnly),
			r.EndDate.UTC().Format(time.DateOnly),
			r.Recurrence,
			left,
			stateLabel(r.State),
			published,
		)
	}
	tw.Flush()
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case app.OutcomeFailed:
		return color.New(color.FgRed).Sprint(outcome)
	case string(cycle.OutcomeMinted), app.OutcomeNotified:
		return color.New(color.FgHiGreen).Sprint(outcome)
	case string(cycle.OutcomeTransitioned):
		return color.New(color.FgYellow).Sprint(outcome)
	default:
		return color.New(color.FgHiBlack).Sprint(outcome)
	}
}

func stateLabel(s cycle.State) string {
	if s == cycle.StateActive {
		return color.New(color.FgHiGreen).Sprint(s)
	}
	return color.New(color.FgWhite).Sprint(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
