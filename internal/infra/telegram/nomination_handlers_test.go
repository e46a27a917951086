package telegram

import (
	"strings"
	"testing"
	"time"

	"reward_recognition_bot/internal/domain/cycle"
	"reward_recognition_bot/internal/domain/nomination"

	"gopkg.in/telebot.v3"
)

func TestNominationText(t *testing.T) {
	n := &nomination.Nomination{NominatedByName: "Alice", NomineeName: "Bob <3", AwardName: "MVP", Reason: "fixed prod & docs"}
	want := "🏅 Alice nominated <b>Bob &lt;3</b> for <b>MVP</b>.\n<i>fixed prod &amp; docs</i>"
	if got := NominationText(n); got != want {
		t.Errorf("NominationText() = %q, want %q", got, want)
	}

	n.Reason = ""
	if got := NominationText(n); strings.Contains(got, "<i>") {
		t.Errorf("NominationText() without reason = %q", got)
	}
}

func TestFormatNominations(t *testing.T) {
	rec := &cycle.Record{
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	if got := FormatNominations(rec, nil); !strings.Contains(got, "/nominate") {
		t.Errorf("FormatNominations(nil) = %q", got)
	}

	got := FormatNominations(rec, []*nomination.Nomination{
		{AwardName: "MVP", NomineeName: "Bob", NominatedByName: "Alice", Endorsements: 2, AwardGranted: true},
		{AwardName: "Rookie", NomineeName: "Eve", NominatedByName: "Bob"},
	})
	want := "Nominations for 2024-03-01 to 2024-03-14:\n• MVP: Bob, by Alice (2 endorsements) 🏆\n• Rookie: Eve, by Bob (0 endorsements)"
	if got != want {
		t.Errorf("FormatNominations() = %q, want %q", got, want)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user *telebot.User
		want string
	}{
		{&telebot.User{ID: 1, FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{&telebot.User{ID: 2, FirstName: "Ada"}, "Ada"},
		{&telebot.User{ID: 3, Username: "ada"}, "@ada"},
		{&telebot.User{ID: 4}, "user 4"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.user); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}
