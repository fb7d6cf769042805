package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/party"
	"github.com/jredh-dev/partyline/internal/reply"
)

type sent struct{ to, text string }

type recordingSender struct {
	msgs []sent
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, text string) error {
	s.msgs = append(s.msgs, sent{to, text})
	return s.err
}

func details() party.Details {
	cet := time.FixedZone("CET", 3600)
	return party.Details{
		Title:   "Toby's 22nd Birthday Party",
		Venue:   "A'DAM 360",
		Address: "Overhoeksplein 5, Amsterdam",
		Start:   time.Date(2026, 2, 21, 21, 0, 0, 0, cet),
		End:     time.Date(2026, 2, 22, 2, 0, 0, 0, cet),
	}
}

func TestConfirm(t *testing.T) {
	s := &recordingSender{}
	n := New(s, details(), zerolog.Nop())

	if err := n.Confirm(context.Background(), "+31612345678", "Anna", reply.Yes); err != nil {
		t.Fatalf("confirm yes: %v", err)
	}
	if err := n.Confirm(context.Background(), "+31612345678", "Anna", reply.No); err != nil {
		t.Fatalf("confirm no: %v", err)
	}
	if len(s.msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(s.msgs))
	}
	if !strings.Contains(s.msgs[0].text, "Anna") || !strings.Contains(s.msgs[0].text, "21:00 at A'DAM 360") {
		t.Errorf("yes text = %q", s.msgs[0].text)
	}
	if !strings.Contains(s.msgs[1].text, "removed you from the list") {
		t.Errorf("no text = %q", s.msgs[1].text)
	}
	if s.msgs[0].text == s.msgs[1].text {
		t.Error("yes and no copy must differ")
	}
}

func TestConfirmUnknownSendsNothing(t *testing.T) {
	s := &recordingSender{}
	if err := New(s, details(), zerolog.Nop()).Confirm(context.Background(), "+31612345678", "Anna", reply.Unknown); err == nil {
		t.Error("expected error")
	}
	if len(s.msgs) != 0 {
		t.Errorf("sent %d messages", len(s.msgs))
	}
}

func TestConfirmSendError(t *testing.T) {
	boom := errors.New("gateway down")
	err := New(&recordingSender{err: boom}, details(), zerolog.Nop()).Confirm(context.Background(), "+31612345678", "Anna", reply.Yes)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped send error", err)
	}
}

func TestStatusChanged(t *testing.T) {
	tests := []struct {
		name     string
		status   models.ApprovalStatus
		old      models.ApprovalStatus
		wantSent bool
		wantText string
	}{
		{"approved", models.StatusApproved, models.StatusPending, true, "has been approved"},
		{"rejected", models.StatusRejected, models.StatusApproved, true, "could not be approved"},
		{"unchanged", models.StatusApproved, models.StatusApproved, false, ""},
		{"back to pending", models.StatusPending, models.StatusApproved, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSender{}
			a := models.Attendee{Type: models.TypeGuest, ID: "g1", Name: "Bram", Phone: "+31687654321", Status: tt.status}

			sentOK, err := New(s, details(), zerolog.Nop()).StatusChanged(context.Background(), a, tt.old)
			if err != nil {
				t.Fatalf("status changed: %v", err)
			}
			if sentOK != tt.wantSent {
				t.Errorf("sent = %v, want %v", sentOK, tt.wantSent)
			}
			if !tt.wantSent {
				if len(s.msgs) != 0 {
					t.Errorf("sent %d messages", len(s.msgs))
				}
				return
			}
			if len(s.msgs) != 1 || !strings.Contains(s.msgs[0].text, tt.wantText) || !strings.Contains(s.msgs[0].text, "Bram") {
				t.Errorf("messages = %+v", s.msgs)
			}
		})
	}
}

func TestReminderText(t *testing.T) {
	d := details()

	named := ReminderText(d, "Anna")
	if !strings.Contains(named, "Hi Anna!") {
		t.Errorf("missing personal greeting: %q", named)
	}
	for _, s := range []string{"*TONIGHT* at 21:00", "February 21st, 2026", "google.com/maps/dir", "Reply YES"} {
		if !strings.Contains(named, s) {
			t.Errorf("reminder missing %q", s)
		}
	}

	if anon := ReminderText(d, "  "); !strings.Contains(anon, "Hi! Just") {
		t.Errorf("blank name should keep plain greeting: %q", anon)
	}
}
