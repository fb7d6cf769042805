package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/clock"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/phone"
)

type source struct {
	rsvps  []models.RSVP
	guests []models.Guest
	err    error
}

func (s *source) ApprovedRSVPs(context.Context) ([]models.RSVP, error)  { return s.rsvps, s.err }
func (s *source) ApprovedGuests(context.Context) ([]models.Guest, error) { return s.guests, nil }

type sender struct {
	calls  []string
	failOn map[string]bool
}

func (s *sender) Send(_ context.Context, to, _ string) error {
	s.calls = append(s.calls, to)
	if s.failOn[to] {
		return errors.New("rate limited")
	}
	return nil
}

func newClock() *clock.Recording {
	return clock.NewRecording(time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
}

func threeAttendees() *source {
	return &source{
		rsvps: []models.RSVP{
			{ID: "r1", FullName: "Anna", Phone: "+31 6 1111 1111"},
			{ID: "r2", FullName: "Bram", Phone: "0622222222"},
		},
		guests: []models.Guest{
			{ID: "g1", RSVPID: "r1", Name: "Cees", Phone: "+31633333333"},
		},
	}
}

func newDispatcher(src *source, s *sender, clk clock.Clock, testRecipient string) *Dispatcher {
	return New(Config{
		Source:        src,
		Sender:        s,
		Compose:       func(name string) string { return "Hi " + name + "!" },
		Clock:         clk,
		Matcher:       phone.NewMatcher(phone.MatchSuffix),
		TestRecipient: testRecipient,
	}, zerolog.Nop())
}

func TestClampDelay(t *testing.T) {
	tests := []struct {
		in   int
		want time.Duration
	}{
		{0, 15 * time.Second},
		{5, 10 * time.Second},
		{-3, 10 * time.Second},
		{12, 12 * time.Second},
		{20, 20 * time.Second},
		{60, 20 * time.Second},
	}
	for _, tt := range tests {
		if got := ClampDelay(tt.in); got != tt.want {
			t.Errorf("ClampDelay(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDispatch_SendsToEveryRecipientWithDelay(t *testing.T) {
	clk := newClock()
	s := &sender{failOn: map[string]bool{"+0622222222": true}}
	d := newDispatcher(threeAttendees(), s, clk, "")

	report, err := d.Dispatch(context.Background(), Options{DelaySeconds: 99})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Exactly N send attempts, in order, continuing past the failure.
	want := []string{"+31611111111", "+0622222222", "+31633333333"}
	if len(s.calls) != len(want) {
		t.Fatalf("send attempts = %d, want %d", len(s.calls), len(want))
	}
	for i := range want {
		if s.calls[i] != want[i] {
			t.Errorf("call %d to %q, want %q", i, s.calls[i], want[i])
		}
	}

	// N-1 waits, each within bounds.
	if len(clk.Waits()) != 2 {
		t.Fatalf("waits = %d, want 2", len(clk.Waits()))
	}
	for _, w := range clk.Waits() {
		if w < 10*time.Second || w > 20*time.Second {
			t.Errorf("wait %v outside [10s, 20s]", w)
		}
	}

	if report.Total != 3 || report.Sent != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.DelaySeconds != 20 {
		t.Errorf("delay = %d, want 20", report.DelaySeconds)
	}
	if r := report.Results[1]; r.Success || r.Error != "rate limited" || r.Name != "Bram" {
		t.Errorf("failed result = %+v", r)
	}
	if report.Message != "Reminders sent to 2 out of 3 attendees" {
		t.Errorf("message = %q", report.Message)
	}
}

func TestDispatch_NoAttendees(t *testing.T) {
	s := &sender{}
	report, err := newDispatcher(&source{}, s, newClock(), "").Dispatch(context.Background(), Options{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Total != 0 || len(s.calls) != 0 {
		t.Errorf("report = %+v, calls = %v", report, s.calls)
	}
	if report.DelaySeconds != 15 {
		t.Errorf("default delay = %d", report.DelaySeconds)
	}
}

func TestDispatch_TestModeMatchesAttendee(t *testing.T) {
	clk := newClock()
	s := &sender{}
	d := newDispatcher(threeAttendees(), s, clk, "+31 6 2222 2222")

	report, err := d.Dispatch(context.Background(), Options{TestMode: true})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(s.calls) != 1 {
		t.Fatalf("send attempts = %d, want 1", len(s.calls))
	}
	if report.Results[0].Name != "Bram" || !report.TestMode {
		t.Errorf("report = %+v", report)
	}
	if len(clk.Waits()) != 0 {
		t.Errorf("single send should not wait, got %v", clk.Waits())
	}
}

func TestDispatch_TestModeStandIn(t *testing.T) {
	s := &sender{}
	d := newDispatcher(threeAttendees(), s, newClock(), "+31699999999")

	report, err := d.Dispatch(context.Background(), Options{TestMode: true})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(s.calls) != 1 || s.calls[0] != "+31699999999" {
		t.Errorf("calls = %v", s.calls)
	}
	if report.Results[0].Name != "Test User" {
		t.Errorf("name = %q", report.Results[0].Name)
	}
}

func TestDispatch_TestModeWithoutRecipient(t *testing.T) {
	if _, err := newDispatcher(threeAttendees(), &sender{}, newClock(), "").Dispatch(context.Background(), Options{TestMode: true}); !errors.Is(err, ErrNoTestRecipient) {
		t.Errorf("err = %v, want ErrNoTestRecipient", err)
	}
}

func TestDispatch_StoreError(t *testing.T) {
	boom := errors.New("db down")
	s := &sender{}
	_, err := newDispatcher(&source{err: boom}, s, newClock(), "").Dispatch(context.Background(), Options{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if len(s.calls) != 0 {
		t.Error("sent despite store error")
	}
}

// blockingClock never fires, so only cancellation ends the wait.
type blockingClock struct{}

func (blockingClock) Now() time.Time                       { return time.Now() }
func (blockingClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func TestDispatch_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &cancellingSender{cancel: cancel}
	d := New(Config{
		Source:  threeAttendees(),
		Sender:  s,
		Compose: func(string) string { return "hi" },
		Clock:   blockingClock{},
	}, zerolog.Nop())

	report, err := d.Dispatch(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.calls != 1 || len(report.Results) != 1 {
		t.Errorf("calls = %d, results = %d", s.calls, len(report.Results))
	}
}

type cancellingSender struct {
	calls  int
	cancel context.CancelFunc
}

func (s *cancellingSender) Send(context.Context, string, string) error {
	s.calls++
	s.cancel()
	return nil
}

func TestDispatch_ConfiguredDefaultDelay(t *testing.T) {
	clk := newClock()
	d := New(Config{
		Source:       threeAttendees(),
		Sender:       &sender{},
		Compose:      func(string) string { return "hi" },
		Clock:        clk,
		DelaySeconds: 12,
	}, zerolog.Nop())

	report, err := d.Dispatch(context.Background(), Options{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.DelaySeconds != 12 {
		t.Errorf("delay = %d, want 12", report.DelaySeconds)
	}

	// An explicit request still wins and is clamped.
	report, _ = d.Dispatch(context.Background(), Options{DelaySeconds: 3})
	if report.DelaySeconds != 10 {
		t.Errorf("delay = %d, want 10", report.DelaySeconds)
	}
	if waits := clk.Waits(); len(waits) != 4 || waits[0] != 12*time.Second || waits[2] != 10*time.Second {
		t.Errorf("waits = %v", waits)
	}
}
