// Package reminder sends the party-day reminder to every approved attendee.
//
// Sends are strictly sequential with a pause between consecutive messages to
// stay under the messaging provider's rate limit. A failed send is recorded
// and the run moves on; nothing is retried.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/attendee"
	"github.com/jredh-dev/partyline/internal/clock"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/phone"
	"github.com/jredh-dev/partyline/internal/wasender"
)

// Delay bounds, in seconds.
const (
	DefaultDelaySeconds = 15
	MinDelaySeconds     = 10
	MaxDelaySeconds     = 20
)

// ErrNoTestRecipient is returned for a test-mode run without a configured
// test recipient.
var ErrNoTestRecipient = errors.New("test mode requires a test recipient")

// ClampDelay converts a requested delay into the enforced one. Zero means
// the default; anything else is clamped to [MinDelaySeconds, MaxDelaySeconds].
func ClampDelay(seconds int) time.Duration {
	if seconds == 0 {
		seconds = DefaultDelaySeconds
	}
	seconds = max(MinDelaySeconds, min(MaxDelaySeconds, seconds))
	return time.Duration(seconds) * time.Second
}

// Options controls one dispatch run.
type Options struct {
	// TestMode sends a single message to the test recipient.
	TestMode bool

	// DelaySeconds between consecutive sends; see ClampDelay. Zero uses
	// the Dispatcher's default.
	DelaySeconds int
}

// Result is the outcome for one recipient.
type Result struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Report summarises a run.
type Report struct {
	Message      string   `json:"message"`
	Total        int      `json:"total"`
	Sent         int      `json:"sent"`
	Failed       int      `json:"failed"`
	Results      []Result `json:"results"`
	TestMode     bool     `json:"testMode"`
	DelaySeconds int      `json:"delayBetweenMessages"`
}

// Dispatcher sends reminders to approved attendees.
type Dispatcher struct {
	src           attendee.Source
	sender        wasender.Sender
	compose       func(name string) string
	clock         clock.Clock
	matcher       phone.Matcher
	testRecipient string
	defaultDelay  int
	log           zerolog.Logger
}

// Config wires a Dispatcher.
type Config struct {
	Source  attendee.Source
	Sender  wasender.Sender
	Compose func(name string) string // message text for one recipient
	Clock   clock.Clock              // nil uses clock.Real
	Matcher phone.Matcher

	// TestRecipient is the number used in test mode.
	TestRecipient string

	// DelaySeconds applies when a run does not ask for a delay.
	DelaySeconds int
}

// New returns a Dispatcher.
func New(cfg Config, log zerolog.Logger) *Dispatcher {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Dispatcher{
		src:           cfg.Source,
		sender:        cfg.Sender,
		compose:       cfg.Compose,
		clock:         clk,
		matcher:       cfg.Matcher,
		testRecipient: cfg.TestRecipient,
		defaultDelay:  cfg.DelaySeconds,
		log:           log.With().Str("component", "reminder").Logger(),
	}
}

// Recipients returns approved registrants followed by approved guests.
func (d *Dispatcher) Recipients(ctx context.Context) ([]models.Attendee, error) {
	rsvps, err := d.src.ApprovedRSVPs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load approved rsvps: %w", err)
	}
	guests, err := d.src.ApprovedGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load approved guests: %w", err)
	}

	out := make([]models.Attendee, 0, len(rsvps)+len(guests))
	for _, r := range rsvps {
		out = append(out, r.Attendee())
	}
	for _, g := range guests {
		out = append(out, g.Attendee())
	}
	return out, nil
}

// testTarget picks the attendee matching the test recipient, or a stand-in.
func (d *Dispatcher) testTarget(all []models.Attendee) models.Attendee {
	for _, a := range all {
		if d.matcher.Match(a.Phone, d.testRecipient) {
			return a
		}
	}
	return models.Attendee{Type: models.TypeRSVP, ID: "test", Name: "Test User", Phone: d.testRecipient}
}

// Dispatch sends one reminder per recipient, in order, waiting the clamped
// delay between consecutive sends but not after the last one. A cancelled
// context stops the run and returns the partial report with the context
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, opts Options) (*Report, error) {
	seconds := opts.DelaySeconds
	if seconds == 0 {
		seconds = d.defaultDelay
	}
	delay := ClampDelay(seconds)
	report := &Report{
		TestMode:     opts.TestMode,
		DelaySeconds: int(delay / time.Second),
		Results:      []Result{},
	}

	all, err := d.Recipients(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		report.Message = "No approved attendees found"
		return report, nil
	}

	recipients := all
	if opts.TestMode {
		if d.testRecipient == "" {
			return nil, ErrNoTestRecipient
		}
		recipients = []models.Attendee{d.testTarget(all)}
	}
	report.Total = len(recipients)

	d.log.Info().
		Int("recipients", len(recipients)).
		Bool("test_mode", opts.TestMode).
		Dur("delay", delay).
		Msg("dispatching reminders")

	start := d.clock.Now()
	for i, a := range recipients {
		res := Result{Name: a.Name, Phone: phone.Normalize(a.Phone)}
		if err := d.sender.Send(ctx, res.Phone, d.compose(a.Name)); err != nil {
			res.Error = err.Error()
			report.Failed++
			d.log.Warn().Err(err).Str("id", a.ID).Msg("reminder failed")
		} else {
			res.Success = true
			report.Sent++
		}
		report.Results = append(report.Results, res)

		if i == len(recipients)-1 {
			break
		}
		if err := clock.Sleep(ctx, d.clock, delay); err != nil {
			report.Message = summary(report)
			return report, err
		}
	}

	report.Message = summary(report)
	d.log.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Dur("elapsed", d.clock.Now().Sub(start)).
		Msg("reminders done")
	return report, nil
}

func summary(r *Report) string {
	return fmt.Sprintf("Reminders sent to %d out of %d attendees", r.Sent, r.Total)
}
