// Package attendee finds the approved attendee behind an inbound phone
// number and stores their reply.
package attendee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jredh-dev/partyline/internal/database"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/phone"
	"github.com/jredh-dev/partyline/internal/reply"
)

// ErrNotFound means no approved registrant or guest matched the phone.
var ErrNotFound = errors.New("no approved attendee matches phone")

// Source loads the approved working sets.
type Source interface {
	ApprovedRSVPs(ctx context.Context) ([]models.RSVP, error)
	ApprovedGuests(ctx context.Context) ([]models.Guest, error)
}

// Resolver maps a sender phone to an approved attendee.
type Resolver struct {
	src     Source
	matcher phone.Matcher
}

// NewResolver returns a Resolver over src using m for phone comparison.
func NewResolver(src Source, m phone.Matcher) *Resolver {
	return &Resolver{src: src, matcher: m}
}

// Resolve returns the first approved registrant whose phone matches. Guests
// are only consulted when no registrant matched.
func (r *Resolver) Resolve(ctx context.Context, number string) (*models.Attendee, error) {
	rsvps, err := r.src.ApprovedRSVPs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load approved rsvps: %w", err)
	}
	for _, rsvp := range rsvps {
		if r.matcher.Match(rsvp.Phone, number) {
			a := rsvp.Attendee()
			return &a, nil
		}
	}

	guests, err := r.src.ApprovedGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load approved guests: %w", err)
	}
	for _, g := range guests {
		if r.matcher.Match(g.Phone, number) {
			a := g.Attendee()
			return &a, nil
		}
	}

	return nil, ErrNotFound
}

// Writer persists a reply on one attendee row.
type Writer interface {
	RecordReply(ctx context.Context, t models.AttendeeType, id string, r models.Reply) error
}

// Recorder stores classified replies.
type Recorder struct {
	w Writer
}

// NewRecorder returns a Recorder writing through w.
func NewRecorder(w Writer) *Recorder {
	return &Recorder{w: w}
}

// Record sets the reply fields on exactly the attendee's own row. Unknown
// replies are rejected; registrant replies never touch their guests.
func (r *Recorder) Record(ctx context.Context, a *models.Attendee, kind reply.Kind, at time.Time, raw string) error {
	var status models.ReplyStatus
	switch kind {
	case reply.Yes:
		status = models.ReplyYes
	case reply.No:
		status = models.ReplyNo
	default:
		return fmt.Errorf("reply %q is not recordable", kind)
	}

	err := r.w.RecordReply(ctx, a.Type, a.ID, models.Reply{Status: status, ReceivedAt: at, Message: raw})
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", a.Type, a.ID, err)
	}
	return err
}
