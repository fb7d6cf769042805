// Package database persists registrants and guests.
//
// The default backend is SQLite through sqlx. A postgres:// URL selects
// PostgreSQL (the schema matches the hosted tables the party site was first
// deployed on) and a firestore://<project> URL selects Cloud Firestore.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jredh-dev/partyline/internal/models"
)

// ErrNotFound is returned when a targeted record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary used by the webhook pipeline, the
// reminder dispatcher and the admin API.
type Store interface {
	// CreateRSVP inserts a registrant and its guests. IDs and timestamps are
	// filled in when empty.
	CreateRSVP(ctx context.Context, r *models.RSVP) error

	// ListRSVPs returns every registrant with its guests, newest first.
	ListRSVPs(ctx context.Context) ([]models.RSVP, error)

	GetRSVP(ctx context.Context, id string) (*models.RSVP, error)
	GetGuest(ctx context.Context, id string) (*models.Guest, error)

	// ApprovedRSVPs and ApprovedGuests return the working sets used for
	// phone matching and reminders, oldest first.
	ApprovedRSVPs(ctx context.Context) ([]models.RSVP, error)
	ApprovedGuests(ctx context.Context) ([]models.Guest, error)

	// UpdateRSVPStatus and UpdateGuestStatus set the approval status and
	// return the previous one.
	UpdateRSVPStatus(ctx context.Context, id string, status models.ApprovalStatus) (models.ApprovalStatus, error)
	UpdateGuestStatus(ctx context.Context, id string, status models.ApprovalStatus) (models.ApprovalStatus, error)

	// RecordReply sets reply_status, reply_received_at and reply_message on
	// exactly one registrant or guest. It does not cascade.
	RecordReply(ctx context.Context, t models.AttendeeType, id string, r models.Reply) error

	Close() error
}

// Options configures Open.
type Options struct {
	// URL is a SQLite file path (optionally prefixed with sqlite://),
	// a postgres:// URL, or firestore://<project-id>.
	URL string

	// CredentialsPath is a service account file for Firestore. Empty uses
	// application default credentials or the emulator.
	CredentialsPath string
}

// Open selects a backend from opts.URL.
func Open(ctx context.Context, opts Options) (Store, error) {
	u := strings.TrimSpace(opts.URL)
	switch {
	case u == "":
		return nil, errors.New("store url is empty")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return OpenPostgres(u)
	case strings.HasPrefix(u, "firestore://"):
		project := strings.TrimPrefix(u, "firestore://")
		if project == "" {
			return nil, fmt.Errorf("firestore url %q has no project id", u)
		}
		return OpenFirestore(ctx, project, opts.CredentialsPath)
	default:
		return OpenSQLite(strings.TrimPrefix(u, "sqlite://"))
	}
}

// prepare fills in defaults before a registrant and its guests are inserted.
func prepare(r *models.RSVP, newID func() string, now time.Time) {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	for i := range r.Guests {
		g := &r.Guests[i]
		if g.ID == "" {
			g.ID = newID()
		}
		g.RSVPID = r.ID
		if g.Status == "" {
			g.Status = models.StatusPending
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
	}
}
