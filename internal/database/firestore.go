package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jredh-dev/partyline/internal/models"
)

const (
	rsvpCollection  = "rsvps"
	guestCollection = "rsvp_guests"
)

// FirestoreDB is a Store backed by Cloud Firestore. Registrants and guests
// live in two top-level collections keyed by id.
type FirestoreDB struct {
	client *firestore.Client
}

// OpenFirestore connects through the Firebase Admin SDK. With
// FIRESTORE_EMULATOR_HOST set the client talks to the emulator.
func OpenFirestore(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}
	return &FirestoreDB{client: client}, nil
}

// Close releases the Firestore client.
func (f *FirestoreDB) Close() error {
	return f.client.Close()
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (f *FirestoreDB) CreateRSVP(ctx context.Context, r *models.RSVP) error {
	prepare(r, uuid.NewString, time.Now().UTC())

	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(f.client.Collection(rsvpCollection).Doc(r.ID), r); err != nil {
			return fmt.Errorf("create rsvp: %w", err)
		}
		for i := range r.Guests {
			g := &r.Guests[i]
			if err := tx.Create(f.client.Collection(guestCollection).Doc(g.ID), g); err != nil {
				return fmt.Errorf("create guest: %w", err)
			}
		}
		return nil
	})
}

func (f *FirestoreDB) ListRSVPs(ctx context.Context) ([]models.RSVP, error) {
	rsvps, err := f.rsvps(ctx, f.client.Collection(rsvpCollection).Query)
	if err != nil {
		return nil, err
	}
	guests, err := f.guests(ctx, f.client.Collection(guestCollection).Query)
	if err != nil {
		return nil, err
	}

	byRSVP := make(map[string][]models.Guest)
	for _, g := range guests {
		byRSVP[g.RSVPID] = append(byRSVP[g.RSVPID], g)
	}
	for i := range rsvps {
		rsvps[i].Guests = byRSVP[rsvps[i].ID]
		if rsvps[i].Guests == nil {
			rsvps[i].Guests = []models.Guest{}
		}
	}

	sort.SliceStable(rsvps, func(i, j int) bool {
		return rsvps[i].CreatedAt.After(rsvps[j].CreatedAt)
	})
	return rsvps, nil
}

func (f *FirestoreDB) GetRSVP(ctx context.Context, id string) (*models.RSVP, error) {
	snap, err := f.client.Collection(rsvpCollection).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var r models.RSVP
	if err := snap.DataTo(&r); err != nil {
		return nil, fmt.Errorf("decode rsvp %s: %w", id, err)
	}
	r.ID = snap.Ref.ID

	r.Guests, err = f.guests(ctx, f.client.Collection(guestCollection).Where("rsvp_id", "==", id))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (f *FirestoreDB) GetGuest(ctx context.Context, id string) (*models.Guest, error) {
	snap, err := f.client.Collection(guestCollection).Doc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var g models.Guest
	if err := snap.DataTo(&g); err != nil {
		return nil, fmt.Errorf("decode guest %s: %w", id, err)
	}
	g.ID = snap.Ref.ID
	return &g, nil
}

func (f *FirestoreDB) ApprovedRSVPs(ctx context.Context) ([]models.RSVP, error) {
	return f.rsvps(ctx, f.client.Collection(rsvpCollection).Where("status", "==", string(models.StatusApproved)))
}

func (f *FirestoreDB) ApprovedGuests(ctx context.Context) ([]models.Guest, error) {
	return f.guests(ctx, f.client.Collection(guestCollection).Where("status", "==", string(models.StatusApproved)))
}

func (f *FirestoreDB) UpdateRSVPStatus(ctx context.Context, id string, s models.ApprovalStatus) (models.ApprovalStatus, error) {
	return f.updateStatus(ctx, rsvpCollection, id, s, true)
}

func (f *FirestoreDB) UpdateGuestStatus(ctx context.Context, id string, s models.ApprovalStatus) (models.ApprovalStatus, error) {
	return f.updateStatus(ctx, guestCollection, id, s, false)
}

func (f *FirestoreDB) updateStatus(ctx context.Context, coll, id string, s models.ApprovalStatus, touch bool) (models.ApprovalStatus, error) {
	var old models.ApprovalStatus
	ref := f.client.Collection(coll).Doc(id)

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		v, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		str, _ := v.(string)
		old = models.ApprovalStatus(str)

		updates := []firestore.Update{{Path: "status", Value: string(s)}}
		if touch {
			updates = append(updates, firestore.Update{Path: "updated_at", Value: time.Now().UTC()})
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		if notFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return old, nil
}

func (f *FirestoreDB) RecordReply(ctx context.Context, t models.AttendeeType, id string, r models.Reply) error {
	var coll string
	switch t {
	case models.TypeRSVP:
		coll = rsvpCollection
	case models.TypeGuest:
		coll = guestCollection
	default:
		return fmt.Errorf("unknown attendee type %q", t)
	}

	// Update fails with NotFound on a missing document.
	_, err := f.client.Collection(coll).Doc(id).Update(ctx, []firestore.Update{
		{Path: "reply_status", Value: string(r.Status)},
		{Path: "reply_received_at", Value: r.ReceivedAt.UTC()},
		{Path: "reply_message", Value: r.Message},
	})
	if err != nil {
		if notFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (f *FirestoreDB) rsvps(ctx context.Context, q firestore.Query) ([]models.RSVP, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []models.RSVP{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var r models.RSVP
		if err := snap.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decode rsvp %s: %w", snap.Ref.ID, err)
		}
		r.ID = snap.Ref.ID
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *FirestoreDB) guests(ctx context.Context, q firestore.Query) ([]models.Guest, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []models.Guest{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var g models.Guest
		if err := snap.DataTo(&g); err != nil {
			return nil, fmt.Errorf("decode guest %s: %w", snap.Ref.ID, err)
		}
		g.ID = snap.Ref.ID
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
