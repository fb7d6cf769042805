package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jredh-dev/partyline/internal/database"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/phone"
)

type guestInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type rsvpInput struct {
	FullName string                `json:"full_name"`
	Phone    string                `json:"phone"`
	Status   models.ApprovalStatus `json:"status,omitempty"`
	Guests   []guestInput          `json:"guests"`
}

// validation errors shown to whoever filled in the form
var (
	errNameAndPhone = errors.New("please fill in your name and phone number")
	errInvalidPhone = errors.New("please enter a valid Dutch mobile number (e.g., +31 6 12345678)")
	errGuestInfo    = errors.New("please fill in all guest information with valid phone numbers")
	errBadStatus    = errors.New("status must be pending, approved or rejected")
)

// toRSVP validates in and builds the record. validPhone decides which
// numbers are acceptable.
func (in rsvpInput) toRSVP(validPhone func(string) bool) (*models.RSVP, error) {
	name := strings.TrimSpace(in.FullName)
	number := strings.TrimSpace(in.Phone)
	if name == "" || number == "" {
		return nil, errNameAndPhone
	}
	if !validPhone(number) {
		return nil, errInvalidPhone
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, errBadStatus
	}

	r := &models.RSVP{FullName: name, Phone: number, Status: in.Status, Guests: []models.Guest{}}
	for _, g := range in.Guests {
		gName, gPhone := strings.TrimSpace(g.Name), strings.TrimSpace(g.Phone)
		if gName == "" || !validPhone(gPhone) {
			return nil, errGuestInfo
		}
		r.Guests = append(r.Guests, models.Guest{Name: gName, Phone: gPhone, Status: in.Status})
	}
	return r, nil
}

// anyPhone accepts any number long enough to reach someone.
func anyPhone(s string) bool {
	return len(phone.Digits(s)) >= 10
}

// SubmitRSVP handles POST /api/rsvps. Public submissions always start
// pending.
func (h *Handler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	var in rsvpInput
	if !decode(w, r, &in, false) {
		return
	}
	in.Status = ""

	rsvp, err := in.toRSVP(phone.ValidDutchMobile)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.create(w, r, rsvp)
}

// CreateRSVP handles POST /api/admin/rsvps. Admins may set the initial
// status and enter non-Dutch numbers.
func (h *Handler) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var in rsvpInput
	if !decode(w, r, &in, false) {
		return
	}
	rsvp, err := in.toRSVP(anyPhone)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.create(w, r, rsvp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, rsvp *models.RSVP) {
	if err := h.store.CreateRSVP(r.Context(), rsvp); err != nil {
		h.log.Error().Err(err).Msg("create rsvp failed")
		jsonError(w, "failed to save RSVP", http.StatusInternalServerError)
		return
	}
	h.log.Info().Str("id", rsvp.ID).Int("guests", len(rsvp.Guests)).Msg("rsvp created")
	jsonOK(w, http.StatusCreated, rsvp)
}

// ListRSVPs handles GET /api/admin/rsvps.
func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListRSVPs(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list rsvps failed")
		jsonError(w, "failed to load RSVPs", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.RSVP{}
	}
	jsonOK(w, http.StatusOK, list)
}

type statusInput struct {
	Status models.ApprovalStatus `json:"status"`
}

type statusResult struct {
	ID                string                `json:"id"`
	Type              models.AttendeeType   `json:"type"`
	Status            models.ApprovalStatus `json:"status"`
	PreviousStatus    models.ApprovalStatus `json:"previousStatus"`
	NotificationSent  bool                  `json:"notificationSent"`
	NotificationError string                `json:"notificationError,omitempty"`
}

// UpdateRSVPStatus handles POST /api/admin/rsvps/{id}/status.
func (h *Handler) UpdateRSVPStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, models.TypeRSVP)
}

// UpdateGuestStatus handles POST /api/admin/guests/{id}/status.
func (h *Handler) UpdateGuestStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, models.TypeGuest)
}

// updateStatus sets the approval status and then sends the approval or
// rejection notice. A failed notice does not undo the update.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, t models.AttendeeType) {
	id := chi.URLParam(r, "id")
	var in statusInput
	if !decode(w, r, &in, false) {
		return
	}
	if !in.Status.Valid() {
		jsonError(w, errBadStatus.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var (
		old models.ApprovalStatus
		a   models.Attendee
		err error
	)
	switch t {
	case models.TypeGuest:
		if old, err = h.store.UpdateGuestStatus(ctx, id, in.Status); err == nil {
			var g *models.Guest
			if g, err = h.store.GetGuest(ctx, id); err == nil {
				a = g.Attendee()
			}
		}
	default:
		if old, err = h.store.UpdateRSVPStatus(ctx, id, in.Status); err == nil {
			var rsvp *models.RSVP
			if rsvp, err = h.store.GetRSVP(ctx, id); err == nil {
				a = rsvp.Attendee()
			}
		}
	}
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, string(t)+" not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("type", string(t)).Str("id", id).Msg("status update failed")
		jsonError(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	res := statusResult{ID: id, Type: t, Status: in.Status, PreviousStatus: old}
	sent, err := h.notifier.StatusChanged(ctx, a, old)
	if err != nil {
		h.log.Warn().Err(err).Str("id", id).Msg("status notice failed")
		res.NotificationError = err.Error()
	}
	res.NotificationSent = sent

	h.log.Info().Str("type", string(t)).Str("id", id).
		Str("from", string(old)).Str("to", string(in.Status)).
		Bool("notified", sent).Msg("status updated")
	jsonOK(w, http.StatusOK, res)
}
