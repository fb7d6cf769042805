package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jredh-dev/partyline/internal/groups"
	"github.com/jredh-dev/partyline/internal/reminder"
)

type reminderInput struct {
	TestMode     bool `json:"testMode"`
	DelaySeconds int  `json:"delayBetweenMessages"`
}

// SendReminders handles POST /api/admin/reminders. The body is optional.
func (h *Handler) SendReminders(w http.ResponseWriter, r *http.Request) {
	var in reminderInput
	if !decode(w, r, &in, true) {
		return
	}

	// A full run outlasts the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug().Err(err).Msg("write deadline not cleared")
	}

	report, err := h.reminders.Dispatch(r.Context(), reminder.Options{
		TestMode:     in.TestMode,
		DelaySeconds: in.DelaySeconds,
	})
	switch {
	case errors.Is(err, reminder.ErrNoTestRecipient):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil && report != nil:
		// Cancelled mid-run; the client is most likely gone.
		h.log.Warn().Err(err).Int("sent", report.Sent).Msg("reminder run interrupted")
		jsonOK(w, http.StatusOK, report)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("reminder run failed")
		jsonError(w, "failed to send reminders", http.StatusInternalServerError)
		return
	}
	jsonOK(w, http.StatusOK, report)
}

type groupInput struct {
	groups.Request

	// UseApproved fills an empty participant list with every approved
	// registrant and guest.
	UseApproved bool `json:"useApproved"`
}

// CreateGroup handles POST /api/admin/groups.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in groupInput
	if !decode(w, r, &in, false) {
		return
	}

	if in.UseApproved && len(in.Participants) == 0 {
		ps, err := h.approvedParticipants(r)
		if err != nil {
			h.log.Error().Err(err).Msg("load approved attendees failed")
			jsonError(w, "failed to load attendees", http.StatusInternalServerError)
			return
		}
		in.Participants = ps
	}

	res, err := h.groups.Build(r.Context(), in.Request)
	var invalid *groups.InvalidPhoneError
	switch {
	case errors.Is(err, groups.ErrNoParticipants), errors.As(err, &invalid):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("group operation failed")
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	jsonOK(w, http.StatusOK, res)
}

func (h *Handler) approvedParticipants(r *http.Request) ([]groups.Participant, error) {
	rsvps, err := h.store.ApprovedRSVPs(r.Context())
	if err != nil {
		return nil, err
	}
	guests, err := h.store.ApprovedGuests(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]groups.Participant, 0, len(rsvps)+len(guests))
	for _, rsvp := range rsvps {
		out = append(out, groups.Participant{Name: rsvp.FullName, Phone: rsvp.Phone})
	}
	for _, g := range guests {
		out = append(out, groups.Participant{Name: g.Name, Phone: g.Phone})
	}
	return out, nil
}
