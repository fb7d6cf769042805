package handlers

import (
	"net/http"
	"time"
)

type partyInfo struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Venue             string    `json:"venue"`
	Address           string    `json:"address"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Date              string    `json:"date"`
	Time              string    `json:"time"`
	DirectionsURL     string    `json:"directionsUrl"`
	GoogleCalendarURL string    `json:"googleCalendarUrl"`
	CalendarURL       string    `json:"calendarUrl"`
}

// Party handles GET /api/party.
func (h *Handler) Party(w http.ResponseWriter, r *http.Request) {
	d := h.party
	jsonOK(w, http.StatusOK, partyInfo{
		Title:             d.Title,
		Description:       d.Description,
		Venue:             d.Venue,
		Address:           d.Address,
		Start:             d.Start,
		End:               d.End,
		Date:              d.DateLabel(),
		Time:              d.TimeLabel(),
		DirectionsURL:     d.DirectionsURL(),
		GoogleCalendarURL: d.GoogleCalendarURL(),
		CalendarURL:       "/party.ics",
	})
}

// Calendar handles GET /party.ics.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="party.ics"`)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.party.ICS(h.clock.Now()))) //nolint:errcheck
}
