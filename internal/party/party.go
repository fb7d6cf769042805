// Package party holds the event details shown in messages, the calendar
// feed and the party API.
package party

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jredh-dev/partyline/internal/ical"
)

// Details describes the party.
type Details struct {
	Title       string
	Description string
	Venue       string
	Address     string
	Start       time.Time // carries the venue's location
	End         time.Time
}

// Location is the venue and address on one line.
func (d Details) Location() string {
	switch {
	case d.Venue == "":
		return d.Address
	case d.Address == "":
		return d.Venue
	default:
		return d.Venue + ", " + d.Address
	}
}

// TimeLabel is the local start time, e.g. "21:00".
func (d Details) TimeLabel() string {
	return d.Start.Format("15:04")
}

// DateLabel is the local start date, e.g. "February 21st, 2026".
func (d Details) DateLabel() string {
	day := d.Start.Day()
	return fmt.Sprintf("%s %d%s, %d", d.Start.Month(), day, ordinal(day), d.Start.Year())
}

func ordinal(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// DirectionsURL is a Google Maps directions link to the address.
func (d Details) DirectionsURL() string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", d.Address)
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// GoogleCalendarURL is a prefilled "add to calendar" link.
func (d Details) GoogleCalendarURL() string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", d.Title)
	q.Set("dates", ical.FormatDateTime(d.Start)+"/"+ical.FormatDateTime(d.End))
	q.Set("details", d.Description)
	q.Set("location", d.Location())
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// Event returns the party as a calendar event stamped at now.
func (d Details) Event(now time.Time) ical.Event {
	return ical.Event{
		UID:         fmt.Sprintf("party-%d@partyline", d.Start.Unix()),
		Summary:     d.Title,
		Description: d.Description,
		Location:    d.Location(),
		Start:       d.Start,
		End:         d.End,
		Status:      "CONFIRMED",
		Stamp:       now,
		Reminder:    2 * time.Hour,
	}
}

// ICS renders a single-event calendar document.
func (d Details) ICS(now time.Time) string {
	return ical.Generate(ical.Calendar{Name: d.Title, TTL: 6 * time.Hour}, []ical.Event{d.Event(now)})
}
