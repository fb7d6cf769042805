package party

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func testDetails() Details {
	cet := time.FixedZone("CET", 3600)
	return Details{
		Title:       "Toby's 22nd Birthday Party",
		Description: "An evening of celebration",
		Venue:       "A'DAM 360",
		Address:     "Overhoeksplein 5, 1031 KS Amsterdam, Netherlands",
		Start:       time.Date(2026, 2, 21, 21, 0, 0, 0, cet),
		End:         time.Date(2026, 2, 22, 2, 0, 0, 0, cet),
	}
}

func TestLabels(t *testing.T) {
	d := testDetails()
	if got := d.TimeLabel(); got != "21:00" {
		t.Errorf("TimeLabel = %q", got)
	}
	if got := d.DateLabel(); got != "February 21st, 2026" {
		t.Errorf("DateLabel = %q", got)
	}
	if got := d.Location(); got != "A'DAM 360, Overhoeksplein 5, 1031 KS Amsterdam, Netherlands" {
		t.Errorf("Location = %q", got)
	}
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th", 21: "st", 22: "nd", 23: "rd", 30: "th"}
	for n, want := range tests {
		if got := ordinal(n); got != want {
			t.Errorf("ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestGoogleCalendarURL(t *testing.T) {
	u, err := url.Parse(testDetails().GoogleCalendarURL())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "calendar.google.com" {
		t.Errorf("host = %q", u.Host)
	}
	q := u.Query()
	if q.Get("action") != "TEMPLATE" {
		t.Errorf("action = %q", q.Get("action"))
	}
	if q.Get("dates") != "20260221T200000Z/20260222T010000Z" {
		t.Errorf("dates = %q", q.Get("dates"))
	}
	if !strings.HasPrefix(q.Get("location"), "A'DAM 360") {
		t.Errorf("location = %q", q.Get("location"))
	}
}

func TestDirectionsURL(t *testing.T) {
	u, err := url.Parse(testDetails().DirectionsURL())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.Query().Get("destination"); got != "Overhoeksplein 5, 1031 KS Amsterdam, Netherlands" {
		t.Errorf("destination = %q", got)
	}
}

func TestICS(t *testing.T) {
	out := testDetails().ICS(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	for _, s := range []string{"SUMMARY:Toby's 22nd Birthday Party", "DTSTART:20260221T200000Z", "STATUS:CONFIRMED"} {
		if !strings.Contains(out, s) {
			t.Errorf("ics missing %q", s)
		}
	}
}
