// Package ical renders RFC 5545 iCalendar documents.
package ical

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Event holds the data needed to render a VEVENT component.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
	Status      string // TENTATIVE, CONFIRMED, CANCELLED
	Sequence    int
	Stamp       time.Time

	// Reminder, when positive, adds a display alarm this long before Start.
	Reminder time.Duration
}

// Calendar holds metadata for the VCALENDAR wrapper.
type Calendar struct {
	Name   string
	ProdID string
	TTL    time.Duration // suggested refresh interval
}

// Generate produces a complete iCalendar document.
func Generate(cal Calendar, events []Event) string {
	var b strings.Builder

	prodID := cal.ProdID
	if prodID == "" {
		prodID = "-//jredh-dev//partyline//EN"
	}

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	writeProp(&b, "PRODID", prodID)
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")

	if cal.Name != "" {
		writeProp(&b, "X-WR-CALNAME", escapeText(cal.Name))
	}
	if cal.TTL > 0 {
		dur := formatDuration(cal.TTL)
		writeProp(&b, "REFRESH-INTERVAL;VALUE=DURATION", dur)
		writeProp(&b, "X-PUBLISHED-TTL", dur)
	}

	for _, e := range events {
		writeEvent(&b, e)
	}

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func writeEvent(b *strings.Builder, e Event) {
	b.WriteString("BEGIN:VEVENT\r\n")
	writeProp(b, "UID", e.UID)
	writeProp(b, "DTSTAMP", FormatDateTime(e.Stamp))
	writeProp(b, "DTSTART", FormatDateTime(e.Start))
	if !e.End.IsZero() {
		writeProp(b, "DTEND", FormatDateTime(e.End))
	}
	writeProp(b, "SUMMARY", escapeText(e.Summary))

	if e.Description != "" {
		writeProp(b, "DESCRIPTION", escapeText(e.Description))
	}
	if e.Location != "" {
		writeProp(b, "LOCATION", escapeText(e.Location))
	}
	if e.URL != "" {
		writeProp(b, "URL", e.URL)
	}
	if e.Status != "" {
		writeProp(b, "STATUS", e.Status)
	}
	writeProp(b, "SEQUENCE", fmt.Sprint(e.Sequence))

	if e.Reminder > 0 {
		b.WriteString("BEGIN:VALARM\r\n")
		writeProp(b, "TRIGGER", "-"+formatDuration(e.Reminder))
		writeProp(b, "ACTION", "DISPLAY")
		writeProp(b, "DESCRIPTION", escapeText(e.Summary))
		b.WriteString("END:VALARM\r\n")
	}

	b.WriteString("END:VEVENT\r\n")
}

// writeProp folds content lines at 75 octets without splitting a UTF-8
// sequence.
func writeProp(b *strings.Builder, name, value string) {
	line := name + ":" + value
	limit := 75
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines start with a space, which counts.
		limit = 74
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// FormatDateTime renders t as a UTC date-time (20060102T150405Z). The same
// form is accepted by Google Calendar template links.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatDuration converts a Go duration to an iCal DURATION value (e.g. PT1H, PT30M).
func formatDuration(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("P%dD", int(d/(24*time.Hour)))
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 && minutes > 0 {
		return fmt.Sprintf("PT%dH%dM", hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("PT%dH", hours)
	}
	return fmt.Sprintf("PT%dM", minutes)
}

// escapeText escapes special characters per RFC 5545 section 3.3.11.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
