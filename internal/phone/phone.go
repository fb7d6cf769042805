// Package phone canonicalizes free-form phone numbers and compares them.
//
// Numbers arrive in whatever shape a guest typed into the RSVP form or the
// messaging provider put in its webhook ("+31 6 1234 5678", "0612345678",
// "31612345678@s.whatsapp.net"). Normalize produces the "+<digits>" form used
// for display and sending; Digits produces the comparison form.
package phone

import (
	"strings"
	"unicode"
)

// whatsAppServer is the JID server suffix for individual WhatsApp users.
const whatsAppServer = "@s.whatsapp.net"

// Normalize strips every non-digit character and prefixes "+".
// It never fails: malformed input degrades into a short digit string.
// Normalize is idempotent.
func Normalize(s string) string {
	return "+" + Digits(s)
}

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripJID removes a WhatsApp JID server part and device suffix,
// e.g. "31612345678:3@s.whatsapp.net" -> "31612345678".
func StripJID(s string) string {
	if at := strings.IndexByte(s, '@'); at >= 0 {
		s = s[:at]
	}
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		s = s[:colon]
	}
	return s
}

// JID formats a number as an individual WhatsApp JID (digits@s.whatsapp.net).
func JID(s string) string {
	return Digits(s) + whatsAppServer
}

// ValidDutchMobile reports whether s is a Dutch mobile number:
// an optional +31/0031/31 country prefix (or the 0 trunk prefix) followed by
// 6 and eight more digits. Spaces, dashes and parentheses are ignored.
func ValidDutchMobile(s string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)

	for _, prefix := range []string{"+31", "0031", "31", "0"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}

	if len(cleaned) != 9 || cleaned[0] != '6' {
		return false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
