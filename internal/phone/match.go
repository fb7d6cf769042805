package phone

import (
	"fmt"
	"strings"
)

// MatchMode selects how two numbers are compared.
type MatchMode string

const (
	// MatchSuffix accepts equal numbers or numbers where one is a suffix of
	// the other. It absorbs country-code and trunk-prefix variation but two
	// attendees whose numbers share a suffix are ambiguous.
	MatchSuffix MatchMode = "suffix"

	// MatchExact requires equal comparison forms.
	MatchExact MatchMode = "exact"
)

// ParseMatchMode maps a config value to a MatchMode. Empty means MatchSuffix.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSuffix:
		return MatchSuffix, nil
	case MatchExact:
		return MatchExact, nil
	default:
		return "", fmt.Errorf("unknown phone match mode %q", s)
	}
}

// Matcher compares phone numbers in their comparison form.
type Matcher struct {
	Mode MatchMode
}

// NewMatcher returns a Matcher for mode.
func NewMatcher(mode MatchMode) Matcher {
	return Matcher{Mode: mode}
}

// Match reports whether a and b refer to the same number.
//
// Both sides are reduced to digits with leading zeros removed, so the "0"
// trunk prefix and "00" international prefix compare equal to the bare
// national number. An empty comparison form never matches.
func (m Matcher) Match(a, b string) bool {
	x, y := comparable(a), comparable(b)
	if x == "" || y == "" {
		return false
	}
	if x == y {
		return true
	}
	if m.Mode == MatchExact {
		return false
	}
	return strings.HasSuffix(x, y) || strings.HasSuffix(y, x)
}

func comparable(s string) string {
	return strings.TrimLeft(Digits(s), "0")
}
