// Package reply classifies inbound message text as a yes or no answer.
//
// Only short, unambiguous replies are interpreted. Anything else is Unknown
// and leaves the guest list alone, since a "no" removes someone from it.
package reply

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind is the outcome of classifying a reply.
type Kind string

const (
	Yes     Kind = "yes"
	No      Kind = "no"
	Unknown Kind = "unknown"
)

// Recordable reports whether k is an answer worth persisting.
func (k Kind) Recordable() bool {
	return k == Yes || k == No
}

// Patterns are tried in slice order. All affirmative patterns run before any
// negative one.
var (
	affirmative = compile(
		`(?i)^yes$`,
		`(?i)^y$`,
		`(?i)^yeah$`,
		`(?i)^yep$`,
		`(?i)^sure$`,
		`(?i)^ok$`,
		`(?i)^okay$`,
		`(?i)^coming$`,
		`(?i)^will be there$`,
		`(?i)^see you$`,
		`^✅`,
		`^✓`,
		`^✔`,
		`^👍`,
		`(?i)^yes\s*!*$`,
	)

	negative = compile(
		`(?i)^no$`,
		`(?i)^n$`,
		`(?i)^nope$`,
		`(?i)^can't$`,
		`(?i)^cannot$`,
		`(?i)^won't$`,
		`(?i)^not coming$`,
		`(?i)^can't make it$`,
		`(?i)^won't be there$`,
		`^❌`,
		`^👎`,
		`(?i)^no\s*!*$`,
	)
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// apostrophes folds the typographic apostrophes phone keyboards insert.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Clean trims text and applies NFKC so full-width or compatibility
// characters compare like their plain forms.
func Clean(text string) string {
	text = norm.NFKC.String(strings.TrimSpace(text))
	return apostrophes.Replace(text)
}

// Classify maps raw message text to Yes, No or Unknown.
func Classify(text string) Kind {
	text = Clean(text)
	if text == "" {
		return Unknown
	}
	for _, re := range affirmative {
		if re.MatchString(text) {
			return Yes
		}
	}
	for _, re := range negative {
		if re.MatchString(text) {
			return No
		}
	}
	return Unknown
}
