package webhook

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// secretHeaders are checked in order; the first non-empty one wins.
var secretHeaders = []string{
	"X-Webhook-Secret",
	"X-Wasender-Secret",
	"Webhook-Secret",
	"X-Secret",
	"Authorization",
	"X-Api-Key",
}

// SecretCheck is the outcome of comparing a delivery's secret.
type SecretCheck int

const (
	// SecretDisabled means no secret is configured.
	SecretDisabled SecretCheck = iota
	// SecretMissing means the delivery carried no secret.
	SecretMissing
	SecretValid
	SecretInvalid
)

func (c SecretCheck) String() string {
	switch c {
	case SecretDisabled:
		return "disabled"
	case SecretMissing:
		return "missing"
	case SecretValid:
		return "valid"
	case SecretInvalid:
		return "invalid"
	}
	return "unknown"
}

// Verifier checks the shared secret on webhook deliveries.
type Verifier struct {
	Secret string

	// Enforce rejects deliveries whose secret is missing or wrong. When
	// false the result is only logged.
	Enforce bool
}

// Check compares the secret from the request headers, falling back to the
// one carried in the body.
func (v Verifier) Check(r *http.Request, bodySecret string) SecretCheck {
	if v.Secret == "" {
		return SecretDisabled
	}

	got := ""
	for _, h := range secretHeaders {
		val := strings.TrimSpace(r.Header.Get(h))
		if h == "Authorization" {
			val = strings.TrimSpace(strings.TrimPrefix(val, "Bearer "))
		}
		if val != "" {
			got = val
			break
		}
	}
	if got == "" {
		got = bodySecret
	}
	if got == "" {
		return SecretMissing
	}

	if subtle.ConstantTimeCompare([]byte(got), []byte(v.Secret)) == 1 {
		return SecretValid
	}
	return SecretInvalid
}

// Allowed reports whether a delivery with result c may be processed.
func (v Verifier) Allowed(c SecretCheck) bool {
	if !v.Enforce {
		return true
	}
	return c == SecretDisabled || c == SecretValid
}
