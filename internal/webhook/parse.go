// Package webhook turns inbound WhatsApp webhook deliveries into recorded
// replies.
//
// Two payload shapes are accepted. The provider-native shape nests the
// message under data.messages; the flat shape carries the sender and text
// as top-level fields. Parse tries them in that order and says which one
// matched.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jredh-dev/partyline/internal/phone"
)

var (
	// ErrMalformed means the body is not valid JSON.
	ErrMalformed = errors.New("malformed webhook body")

	// ErrUnrecognizedPayload means the JSON matches neither payload shape.
	ErrUnrecognizedPayload = errors.New("unrecognized webhook payload")
)

// Format names the payload shape an Inbound was parsed from.
type Format string

const (
	FormatProvider Format = "provider"
	FormatFlat     Format = "flat"
)

// Inbound is one received message. It is never persisted on its own.
type Inbound struct {
	Format   Format
	Event    string
	RawPhone string
	Message  string // trimmed
	FromMe   bool
	PushName string

	// Secret is a shared secret carried in the body, if any.
	Secret string
}

// Phone is the sender in canonical +<digits> form.
func (in Inbound) Phone() string {
	return phone.Normalize(in.RawPhone)
}

type providerKey struct {
	CleanedSenderPn string `json:"cleanedSenderPn"`
	SenderPn        string `json:"senderPn"`
	RemoteJid       string `json:"remoteJid"`
	FromMe          bool   `json:"fromMe"`
}

type providerMessage struct {
	Key         providerKey `json:"key"`
	MessageBody string      `json:"messageBody"`
	PushName    string      `json:"pushName"`
	Message     *struct {
		Conversation string `json:"conversation"`
		Text         string `json:"text"`
	} `json:"message"`
}

type envelope struct {
	Event         string          `json:"event"`
	Secret        string          `json:"secret"`
	WebhookSecret string          `json:"webhook_secret"`
	SecretCamel   string          `json:"webhookSecret"`
	Data          json.RawMessage `json:"data"`
}

// messages returns data.messages when data is an object carrying it.
func (e envelope) messages() json.RawMessage {
	if len(e.Data) == 0 {
		return nil
	}
	var data struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil || isNull(data.Messages) {
		return nil
	}
	return data.Messages
}

func (e envelope) secret() string {
	return firstNonEmpty(e.Secret, e.WebhookSecret, e.SecretCamel)
}

var (
	flatPhoneKeys   = []string{"from", "phone", "sender", "from_number"}
	flatMessageKeys = []string{"body", "text", "message", "content"}
)

// Parse decodes a webhook body. It returns ErrMalformed for invalid JSON and
// ErrUnrecognizedPayload when neither shape is present. A recognized shape
// with an empty phone or message still parses; the caller decides.
func Parse(body []byte) (Inbound, error) {
	if !json.Valid(body) {
		return Inbound{}, ErrMalformed
	}

	// A mistyped field leaves the rest decoded; a body that is not an
	// object falls through to parseFlat and fails there.
	var env envelope
	_ = json.Unmarshal(body, &env)

	if msgs := env.messages(); len(msgs) > 0 {
		if in, ok := parseProvider(msgs); ok {
			in.Event = env.Event
			in.Secret = env.secret()
			return in, nil
		}
	}

	if in, ok := parseFlat(body); ok {
		in.Event = env.Event
		in.Secret = env.secret()
		return in, nil
	}

	return Inbound{}, ErrUnrecognizedPayload
}

// parseProvider accepts data.messages as an object or as a non-empty array,
// in which case the first element is used.
func parseProvider(raw json.RawMessage) (Inbound, bool) {
	var msg providerMessage
	switch bytes.TrimSpace(raw)[0] {
	case '{':
		if err := json.Unmarshal(raw, &msg); err != nil {
			return Inbound{}, false
		}
	case '[':
		var list []providerMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return Inbound{}, false
		}
		msg = list[0]
	default:
		return Inbound{}, false
	}

	text := msg.MessageBody
	if text == "" && msg.Message != nil {
		text = firstNonEmpty(msg.Message.Conversation, msg.Message.Text)
	}

	rawPhone := firstNonEmpty(
		msg.Key.CleanedSenderPn,
		phone.StripJID(msg.Key.SenderPn),
		phone.StripJID(msg.Key.RemoteJid),
	)

	return Inbound{
		Format:   FormatProvider,
		RawPhone: rawPhone,
		Message:  strings.TrimSpace(text),
		FromMe:   msg.Key.FromMe,
		PushName: msg.PushName,
	}, true
}

// parseFlat reads the first string value among the known top-level keys.
// Non-string values are skipped.
func parseFlat(body []byte) (Inbound, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Inbound{}, false
	}

	rawPhone, hasPhone := firstString(fields, flatPhoneKeys)
	text, hasText := firstString(fields, flatMessageKeys)
	if !hasPhone && !hasText {
		return Inbound{}, false
	}

	return Inbound{
		Format:   FormatFlat,
		RawPhone: rawPhone,
		Message:  strings.TrimSpace(text),
	}, true
}

// firstString returns the first non-empty string among keys. The bool
// reports whether any key held a string at all.
func firstString(fields map[string]json.RawMessage, keys []string) (string, bool) {
	found := false
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		found = true
		if s != "" {
			return s, true
		}
	}
	return "", found
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
