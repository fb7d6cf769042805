package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/attendee"
	"github.com/jredh-dev/partyline/internal/clock"
	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/reply"
	"github.com/jredh-dev/partyline/internal/wasender"
)

// minPhoneLen is the shortest accepted canonical phone, counting the "+".
const minPhoneLen = 10

// Outcome names where a delivery ended up.
type Outcome string

const (
	OutcomeUnrecognized Outcome = "unrecognized_payload"
	OutcomeOwnMessage   Outcome = "ignored_own_message"
	OutcomeInvalidPhone Outcome = "invalid_phone"
	OutcomeNoMessage    Outcome = "missing_message"
	OutcomeUnknownReply Outcome = "unknown_reply"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeLookupFailed Outcome = "lookup_failed"
	OutcomeRecordFailed Outcome = "record_failed"
	OutcomeProcessed    Outcome = "processed"
)

var outcomeMessages = map[Outcome]string{
	OutcomeUnrecognized: "Unrecognized webhook payload",
	OutcomeOwnMessage:   "Outgoing message ignored",
	OutcomeInvalidPhone: "Invalid or missing phone number",
	OutcomeNoMessage:    "Missing message content",
	OutcomeUnknownReply: "Response type not recognized",
	OutcomeNotFound:     "Attendee not found or not approved",
	OutcomeLookupFailed: "Webhook received but attendee lookup failed",
	OutcomeRecordFailed: "Webhook received but database update failed",
	OutcomeProcessed:    "Reply processed successfully",
}

// Result is the acknowledgement body returned to the provider.
type Result struct {
	Outcome          Outcome             `json:"outcome"`
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	Phone            string              `json:"phone,omitempty"`
	ReceivedMessage  string              `json:"receivedMessage,omitempty"`
	Attendee         string              `json:"attendee,omitempty"`
	AttendeeType     models.AttendeeType `json:"attendeeType,omitempty"`
	Response         reply.Kind          `json:"response,omitempty"`
	ConfirmationSent bool                `json:"confirmationSent"`
	Error            string              `json:"error,omitempty"`
}

func result(o Outcome) Result {
	return Result{Outcome: o, Success: o == OutcomeProcessed, Message: outcomeMessages[o]}
}

// Resolver finds the approved attendee for a phone.
type Resolver interface {
	Resolve(ctx context.Context, phone string) (*models.Attendee, error)
}

// Recorder stores a classified reply.
type Recorder interface {
	Record(ctx context.Context, a *models.Attendee, kind reply.Kind, at time.Time, raw string) error
}

// Confirmer acknowledges a reply to the sender.
type Confirmer interface {
	Confirm(ctx context.Context, phone, name string, kind reply.Kind) error
}

// Processor runs one delivery through classify, resolve, record and
// confirm.
//
// Processor never fails a delivery. Every outcome after a successful JSON
// parse, including store errors, is reported in the Result and the HTTP
// layer answers 200. Providers redeliver on non-2xx, and a redelivered
// reply would be classified and confirmed again.
type Processor struct {
	resolver  Resolver
	recorder  Recorder
	confirmer Confirmer
	clock     clock.Clock
	log       zerolog.Logger
}

// NewProcessor returns a Processor. confirmer may be nil to skip
// confirmations; a nil clk uses clock.Real.
func NewProcessor(res Resolver, rec Recorder, confirmer Confirmer, clk clock.Clock, log zerolog.Logger) *Processor {
	if clk == nil {
		clk = clock.Real()
	}
	return &Processor{
		resolver:  res,
		recorder:  rec,
		confirmer: confirmer,
		clock:     clk,
		log:       log.With().Str("component", "webhook").Logger(),
	}
}

// HandleBody parses and processes a raw delivery. The only error is
// ErrMalformed; everything else is an Outcome.
func (p *Processor) HandleBody(ctx context.Context, body []byte) (Inbound, Result, error) {
	in, err := Parse(body)
	if errors.Is(err, ErrMalformed) {
		return in, Result{}, err
	}
	return in, p.Handle(ctx, in, err), nil
}

// Handle processes the output of Parse. It lets callers inspect the
// Inbound, for example to check a body secret, before anything is recorded.
// parseErr must not be ErrMalformed.
func (p *Processor) Handle(ctx context.Context, in Inbound, parseErr error) Result {
	if errors.Is(parseErr, ErrUnrecognizedPayload) {
		p.log.Info().Msg("unrecognized payload")
		return result(OutcomeUnrecognized)
	}
	return p.Process(ctx, in)
}

// Process handles one parsed delivery.
func (p *Processor) Process(ctx context.Context, in Inbound) Result {
	log := p.log.With().Str("format", string(in.Format)).Str("event", in.Event).Logger()

	if in.FromMe {
		return result(OutcomeOwnMessage)
	}

	number := in.Phone()
	if len(number) < minPhoneLen {
		log.Info().Str("raw_phone", in.RawPhone).Msg("invalid phone")
		return result(OutcomeInvalidPhone)
	}
	if in.Message == "" {
		r := result(OutcomeNoMessage)
		r.Phone = number
		return r
	}

	kind := reply.Classify(in.Message)
	if !kind.Recordable() {
		log.Info().Str("phone", number).Msg("unrecognized reply")
		r := result(OutcomeUnknownReply)
		r.Phone = number
		r.ReceivedMessage = in.Message
		return r
	}

	a, err := p.resolver.Resolve(ctx, number)
	if errors.Is(err, attendee.ErrNotFound) {
		log.Info().Str("phone", number).Msg("no approved attendee")
		r := result(OutcomeNotFound)
		r.Phone = number
		r.Response = kind
		return r
	}
	if err != nil {
		log.Error().Err(err).Msg("attendee lookup failed")
		r := result(OutcomeLookupFailed)
		r.Phone = number
		r.Response = kind
		r.Error = err.Error()
		return r
	}

	r := result(OutcomeProcessed)
	r.Phone = number
	r.Attendee = a.Name
	r.AttendeeType = a.Type
	r.Response = kind

	if err := p.recorder.Record(ctx, a, kind, p.clock.Now().UTC(), in.Message); err != nil {
		log.Error().Err(err).Str("type", string(a.Type)).Str("id", a.ID).Msg("record reply failed")
		failed := result(OutcomeRecordFailed)
		failed.Phone, failed.Attendee, failed.AttendeeType, failed.Response = r.Phone, r.Attendee, r.AttendeeType, r.Response
		failed.Error = err.Error()
		return failed
	}
	log.Info().Str("type", string(a.Type)).Str("id", a.ID).Str("reply", string(kind)).Msg("reply recorded")

	// Confirmation is best-effort and never changes the outcome.
	if p.confirmer != nil {
		err := p.confirmer.Confirm(ctx, number, a.Name, kind)
		switch {
		case err == nil:
			r.ConfirmationSent = true
		case errors.Is(err, wasender.ErrNotConfigured):
			log.Debug().Msg("messaging not configured, confirmation skipped")
		default:
			log.Warn().Err(err).Msg("confirmation failed")
		}
	}

	return r
}
