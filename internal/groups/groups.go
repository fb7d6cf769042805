// Package groups creates the party's WhatsApp group and fills it.
package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/clock"
	"github.com/jredh-dev/partyline/internal/phone"
)

const (
	// BatchSize is how many participants are added per request.
	BatchSize = 5

	// BatchPause separates consecutive add requests.
	BatchPause = time.Second
)

// ErrNoParticipants is returned when a request names nobody.
var ErrNoParticipants = errors.New("at least one participant is required")

// API is the subset of the messaging gateway used for groups.
type API interface {
	CreateGroup(ctx context.Context, name string, participants []string) (string, error)
	AddParticipants(ctx context.Context, groupJID string, participants []string) error
}

// Participant is a person to put in the group.
type Participant struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Request describes one group operation. With GroupJID set, everyone is
// added to that existing group instead of creating a new one.
type Request struct {
	Name         string        `json:"groupName"`
	GroupJID     string        `json:"groupJid,omitempty"`
	Participants []Participant `json:"participants"`
}

// BatchResult is the outcome of one add request.
type BatchResult struct {
	Batch   int    `json:"batch"`
	Size    int    `json:"size"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result summarises a group operation.
type Result struct {
	GroupName         string        `json:"groupName"`
	GroupID           string        `json:"groupId"`
	Created           bool          `json:"created"`
	TotalParticipants int           `json:"totalParticipants"`
	Batches           []BatchResult `json:"batches"`
}

// Builder runs group operations.
type Builder struct {
	api         API
	clock       clock.Clock
	defaultName string
	log         zerolog.Logger
}

// NewBuilder returns a Builder. A nil clk uses clock.Real.
func NewBuilder(api API, clk clock.Clock, defaultName string, log zerolog.Logger) *Builder {
	if clk == nil {
		clk = clock.Real()
	}
	return &Builder{
		api:         api,
		clock:       clk,
		defaultName: defaultName,
		log:         log.With().Str("component", "groups").Logger(),
	}
}

// InvalidPhoneError reports a participant whose number is too short to be
// a WhatsApp account.
type InvalidPhoneError struct {
	Participant Participant
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("invalid phone number %q (name: %s)", e.Participant.Phone, e.Participant.Name)
}

// JIDs converts participants to WhatsApp JIDs. Numbers with fewer than ten
// digits are rejected.
func JIDs(ps []Participant) ([]string, error) {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		if len(phone.Digits(p.Phone)) < 10 {
			return nil, &InvalidPhoneError{Participant: p}
		}
		out = append(out, phone.JID(p.Phone))
	}
	return out, nil
}

// Batches splits jids into chunks of at most size.
func Batches(jids []string, size int) [][]string {
	var out [][]string
	for len(jids) > 0 {
		n := min(size, len(jids))
		out = append(out, jids[:n])
		jids = jids[n:]
	}
	return out
}

// Build creates the group with the first participant and then adds the
// rest in batches. Failed batches are reported, not fatal: the group exists
// and earlier batches may have landed.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	if len(req.Participants) == 0 {
		return nil, ErrNoParticipants
	}
	jids, err := JIDs(req.Participants)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = b.defaultName
	}
	res := &Result{
		GroupName:         name,
		GroupID:           req.GroupJID,
		TotalParticipants: len(jids),
		Batches:           []BatchResult{},
	}

	rest := jids
	if res.GroupID == "" {
		id, err := b.api.CreateGroup(ctx, name, jids[:1])
		if err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		res.GroupID = id
		res.Created = true
		rest = jids[1:]
		b.log.Info().Str("group", id).Msg("group created")
	}

	batches := Batches(rest, BatchSize)
	for i, batch := range batches {
		br := BatchResult{Batch: i + 1, Size: len(batch), Success: true}
		if err := b.api.AddParticipants(ctx, res.GroupID, batch); err != nil {
			br.Success = false
			br.Error = err.Error()
			b.log.Warn().Err(err).Int("batch", br.Batch).Msg("add participants failed")
		}
		res.Batches = append(res.Batches, br)

		if i < len(batches)-1 {
			if err := clock.Sleep(ctx, b.clock, BatchPause); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
