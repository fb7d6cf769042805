// Package notify composes and sends the party's outbound WhatsApp messages.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jredh-dev/partyline/internal/models"
	"github.com/jredh-dev/partyline/internal/party"
	"github.com/jredh-dev/partyline/internal/reply"
	"github.com/jredh-dev/partyline/internal/wasender"
)

// Notifier sends templated messages through a wasender.Sender.
type Notifier struct {
	sender wasender.Sender
	party  party.Details
	log    zerolog.Logger
}

// New returns a Notifier.
func New(sender wasender.Sender, details party.Details, log zerolog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		party:  details,
		log:    log.With().Str("component", "notify").Logger(),
	}
}

// Confirm acknowledges a recorded yes or no reply.
func (n *Notifier) Confirm(ctx context.Context, phone, name string, kind reply.Kind) error {
	text, err := ConfirmationText(n.party, name, kind)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, phone, text); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	n.log.Info().Str("reply", string(kind)).Msg("confirmation sent")
	return nil
}

// StatusChanged tells an attendee their RSVP was approved or rejected. It
// reports false without sending when the status did not change or is not a
// final decision.
func (n *Notifier) StatusChanged(ctx context.Context, a models.Attendee, old models.ApprovalStatus) (bool, error) {
	if a.Status == old {
		return false, nil
	}
	if a.Status != models.StatusApproved && a.Status != models.StatusRejected {
		return false, nil
	}
	if err := n.sender.Send(ctx, a.Phone, StatusText(a.Name, a.Status)); err != nil {
		return false, fmt.Errorf("send %s notice: %w", a.Status, err)
	}
	n.log.Info().Str("type", string(a.Type)).Str("id", a.ID).Str("status", string(a.Status)).Msg("status notice sent")
	return true, nil
}

// ConfirmationText is the reply acknowledgement for kind.
func ConfirmationText(d party.Details, name string, kind reply.Kind) (string, error) {
	switch kind {
	case reply.Yes:
		return fmt.Sprintf("Great! We've received your confirmation, %s! 🎉\n\nSee you at %s at %s! We're excited to celebrate with you! 🎊",
			name, d.TimeLabel(), d.Venue), nil
	case reply.No:
		return fmt.Sprintf("Thanks for letting us know, %s. We've removed you from the list. We'll miss you, but hope to see you at the next celebration!",
			name), nil
	default:
		return "", fmt.Errorf("no confirmation for reply %q", kind)
	}
}

// StatusText is the approval or rejection notice.
func StatusText(name string, status models.ApprovalStatus) string {
	if status == models.StatusApproved {
		return fmt.Sprintf("🎉 Hello %s! Your RSVP has been approved. We're excited to celebrate with you!", name)
	}
	return fmt.Sprintf("Hello %s, we're sorry to inform you that your RSVP could not be approved at this time. If you have any questions, please contact us.", name)
}

// ReminderText is the party-day reminder, greeting name when given.
func ReminderText(d party.Details, name string) string {
	greeting := "Hi!"
	if name = strings.TrimSpace(name); name != "" {
		greeting = "Hi " + name + "!"
	}

	var b strings.Builder
	b.WriteString("🎉 *Party Reminder - Tonight!* 🎉\n\n")
	fmt.Fprintf(&b, "%s Just a friendly reminder that %s is *TONIGHT* at %s!\n\n", greeting, d.Title, d.TimeLabel())
	fmt.Fprintf(&b, "📍 *Location:* %s\n%s\n\n", d.Venue, d.Address)
	fmt.Fprintf(&b, "🗺️ *Get Directions:*\n%s\n\n", d.DirectionsURL())
	fmt.Fprintf(&b, "⏰ *Time:* %s\n📅 *Date:* %s\n\n", d.TimeLabel(), d.DateLabel())
	b.WriteString("We're excited to celebrate with you! See you there! 🎊\n\n")
	b.WriteString("Reply YES if you're coming, or NO if you can't make it.")
	return b.String()
}
