// ABOUTME: Notification message built from a persisted escalation ticket
// ABOUTME: Excerpts are omitted unless enabled, and then redacted again and truncated
package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
)

// ExcerptOmitted replaces the excerpt in outbound notifications by default
const ExcerptOmitted = "Excerpt omitted by policy."

// MessageOptions controls how much conversation text leaves the system
type MessageOptions struct {
	IncludeExcerpt  bool
	ExcerptMaxChars int
}

// Message is one outbound notification
type Message struct {
	Subject string
	Body    string
	Ticket  *models.EscalationTicket
	// Excerpt is the redacted, truncated excerpt, empty when omitted
	Excerpt string
}

// Notifier delivers a message to a human channel
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// BuildMessage renders the notification for a ticket
func BuildMessage(t *models.EscalationTicket, opts MessageOptions) Message {
	lines := []string{
		"Ticket: " + t.ID,
		"Session: " + t.SessionID,
		"Channel: " + string(t.Channel),
		"Priority: " + string(t.Priority),
		"Reason: " + t.Reason,
		"",
	}

	msg := Message{
		Subject: fmt.Sprintf("[Escalation] %s - %s", strings.ToUpper(string(t.Priority)), t.Reason),
		Ticket:  t,
	}

	if !opts.IncludeExcerpt {
		lines = append(lines, ExcerptOmitted)
	} else {
		limit := opts.ExcerptMaxChars
		if limit < 1 {
			limit = 1
		}
		excerpt := []rune(privacy.RedactText(t.ConversationExcerpt))
		if len(excerpt) > limit {
			excerpt = excerpt[:limit]
		}
		msg.Excerpt = string(excerpt)
		lines = append(lines, "Excerpt (redacted):", msg.Excerpt)
	}

	msg.Body = strings.Join(lines, "\n")
	return msg
}

// Multi fans a message out to every notifier and joins their errors
type Multi []Notifier

// Notify attempts every notifier even when one fails
func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
