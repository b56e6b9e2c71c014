// ABOUTME: Escalation sink that persists a ticket and then notifies best-effort
// ABOUTME: Persistence errors are returned; notification errors are logged and dropped
package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
)

// TicketStore persists tickets
type TicketStore interface {
	Create(ctx context.Context, t *models.EscalationTicket) error
}

// TicketRequest describes a handoff to the human queue
type TicketRequest struct {
	SessionID string
	Channel   models.Channel
	Reason    string
	Excerpt   string
	Priority  models.Priority
}

// Sink creates escalation tickets
type Sink struct {
	tickets  TicketStore
	notifier Notifier
	opts     MessageOptions
	logger   *slog.Logger
}

// NewSink creates a sink. notifier may be nil.
func NewSink(tickets TicketStore, notifier Notifier, opts MessageOptions, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{tickets: tickets, notifier: notifier, opts: opts, logger: logger}
}

// CreateTicket redacts the excerpt, persists the ticket and notifies.
// The returned ticket always has its ID set.
func (s *Sink) CreateTicket(ctx context.Context, req TicketRequest) (*models.EscalationTicket, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = models.ReasonManualReview
	}
	priority := req.Priority
	if priority == "" {
		priority = models.DefaultTicketPriority
	}
	channel := req.Channel
	if channel == "" {
		channel = models.ChannelWeb
	}

	ticket := &models.EscalationTicket{
		SessionID:           req.SessionID,
		Channel:             channel,
		Priority:            priority,
		Reason:              reason,
		ConversationExcerpt: privacy.RedactText(req.Excerpt),
		AssignedQueue:       models.DefaultAssignedQueue,
		Status:              models.TicketOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("persist escalation ticket: %w", err)
	}

	s.logger.Info("escalation ticket created",
		"ticket_id", ticket.ID,
		"session_id", ticket.SessionID,
		"reason", ticket.Reason,
		"priority", ticket.Priority)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, BuildMessage(ticket, s.opts)); err != nil {
			s.logger.Warn("escalation notification failed; ticket persisted",
				"ticket_id", ticket.ID, "error", err)
		}
	}
	return ticket, nil
}
