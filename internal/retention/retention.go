// ABOUTME: Retention cleanup for old conversation turns and closed escalations
// ABOUTME: Dry runs only count; real runs delete and write a retention_cleanup audit entry
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TurnPurger counts and deletes turns by age
type TurnPurger interface {
	CountBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TicketPurger counts and deletes resolved or closed tickets by age
type TicketPurger interface {
	CountClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRecorder writes audit entries
type AuditRecorder interface {
	Record(ctx context.Context, actor, action string, payload map[string]any) error
}

// Report describes one cleanup run
type Report struct {
	DryRun              bool      `json:"dry_run"`
	MessageCutoff       time.Time `json:"message_cutoff"`
	EscalationCutoff    time.Time `json:"escalation_cutoff"`
	MessagesToDelete    int64     `json:"messages_to_delete"`
	EscalationsToDelete int64     `json:"escalations_to_delete"`
	DeletedMessages     int64     `json:"deleted_messages"`
	DeletedEscalations  int64     `json:"deleted_escalations"`
}

// Service applies the retention windows
type Service struct {
	turns          TurnPurger
	tickets        TicketPurger
	audit          AuditRecorder
	messageDays    int
	escalationDays int
	now            func() time.Time
	logger         *slog.Logger
}

// NewService creates a Service. Windows shorter than one day are raised to one day.
func NewService(turns TurnPurger, tickets TicketPurger, audit AuditRecorder, messageDays, escalationDays int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		turns:          turns,
		tickets:        tickets,
		audit:          audit,
		messageDays:    max(messageDays, 1),
		escalationDays: max(escalationDays, 1),
		now:            time.Now,
		logger:         logger,
	}
}

// Run counts what is past retention and, unless dryRun, deletes it
func (s *Service) Run(ctx context.Context, actor string, dryRun bool) (*Report, error) {
	now := s.now().UTC()
	r := &Report{
		DryRun:           dryRun,
		MessageCutoff:    now.AddDate(0, 0, -s.messageDays),
		EscalationCutoff: now.AddDate(0, 0, -s.escalationDays),
	}

	var err error
	if r.MessagesToDelete, err = s.turns.CountBefore(ctx, r.MessageCutoff); err != nil {
		return nil, fmt.Errorf("count expired turns: %w", err)
	}
	if r.EscalationsToDelete, err = s.tickets.CountClosedBefore(ctx, r.EscalationCutoff); err != nil {
		return nil, fmt.Errorf("count expired tickets: %w", err)
	}

	if dryRun {
		s.logger.Info("retention dry run",
			"messages_to_delete", r.MessagesToDelete, "escalations_to_delete", r.EscalationsToDelete)
		return r, nil
	}

	if r.DeletedMessages, err = s.turns.DeleteBefore(ctx, r.MessageCutoff); err != nil {
		return nil, fmt.Errorf("delete expired turns: %w", err)
	}
	if r.DeletedEscalations, err = s.tickets.DeleteClosedBefore(ctx, r.EscalationCutoff); err != nil {
		return nil, fmt.Errorf("delete expired tickets: %w", err)
	}

	if err := s.audit.Record(ctx, actor, "retention_cleanup", map[string]any{
		"message_cutoff":      r.MessageCutoff.Format(time.RFC3339),
		"escalation_cutoff":   r.EscalationCutoff.Format(time.RFC3339),
		"deleted_messages":    r.DeletedMessages,
		"deleted_escalations": r.DeletedEscalations,
	}); err != nil {
		return nil, fmt.Errorf("audit retention run: %w", err)
	}

	s.logger.Info("retention cleanup complete",
		"deleted_messages", r.DeletedMessages, "deleted_escalations", r.DeletedEscalations)
	return r, nil
}
