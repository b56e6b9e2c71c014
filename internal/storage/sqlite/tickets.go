// ABOUTME: Escalation ticket storage operations for SQLite
// ABOUTME: Tickets are created open; only resolved or closed tickets are eligible for retention
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harper/frontdesk/internal/models"
)

// TicketStore handles escalation ticket persistence
type TicketStore struct {
	db *DB
}

// NewTicketStore creates a new TicketStore
func NewTicketStore(db *DB) *TicketStore {
	return &TicketStore{db: db}
}

// Create inserts a ticket, filling ID, status, queue and timestamp defaults
func (s *TicketStore) Create(ctx context.Context, t *models.EscalationTicket) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.TicketOpen
	}
	if t.Priority == "" {
		t.Priority = models.DefaultTicketPriority
	}
	if t.AssignedQueue == "" {
		t.AssignedQueue = models.DefaultAssignedQueue
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO escalation_tickets
			(id, session_id, channel, priority, reason, conversation_excerpt, assigned_queue, status, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SessionID, string(t.Channel), string(t.Priority), t.Reason, t.ConversationExcerpt,
		t.AssignedQueue, string(t.Status), t.CreatedAt.UnixNano(), nullTime(t.ResolvedAt))
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// Get retrieves a ticket by ID
func (s *TicketStore) Get(ctx context.Context, id string) (*models.EscalationTicket, error) {
	tickets, err := s.list(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	return &tickets[0], nil
}

// ListOpen returns open tickets, oldest first
func (s *TicketStore) ListOpen(ctx context.Context) ([]models.EscalationTicket, error) {
	return s.list(ctx, `WHERE status = 'open'`)
}

// ListOpenSince returns open tickets created at or after since
func (s *TicketStore) ListOpenSince(ctx context.Context, since time.Time) ([]models.EscalationTicket, error) {
	return s.list(ctx, `WHERE status = 'open' AND created_at >= ?`, since.UnixNano())
}

// ListBySession returns a session's tickets, oldest first
func (s *TicketStore) ListBySession(ctx context.Context, sessionID string) ([]models.EscalationTicket, error) {
	return s.list(ctx, `WHERE session_id = ?`, sessionID)
}

// SetStatus moves a ticket to status. Resolved and closed tickets get a resolution time.
func (s *TicketStore) SetStatus(ctx context.Context, id string, status models.TicketStatus) error {
	var resolvedAt sql.NullInt64
	if status != models.TicketOpen {
		resolvedAt = sql.NullInt64{Int64: time.Now().UTC().UnixNano(), Valid: true}
	}

	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE escalation_tickets SET status = ?, resolved_at = ? WHERE id = ?`,
		string(status), resolvedAt, id)
	if err != nil {
		return fmt.Errorf("update ticket %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpen returns the number of open tickets
func (s *TicketStore) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM escalation_tickets WHERE status = 'open'`).Scan(&n)
	return n, err
}

// CountClosedBefore counts resolved or closed tickets created before cutoff
func (s *TicketStore) CountClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM escalation_tickets
		WHERE created_at < ? AND status IN ('resolved', 'closed')
	`, cutoff.UnixNano()).Scan(&n)
	return n, err
}

// DeleteClosedBefore removes resolved or closed tickets created before cutoff
func (s *TicketStore) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, `
		DELETE FROM escalation_tickets
		WHERE created_at < ? AND status IN ('resolved', 'closed')
	`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete tickets: %w", err)
	}
	return res.RowsAffected()
}

func (s *TicketStore) list(ctx context.Context, where string, args ...any) ([]models.EscalationTicket, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, session_id, channel, priority, reason, conversation_excerpt,
			assigned_queue, status, created_at, resolved_at
		FROM escalation_tickets
		`+where+`
		ORDER BY created_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tickets []models.EscalationTicket
	for rows.Next() {
		var (
			t          models.EscalationTicket
			channel    string
			priority   string
			status     string
			createdAt  int64
			resolvedAt sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &channel, &priority, &t.Reason, &t.ConversationExcerpt,
			&t.AssignedQueue, &status, &createdAt, &resolvedAt); err != nil {
			return nil, err
		}
		t.Channel = models.Channel(channel)
		t.Priority = models.Priority(priority)
		t.Status = models.TicketStatus(status)
		t.CreatedAt = fromNanos(createdAt)
		t.ResolvedAt = fromNullNanos(resolvedAt)
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}
