// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: One handle for the service, CLI and tests to share a database
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

// Storage bundles every store over one database
type Storage struct {
	db       *DB
	Sessions *SessionStore
	Turns    *TurnStore
	Policies *PolicyStore
	Chunks   *ChunkStore
	Tickets  *TicketStore
	Leads    *LeadStore
	Audit    *AuditStore
}

// Metrics are the operational counters exposed by the health endpoint
type Metrics struct {
	SessionsTotal     int64 `json:"sessions_total"`
	MessagesTotal     int64 `json:"messages_total"`
	EscalationsOpen   int64 `json:"escalations_open"`
	LeadCapturesTotal int64 `json:"lead_captures_total"`
}

// NewStorage opens the database at path and wires every store
func NewStorage(path string) (*Storage, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:       db,
		Sessions: NewSessionStore(db),
		Turns:    NewTurnStore(db),
		Policies: NewPolicyStore(db),
		Chunks:   NewChunkStore(db),
		Tickets:  NewTicketStore(db),
		Leads:    NewLeadStore(db),
		Audit:    NewAuditStore(db),
	}
}

// DB returns the underlying database
func (s *Storage) DB() *DB {
	return s.db
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Metrics collects the operational counters
func (s *Storage) Metrics(ctx context.Context) (Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.SessionsTotal, err = s.Sessions.Count(ctx); err != nil {
		return m, fmt.Errorf("count sessions: %w", err)
	}
	if m.MessagesTotal, err = s.Turns.Count(ctx); err != nil {
		return m, fmt.Errorf("count turns: %w", err)
	}
	if m.EscalationsOpen, err = s.Tickets.CountOpen(ctx); err != nil {
		return m, fmt.Errorf("count open tickets: %w", err)
	}
	if m.LeadCapturesTotal, err = s.Leads.Count(ctx); err != nil {
		return m, fmt.Errorf("count leads: %w", err)
	}
	return m, nil
}

// OpenTicketsSince feeds the daily digest
func (s *Storage) OpenTicketsSince(ctx context.Context, since time.Time) ([]models.EscalationTicket, error) {
	return s.Tickets.ListOpenSince(ctx, since)
}

// LeadsSince feeds the daily digest
func (s *Storage) LeadsSince(ctx context.Context, since time.Time) ([]models.LeadCapture, error) {
	return s.Leads.ListSince(ctx, since)
}
