// ABOUTME: Tests for escalation ticket storage
// ABOUTME: Verifies defaults, status transitions and retention queries
package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

func TestTicketCreateDefaults(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	ticket := &models.EscalationTicket{
		SessionID:           "s1",
		Channel:             models.ChannelWeb,
		Reason:              models.ReasonLowConfidence,
		ConversationExcerpt: "question about [REDACTED_EMAIL]",
	}
	if err := store.Tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ticket.ID == "" {
		t.Fatal("Create() should assign an ID")
	}

	got, err := store.Tickets.Get(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != models.TicketOpen {
		t.Errorf("Status = %s, want open", got.Status)
	}
	if got.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium", got.Priority)
	}
	if got.AssignedQueue != "frontdesk" {
		t.Errorf("AssignedQueue = %s, want frontdesk", got.AssignedQueue)
	}
	if got.ConversationExcerpt != ticket.ConversationExcerpt {
		t.Errorf("excerpt = %q", got.ConversationExcerpt)
	}
}

func TestTicketStatusAndRetention(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-400 * 24 * time.Hour)
	tickets := []*models.EscalationTicket{
		{ID: "old-open", SessionID: "s", Channel: models.ChannelWeb, Reason: "r", CreatedAt: old},
		{ID: "old-closed", SessionID: "s", Channel: models.ChannelWeb, Reason: "r", CreatedAt: old},
		{ID: "new-closed", SessionID: "s", Channel: models.ChannelWeb, Reason: "r"},
	}
	for _, tk := range tickets {
		if err := store.Tickets.Create(ctx, tk); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	for _, id := range []string{"old-closed", "new-closed"} {
		if err := store.Tickets.SetStatus(ctx, id, models.TicketClosed); err != nil {
			t.Fatalf("SetStatus(%s) error = %v", id, err)
		}
	}
	if err := store.Tickets.SetStatus(ctx, "nope", models.TicketClosed); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetStatus(nope) error = %v, want ErrNotFound", err)
	}

	closed, _ := store.Tickets.Get(ctx, "old-closed")
	if closed.ResolvedAt == nil {
		t.Error("closed ticket should have ResolvedAt")
	}

	cutoff := time.Now().UTC().Add(-365 * 24 * time.Hour)
	n, err := store.Tickets.CountClosedBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountClosedBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountClosedBefore() = %d, want 1", n)
	}

	deleted, err := store.Tickets.DeleteClosedBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteClosedBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if _, err := store.Tickets.Get(ctx, "old-open"); err != nil {
		t.Errorf("open ticket must survive retention: %v", err)
	}

	open, err := store.Tickets.CountOpen(ctx)
	if err != nil {
		t.Fatalf("CountOpen() error = %v", err)
	}
	if open != 1 {
		t.Errorf("CountOpen() = %d, want 1", open)
	}
}
