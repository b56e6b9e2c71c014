// ABOUTME: Daily digest of open escalations and new lead captures
// ABOUTME: Covers the trailing 24 hours and lists at most 20 tickets
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/models"
)

const digestTicketLimit = 20

// DigestSource reads the records a digest summarizes
type DigestSource interface {
	OpenTicketsSince(ctx context.Context, since time.Time) ([]models.EscalationTicket, error)
	LeadsSince(ctx context.Context, since time.Time) ([]models.LeadCapture, error)
}

// Digest is the rendered report
type Digest struct {
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Escalations int    `json:"escalations"`
	Leads       int    `json:"leads"`
}

// BuildDigest summarizes the 24 hours before now
func BuildDigest(ctx context.Context, src DigestSource, clinic string, now time.Time) (*Digest, error) {
	since := now.Add(-24 * time.Hour)

	tickets, err := src.OpenTicketsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load open tickets: %w", err)
	}
	leads, err := src.LeadsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}

	lines := []string{
		"Daily digest for " + now.UTC().Format("2006-01-02"),
		"",
		fmt.Sprintf("Open escalations: %d", len(tickets)),
		fmt.Sprintf("New lead captures: %d", len(leads)),
		"",
	}
	for i, t := range tickets {
		if i == digestTicketLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s | session=%s", t.Priority, t.Reason, t.SessionID))
	}

	return &Digest{
		Subject:     strings.TrimSpace(clinic + " Daily Digest"),
		Body:        strings.Join(lines, "\n"),
		Escalations: len(tickets),
		Leads:       len(leads),
	}, nil
}

// Message wraps the digest for delivery through a Notifier
func (d *Digest) Message() Message {
	return Message{Subject: d.Subject, Body: d.Body}
}
