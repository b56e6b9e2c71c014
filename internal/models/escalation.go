// ABOUTME: EscalationTicket records one handoff to the human queue
// ABOUTME: Excerpts are stored redacted; status moves open -> resolved|closed outside the pipeline
package models

import (
	"fmt"
	"strings"
	"time"
)

// Escalation reasons produced by the pipeline and the privacy screen
const (
	ReasonClinicalRisk    = "clinical_risk_or_emergency"
	ReasonLowConfidence   = "low_confidence"
	ReasonNonPHI          = "phase1_non_phi_restriction"
	ReasonManualReview    = "manual_review"
	DefaultAssignedQueue  = "frontdesk"
	DefaultTicketPriority = PriorityMedium
)

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
	TicketClosed   TicketStatus = "closed"
)

// Priority of a ticket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority name. Empty input means medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultTicketPriority, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// EscalationTicket is a durable escalation record
type EscalationTicket struct {
	ID                  string       `json:"ticket_id"`
	SessionID           string       `json:"session_id"`
	Channel             Channel      `json:"channel"`
	Priority            Priority     `json:"priority"`
	Reason              string       `json:"reason"`
	ConversationExcerpt string       `json:"conversation_excerpt"`
	AssignedQueue       string       `json:"assigned_queue"`
	Status              TicketStatus `json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	ResolvedAt          *time.Time   `json:"resolved_at,omitempty"`
}
