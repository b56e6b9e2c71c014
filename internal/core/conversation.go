// ABOUTME: Conversation handles one inbound message end to end
// ABOUTME: Screen, store the redacted user turn, hand off or run the pipeline, store the reply, capture leads
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
)

// SessionStore reads and updates sessions
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	SetConsent(ctx context.Context, id string, consent bool) error
}

// TurnAppender persists conversation turns
type TurnAppender interface {
	Append(ctx context.Context, turn *models.ConversationTurn) error
}

// Runner runs the decision pipeline
type Runner interface {
	Run(ctx context.Context, sessionID string, channel models.Channel, query string) (Result, error)
}

// Inbound is one message from a caller
type Inbound struct {
	SessionID string
	Channel   models.Channel
	Text      string
	// Consent, when set, updates the session before the message is handled
	Consent *bool
}

// Reply is what the caller receives
type Reply struct {
	SessionID  string         `json:"session_id"`
	Channel    models.Channel `json:"channel"`
	Restricted bool           `json:"restricted"`
	Lead       bool           `json:"lead_captured"`
	Result
}

// Conversation wires the privacy screen and persistence around the pipeline
type Conversation struct {
	sessions SessionStore
	turns    TurnAppender
	screener *privacy.Screener
	pipeline Runner
	tickets  TicketWriter
	policies PolicySource
	scribe   *LeadScribe
	logger   *slog.Logger
}

// ConversationDeps are the collaborators of a Conversation
type ConversationDeps struct {
	Sessions SessionStore
	Turns    TurnAppender
	Leads    LeadSaver
	Screener *privacy.Screener
	Pipeline Runner
	Tickets  TicketWriter
	Policies PolicySource
	Logger   *slog.Logger
}

// NewConversation creates a Conversation
func NewConversation(deps ConversationDeps) *Conversation {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		sessions: deps.Sessions,
		turns:    deps.Turns,
		screener: deps.Screener,
		pipeline: deps.Pipeline,
		tickets:  deps.Tickets,
		policies: deps.Policies,
		scribe:   NewLeadScribe(deps.Leads),
		logger:   logger,
	}
}

// Handle processes one inbound message. Unknown sessions return the store's not-found error.
func (c *Conversation) Handle(ctx context.Context, in Inbound) (*Reply, error) {
	sess, err := c.sessions.Get(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", in.SessionID, err)
	}
	if in.Channel == "" {
		in.Channel = sess.Channel
	}
	if in.Consent != nil && *in.Consent != sess.ConsentToContact {
		if err := c.sessions.SetConsent(ctx, sess.ID, *in.Consent); err != nil {
			return nil, fmt.Errorf("update consent: %w", err)
		}
		sess.ConsentToContact = *in.Consent
	}

	screen := c.screener.Screen(in.Text, in.Channel)

	userTurn, err := models.NewUserTurn(sess.ID, in.Channel, screen.RedactedText)
	if err != nil {
		return nil, err
	}
	if err := c.turns.Append(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("store user turn: %w", err)
	}

	var result Result
	if screen.Restricted {
		result, err = c.handoff(ctx, sess.ID, in.Channel, screen)
	} else {
		result, err = c.pipeline.Run(ctx, sess.ID, in.Channel, screen.RedactedText)
	}
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		SessionID:  sess.ID,
		Channel:    in.Channel,
		Restricted: screen.Restricted,
		Result:     result,
	}

	assistantTurn := models.NewAssistantTurn(sess.ID, in.Channel, result.ResponseText,
		result.Intent, result.Confidence, result.Escalated, result.References)
	if err := c.turns.Append(ctx, assistantTurn); err != nil {
		return nil, fmt.Errorf("store assistant turn: %w", err)
	}

	lead, err := c.scribe.Capture(ctx, sess, result.Intent, in.Text)
	if err != nil {
		return nil, err
	}
	reply.Lead = lead != nil

	return reply, nil
}

// handoff replaces the pipeline for restricted messages
func (c *Conversation) handoff(ctx context.Context, sessionID string, channel models.Channel, screen privacy.Result) (Result, error) {
	ticket, err := c.tickets.CreateTicket(ctx, escalation.TicketRequest{
		SessionID: sessionID,
		Channel:   channel,
		Reason:    screen.Reason,
		Excerpt:   screen.RedactedText,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create handoff ticket: %w", err)
	}

	intent := models.IntentOtherUnknown
	text := c.screener.HandoffMessage(channel)
	if screen.Reason == models.ReasonClinicalRisk {
		intent = models.IntentClinicalRisk
		text = c.emergencyDisclaimer(ctx) + " " + text
	}

	c.logger.Info("message restricted by privacy screen",
		"session_id", sessionID, "reason", screen.Reason, "signals", screen.Signals, "ticket_id", ticket.ID)

	return Result{
		Intent:           intent,
		Confidence:       1.0,
		ResponseText:     fmt.Sprintf("%s (Ticket %s)", strings.TrimSpace(text), ticket.ID),
		Escalated:        true,
		EscalationReason: screen.Reason,
		TicketID:         ticket.ID,
		References:       []models.Reference{},
	}, nil
}

// emergencyDisclaimer falls back to the built-in wording when policies are unavailable
func (c *Conversation) emergencyDisclaimer(ctx context.Context) string {
	if c.policies == nil {
		return llm.EmergencyDisclaimer(nil)
	}
	policies, err := c.policies.ActivePolicies(ctx)
	if err != nil {
		c.logger.Warn("policy lookup failed; using default disclaimer", "error", err)
	}
	return llm.EmergencyDisclaimer(policies)
}
