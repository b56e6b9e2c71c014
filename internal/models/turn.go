// ABOUTME: ConversationTurn is the immutable record of one inbound or outbound message
// ABOUTME: Reference carries retrieval provenance attached to assistant turns
package models

import (
	"errors"
	"strings"
	"time"
)

// Reference is a retrieved snippet with its source
type Reference struct {
	SourceURL string  `json:"source_url"`
	Title     string  `json:"title"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score,omitempty"`
}

// ConversationTurn is one message in a session. Turns are inserted once and never updated.
type ConversationTurn struct {
	ID         int64       `json:"id"`
	SessionID  string      `json:"session_id"`
	Channel    Channel     `json:"channel"`
	Role       Role        `json:"role"`
	Text       string      `json:"text"`
	Intent     Intent      `json:"intent,omitempty"`
	Confidence *float64    `json:"confidence,omitempty"`
	Escalated  bool        `json:"escalated"`
	References []Reference `json:"references,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewUserTurn builds the turn for an inbound message. text should already be redacted.
func NewUserTurn(sessionID string, channel Channel, text string) (*ConversationTurn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id cannot be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("message text cannot be empty")
	}
	return &ConversationTurn{
		SessionID: sessionID,
		Channel:   channel,
		Role:      RoleUser,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewAssistantTurn builds the turn for an outbound reply
func NewAssistantTurn(sessionID string, channel Channel, text string, intent Intent, confidence float64, escalated bool, refs []Reference) *ConversationTurn {
	return &ConversationTurn{
		SessionID:  sessionID,
		Channel:    channel,
		Role:       RoleAssistant,
		Text:       text,
		Intent:     intent,
		Confidence: &confidence,
		Escalated:  escalated,
		References: refs,
		CreatedAt:  time.Now().UTC(),
	}
}
