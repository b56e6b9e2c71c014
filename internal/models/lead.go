// ABOUTME: LeadCapture and AuditEntry are the small back-office records
// ABOUTME: Leads exist only for consenting sessions with appointment intent
package models

import "time"

// LeadCapture is a callback request
type LeadCapture struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	Name          string    `json:"name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PreferredTime string    `json:"preferred_time,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Consent       bool      `json:"consent"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditEntry records an administrative action
type AuditEntry struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
