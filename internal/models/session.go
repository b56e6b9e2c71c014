// ABOUTME: Session groups the turns of one conversation
// ABOUTME: SMS sessions are keyed by a hash of the caller's number, never the number itself
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is a conversation container
type Session struct {
	ID               string    `json:"session_id"`
	Channel          Channel   `json:"channel"`
	ConsentToContact bool      `json:"consent_to_contact"`
	PhoneHash        string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

// HashPhone returns the hex sha256 of a phone number
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])
}
