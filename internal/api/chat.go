// ABOUTME: Web chat endpoints: create a session and post a message
// ABOUTME: Unknown sessions map to 404; phone numbers are stored only as hashes
package api

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/storage/sqlite"
)

const maxMessageRunes = 4000

type createSessionRequest struct {
	Channel          string `json:"channel"`
	ConsentToContact bool   `json:"consent_to_contact"`
	PhoneNumber      string `json:"phone_number"`
}

type messageRequest struct {
	SessionID        string `json:"session_id"`
	Channel          string `json:"channel"`
	Text             string `json:"text"`
	ConsentToContact *bool  `json:"consent_to_contact"`
}

// CreateSession opens a conversation
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess := &models.Session{Channel: channel, ConsentToContact: req.ConsentToContact}
	if phone := strings.TrimSpace(req.PhoneNumber); phone != "" {
		sess.PhoneHash = models.HashPhone(phone)
	}
	if err := h.Sessions.Create(r.Context(), sess); err != nil {
		h.internalError(w, r, "create session failed", err)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// PostMessage runs one chat message through the conversation service
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	}
	if n := utf8.RuneCountInString(req.Text); n == 0 || n > maxMessageRunes {
		Error(w, http.StatusUnprocessableEntity, "text must be 1-4000 characters")
		return
	}

	reply, err := h.Conversations.Handle(r.Context(), core.Inbound{
		SessionID: req.SessionID,
		Channel:   channel,
		Text:      req.Text,
		Consent:   req.ConsentToContact,
	})
	if errors.Is(err, sqlite.ErrNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.internalError(w, r, "handle message failed", err)
		return
	}
	JSON(w, http.StatusOK, reply)
}
