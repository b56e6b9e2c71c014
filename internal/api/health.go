// ABOUTME: Health, metrics and direct escalation endpoints
// ABOUTME: Metrics are plain counters read from storage on each request
package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/models"
)

type escalationRequest struct {
	SessionID           string `json:"session_id"`
	Channel             string `json:"channel"`
	Priority            string `json:"priority"`
	Reason              string `json:"reason"`
	ConversationExcerpt string `json:"conversation_excerpt"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok", "app_env": h.Config.AppEnv})
}

// GetMetrics reports the operational counters
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Metrics.Metrics(r.Context())
	if err != nil {
		h.internalError(w, r, "metrics failed", err)
		return
	}
	JSON(w, http.StatusOK, m)
}

// CreateEscalation opens a ticket on behalf of an operator or integration
func (h *Handler) CreateEscalation(w http.ResponseWriter, r *http.Request) {
	var req escalationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	channel, err := models.ParseChannel(req.Channel)
	if err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	reason := strings.TrimSpace(req.Reason)
	switch {
	case req.SessionID == "":
		Error(w, http.StatusUnprocessableEntity, "session_id is required")
		return
	case utf8.RuneCountInString(reason) < 2 || utf8.RuneCountInString(reason) > 256:
		Error(w, http.StatusUnprocessableEntity, "reason must be 2-256 characters")
		return
	case strings.TrimSpace(req.ConversationExcerpt) == "":
		Error(w, http.StatusUnprocessableEntity, "conversation_excerpt is required")
		return
	}

	ticket, err := h.Tickets.CreateTicket(r.Context(), escalation.TicketRequest{
		SessionID: req.SessionID,
		Channel:   channel,
		Reason:    reason,
		Excerpt:   req.ConversationExcerpt,
		Priority:  priority,
	})
	if err != nil {
		h.internalError(w, r, "create escalation failed", err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"ticket_id": ticket.ID, "status": string(ticket.Status)})
}
