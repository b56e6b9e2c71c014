// ABOUTME: MCP tool handler implementations for the front-desk server
// ABOUTME: Tool failures are reported as tool errors; the server itself never fails a call
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/frontdesk/internal/core"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultMaxResults = 5

// Conversations handles inbound messages
type Conversations interface {
	Handle(ctx context.Context, in core.Inbound) (*core.Reply, error)
}

// SessionCreator opens sessions for agents that do not bring one
type SessionCreator interface {
	Create(ctx context.Context, sess *models.Session) error
}

// OpenTickets lists the open queue
type OpenTickets interface {
	ListOpen(ctx context.Context) ([]models.EscalationTicket, error)
}

// Deps are the collaborators of the MCP handlers
type Deps struct {
	Conversations Conversations
	Sessions      SessionCreator
	Policies      core.PolicySource
	Retriever     core.Retriever
	Tickets       OpenTickets
	Logger        *slog.Logger
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	deps   Deps
	logger *slog.Logger
}

// NewHandlers creates Handlers
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{deps: deps, logger: logger}
}

// AskClinic handles the ask_clinic tool
func (h *Handlers) AskClinic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message argument is required and must be a string"), nil
	}
	channel, err := models.ParseChannel(request.GetString("channel", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sess := &models.Session{Channel: channel}
		if err := h.deps.Sessions.Create(ctx, sess); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create session: %v", err)), nil
		}
		sessionID = sess.ID
	}

	reply, err := h.deps.Conversations.Handle(ctx, core.Inbound{
		SessionID: sessionID,
		Channel:   channel,
		Text:      message,
	})
	if err != nil {
		h.logger.Error("ask_clinic failed", "session_id", sessionID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("conversation failed: %v", err)), nil
	}
	return jsonResult(reply)
}

// GetPolicies handles the get_policies tool
func (h *Handlers) GetPolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policies, err := h.deps.Policies.ActivePolicies(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load policies: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"policies": policies})
}

// SearchKnowledge handles the search_knowledge tool
func (h *Handlers) SearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", defaultMaxResults)
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	// the vector path sends the query to the embedding API
	refs, err := h.deps.Retriever.Search(ctx, privacy.StripPlaceholders(privacy.RedactText(query)), maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("knowledge search failed: %v", err)), nil
	}
	if refs == nil {
		refs = []models.Reference{}
	}
	return jsonResult(map[string]interface{}{"references": refs})
}

// ListOpenEscalations handles the list_open_escalations tool
func (h *Handlers) ListOpenEscalations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tickets, err := h.deps.Tickets.ListOpen(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list escalations: %v", err)), nil
	}
	if tickets == nil {
		tickets = []models.EscalationTicket{}
	}
	return jsonResult(map[string]interface{}{"escalations": tickets})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
