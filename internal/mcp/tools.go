// ABOUTME: MCP tool definitions and registration for the front-desk server
// ABOUTME: Exposes the conversation pipeline, policies, knowledge search and the open queue to agents
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, deps Deps) *Handlers {
	handlers := NewHandlers(deps)

	// 1. ask_clinic - run a message through the full front-desk pipeline
	server.AddTool(mcp.Tool{
		Name:        "ask_clinic",
		Description: "Ask the clinic front desk a question. Runs the privacy screen, policy answers, retrieval and escalation rules. Creates a session when none is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Caller message",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Existing session to continue (optional)",
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"description": "web, sms or voice (default: web)",
					"enum":        []string{"web", "sms", "voice"},
				},
			},
			Required: []string{"message"},
		},
	}, handlers.AskClinic)

	// 2. get_policies - current policy values
	server.AddTool(mcp.Tool{
		Name:        "get_policies",
		Description: "Get the clinic's active policy values such as business hours, phone and address.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetPolicies)

	// 3. search_knowledge - approved knowledge base search
	server.AddTool(mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search approved clinic knowledge and return ranked references.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of references to return (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchKnowledge)

	// 4. list_open_escalations - the human queue
	server.AddTool(mcp.Tool{
		Name:        "list_open_escalations",
		Description: "List open escalation tickets waiting for the front desk. Excerpts are redacted.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListOpenEscalations)

	return handlers
}
