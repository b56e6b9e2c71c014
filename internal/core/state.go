// ABOUTME: Pipeline states, per-run state and the result returned to callers
// ABOUTME: PipelineState is copied by value between steps and never persisted
package core

import (
	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
)

// State is one node of the decision pipeline
type State int

const (
	StateDeterministic State = iota
	StateIntent
	StateRetrieve
	StateDraft
	StateGuardrail
	StateEscalate
	StateFinalize
	StateDone
)

var stateNames = [...]string{
	StateDeterministic: "deterministic",
	StateIntent:        "intent",
	StateRetrieve:      "retrieve",
	StateDraft:         "draft",
	StateGuardrail:     "guardrail",
	StateEscalate:      "escalate",
	StateFinalize:      "finalize",
	StateDone:          "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// PipelineState is the working state of one run
type PipelineState struct {
	Query     string
	Channel   models.Channel
	SessionID string

	Intent        models.Intent
	Confidence    float64
	HasConfidence bool

	DeterministicResponse string
	References            []models.Reference
	ResponseText          string
	Escalated             bool
	EscalationReason      string
	TicketID              string
}

func (p *PipelineState) setConfidence(c float64) {
	p.Confidence = llm.ClampConfidence(c)
	p.HasConfidence = true
}

// Result is the outcome of one pipeline run
type Result struct {
	Intent           models.Intent      `json:"intent"`
	Confidence       float64            `json:"confidence"`
	ResponseText     string             `json:"response_text"`
	Escalated        bool               `json:"escalated"`
	EscalationReason string             `json:"escalation_reason,omitempty"`
	TicketID         string             `json:"ticket_id,omitempty"`
	References       []models.Reference `json:"references"`
	Trace            []State            `json:"-"`
}

// TraceNames renders the visited states for logs and API responses
func (r Result) TraceNames() []string {
	names := make([]string, len(r.Trace))
	for i, s := range r.Trace {
		names[i] = s.String()
	}
	return names
}
