// ABOUTME: Orchestrator runs the decision pipeline for one inbound message
// ABOUTME: Explicit state machine: deterministic, intent, retrieve, draft, guardrail, escalate, finalize
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/policy"
	"github.com/harper/frontdesk/internal/privacy"
)

const (
	defaultTopK          = 5
	defaultConfidence    = 0.6
	escalatedNoTextReply = "I have escalated this to our team. " +
		"Please share your best callback number if you'd like follow-up."
)

// PolicySource supplies the active policy snapshot
type PolicySource interface {
	ActivePolicies(ctx context.Context) (map[string]string, error)
}

// Retriever finds approved references for a query
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]models.Reference, error)
}

// TicketWriter persists escalations
type TicketWriter interface {
	CreateTicket(ctx context.Context, req escalation.TicketRequest) (*models.EscalationTicket, error)
}

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Policies   PolicySource
	Retriever  Retriever
	Classifier llm.IntentClassifier
	Drafter    llm.ResponseDrafter
	Tickets    TicketWriter
	Hours      OpenChecker
	Threshold  float64
	TopK       int
	Now        func() time.Time
	Logger     *slog.Logger
}

// Orchestrator holds no per-run state and is safe for concurrent use
type Orchestrator struct {
	deps     Deps
	governor *Governor
}

// NewOrchestrator fills defaults for unset dependencies
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Classifier == nil {
		deps.Classifier = llm.HeuristicClassifier{}
	}
	if deps.Drafter == nil {
		deps.Drafter = llm.TemplateDrafter{}
	}
	if deps.Threshold == 0 {
		deps.Threshold = DefaultConfidenceThreshold
	}
	if deps.TopK <= 0 {
		deps.TopK = defaultTopK
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{
		deps:     deps,
		governor: NewGovernor(deps.Threshold, deps.Hours),
	}
}

// Run decides the reply to one message. The only error it returns is a failure to
// read policies or to persist an escalation ticket.
func (o *Orchestrator) Run(ctx context.Context, sessionID string, channel models.Channel, query string) (Result, error) {
	policies := map[string]string{}
	if o.deps.Policies != nil {
		p, err := o.deps.Policies.ActivePolicies(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load policies: %w", err)
		}
		policies = p
	}

	st := PipelineState{Query: query, Channel: channel, SessionID: sessionID}
	var trace []State

	for cur := StateDeterministic; cur != StateDone; {
		trace = append(trace, cur)
		next, updated, err := o.step(ctx, cur, st, policies)
		if err != nil {
			o.deps.Logger.Error("pipeline failed",
				"session_id", sessionID, "state", cur.String(), "error", err)
			return Result{}, err
		}
		cur, st = next, updated
	}

	res := Result{
		Intent:           st.Intent,
		Confidence:       st.Confidence,
		ResponseText:     st.ResponseText,
		Escalated:        st.Escalated,
		EscalationReason: st.EscalationReason,
		TicketID:         st.TicketID,
		References:       st.References,
		Trace:            trace,
	}

	o.deps.Logger.Info("pipeline complete",
		"session_id", sessionID,
		"channel", channel,
		"trace", res.TraceNames(),
		"intent", res.Intent,
		"confidence", res.Confidence,
		"escalated", res.Escalated,
		"escalation_reason", res.EscalationReason,
		"references", len(res.References))
	return res, nil
}

// step runs one state and returns the next state with the updated copy
func (o *Orchestrator) step(ctx context.Context, cur State, st PipelineState, policies map[string]string) (State, PipelineState, error) {
	switch cur {
	case StateDeterministic:
		// emergencies must reach the guardrail even when they mention hours or a phone number
		if privacy.ContainsEmergencyTerm(st.Query) {
			return StateIntent, st, nil
		}
		if text, ok := policy.DeterministicResponse(privacy.StripPlaceholders(st.Query), policies); ok {
			st.DeterministicResponse = text
			st.ResponseText = text
			st.Intent = models.IntentHoursLocationContact
			st.setConfidence(1.0)
			st.References = []models.Reference{}
			st.Escalated = false
			return StateFinalize, st, nil
		}
		return StateIntent, st, nil

	case StateIntent:
		text := privacy.StripPlaceholders(st.Query)
		c, err := o.deps.Classifier.Classify(ctx, text)
		if err != nil || !c.Intent.Valid() {
			o.deps.Logger.Warn("classifier failed; using keywords", "error", err)
			c, _ = llm.HeuristicClassifier{}.Classify(ctx, text)
		}
		st.Intent = c.Intent
		st.setConfidence(c.Confidence)
		return StateRetrieve, st, nil

	case StateRetrieve:
		st.References = o.retrieve(ctx, st)
		return StateDraft, st, nil

	case StateDraft:
		if st.DeterministicResponse == "" {
			st.ResponseText = o.draft(ctx, st, policies)
		}
		return StateGuardrail, st, nil

	case StateGuardrail:
		st = o.governor.Review(st, policies, o.deps.Now())
		if st.Escalated {
			return StateEscalate, st, nil
		}
		return StateFinalize, st, nil

	case StateEscalate:
		updated, err := o.escalate(ctx, st)
		if err != nil {
			return cur, st, err
		}
		return StateFinalize, updated, nil

	case StateFinalize:
		if st.Intent == "" {
			st.Intent = models.IntentOtherUnknown
		}
		if !st.HasConfidence {
			st.setConfidence(defaultConfidence)
		}
		if st.References == nil {
			st.References = []models.Reference{}
		}
		return StateDone, st, nil
	}
	return StateDone, st, fmt.Errorf("unknown pipeline state %d", cur)
}

func (o *Orchestrator) retrieve(ctx context.Context, st PipelineState) []models.Reference {
	if st.Intent == models.IntentHoursLocationContact || st.Intent == models.IntentClinicalRisk {
		return []models.Reference{}
	}
	if o.deps.Retriever == nil {
		return []models.Reference{}
	}
	refs, err := o.deps.Retriever.Search(ctx, privacy.StripPlaceholders(st.Query), o.deps.TopK)
	if err != nil {
		o.deps.Logger.Warn("retrieval failed; continuing without references", "error", err)
		return []models.Reference{}
	}
	if len(refs) > o.deps.TopK {
		refs = refs[:o.deps.TopK]
	}
	return refs
}

func (o *Orchestrator) draft(ctx context.Context, st PipelineState, policies map[string]string) string {
	req := llm.DraftRequest{
		Query:      st.Query,
		Intent:     st.Intent,
		Channel:    st.Channel,
		References: st.References,
		Policies:   policies,
	}
	text, err := o.deps.Drafter.Draft(ctx, req)
	if err != nil || text == "" {
		o.deps.Logger.Warn("drafter failed; using template", "error", err)
		text, _ = llm.TemplateDrafter{}.Draft(ctx, req)
	}
	return text
}

func (o *Orchestrator) escalate(ctx context.Context, st PipelineState) (PipelineState, error) {
	if o.deps.Tickets == nil {
		return st, fmt.Errorf("escalation required but no ticket writer configured")
	}
	reason := st.EscalationReason
	if reason == "" {
		reason = models.ReasonManualReview
	}

	ticket, err := o.deps.Tickets.CreateTicket(ctx, escalation.TicketRequest{
		SessionID: st.SessionID,
		Channel:   st.Channel,
		Reason:    reason,
		Excerpt:   st.Query,
	})
	if err != nil {
		return st, fmt.Errorf("create escalation ticket: %w", err)
	}

	text := st.ResponseText
	if text == "" {
		text = escalatedNoTextReply
	}
	st.Escalated = true
	st.EscalationReason = reason
	st.TicketID = ticket.ID
	st.ResponseText = fmt.Sprintf("%s (Ticket %s)", text, ticket.ID)
	return st, nil
}
