// ABOUTME: Tests for the decision pipeline and the guardrail precedence
// ABOUTME: Collaborators are fakes so each state can be observed in isolation
package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/harper/frontdesk/internal/escalation"
	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
)

type fakePolicies struct {
	values map[string]string
	err    error
}

func (f fakePolicies) ActivePolicies(ctx context.Context) (map[string]string, error) {
	return f.values, f.err
}

type fakeRetriever struct {
	refs  []models.Reference
	err   error
	calls int
}

func (f *fakeRetriever) Search(ctx context.Context, query string, topK int) ([]models.Reference, error) {
	f.calls++
	return f.refs, f.err
}

type fakeClassifier struct {
	result llm.Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (llm.Classification, error) {
	f.calls++
	return f.result, f.err
}

type fakeDrafter struct {
	text  string
	err   error
	calls int
}

func (f *fakeDrafter) Draft(ctx context.Context, req llm.DraftRequest) (string, error) {
	f.calls++
	if req.Intent == models.IntentClinicalRisk {
		return llm.EmergencyDisclaimer(req.Policies), nil
	}
	return f.text, f.err
}

type fakeTickets struct {
	requests []escalation.TicketRequest
	err      error
}

func (f *fakeTickets) CreateTicket(ctx context.Context, req escalation.TicketRequest) (*models.EscalationTicket, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &models.EscalationTicket{ID: fmt.Sprintf("t-%d", len(f.requests)), Reason: req.Reason}, nil
}

type fixedHours bool

func (h fixedHours) IsOpenNow(time.Time) bool { return bool(h) }

var testPolicies = map[string]string{
	models.PolicyBusinessHours:       "Monday-Friday 9:00 AM-4:00 PM ET.",
	models.PolicyPhone:               "(864) 770-8822",
	models.PolicyAddress:             "25 Woods Lake Rd",
	models.PolicyEmergencyDisclaimer: "Call 911 or seek immediate care.",
}

type harness struct {
	retriever  *fakeRetriever
	classifier *fakeClassifier
	drafter    *fakeDrafter
	tickets    *fakeTickets
	orch       *Orchestrator
}

func newHarness(intent models.Intent, confidence float64, refs []models.Reference, open bool) *harness {
	h := &harness{
		retriever:  &fakeRetriever{refs: refs},
		classifier: &fakeClassifier{result: llm.Classification{Intent: intent, Confidence: confidence}},
		drafter:    &fakeDrafter{text: "Drafted answer."},
		tickets:    &fakeTickets{},
	}
	h.orch = NewOrchestrator(Deps{
		Policies:   fakePolicies{values: testPolicies},
		Retriever:  h.retriever,
		Classifier: h.classifier,
		Drafter:    h.drafter,
		Tickets:    h.tickets,
		Hours:      fixedHours(open),
	})
	return h
}

var someRefs = []models.Reference{{SourceURL: "https://clinic.example", Title: "Faq", Snippet: "text", Score: 0.5}}

func TestEmergencyOverride(t *testing.T) {
	queries := []string{
		"I have chest pain",
		"I CAN'T BREATHE",
		"severe dizziness, are you open today?",
		"had a stroke, please call me",
	}
	for _, q := range queries {
		for _, ch := range []models.Channel{models.ChannelWeb, models.ChannelSMS, models.ChannelVoice} {
			t.Run(q+"/"+string(ch), func(t *testing.T) {
				h := newHarness(models.IntentBillingAdmin, 0.99, someRefs, true)
				res, err := h.orch.Run(context.Background(), "s1", ch, q)
				if err != nil {
					t.Fatalf("Run() error = %v", err)
				}
				if !res.Escalated || res.EscalationReason != models.ReasonClinicalRisk {
					t.Errorf("escalated=%v reason=%q, want clinical escalation", res.Escalated, res.EscalationReason)
				}
				if res.Intent != models.IntentClinicalRisk || res.Confidence != 1.0 {
					t.Errorf("intent=%s confidence=%v", res.Intent, res.Confidence)
				}
				want := testPolicies[models.PolicyEmergencyDisclaimer] + " (Ticket t-1)"
				if res.ResponseText != want {
					t.Errorf("ResponseText = %q, want %q", res.ResponseText, want)
				}
			})
		}
	}
}

func TestNoEvidenceEscalates(t *testing.T) {
	for _, intent := range []models.Intent{
		models.IntentServicesInfo,
		models.IntentInsuranceFinancing,
		models.IntentDeviceSupport,
		models.IntentBillingAdmin,
		models.IntentOtherUnknown,
	} {
		t.Run(string(intent), func(t *testing.T) {
			h := newHarness(intent, 0.95, nil, true)
			res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "tell me something")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !res.Escalated || res.EscalationReason != models.ReasonLowConfidence {
				t.Errorf("escalated=%v reason=%q, want low_confidence", res.Escalated, res.EscalationReason)
			}
			if res.ResponseText != noEvidenceReply+" (Ticket t-1)" {
				t.Errorf("ResponseText = %q", res.ResponseText)
			}
		})
	}
}

func TestEvidenceExemptIntents(t *testing.T) {
	h := newHarness(models.IntentAppointmentRequest, 0.9, nil, true)
	res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "I want to book a visit")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Escalated {
		t.Errorf("appointment without references should not escalate: %+v", res)
	}

	h = newHarness(models.IntentClinicalRisk, 0.9, someRefs, true)
	res, err = h.orch.Run(context.Background(), "s1", models.ChannelWeb, "worried about my ears")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.retriever.calls != 0 {
		t.Error("retrieval should be skipped for clinical intent")
	}
	if res.Escalated || res.ResponseText != testPolicies[models.PolicyEmergencyDisclaimer] {
		t.Errorf("clinical without emergency term = %+v", res)
	}
}

func TestLowConfidenceKeepsDraft(t *testing.T) {
	h := newHarness(models.IntentServicesInfo, 0.3, someRefs, true)
	res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "do you do tests")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Escalated || res.EscalationReason != models.ReasonLowConfidence {
		t.Errorf("escalated=%v reason=%q", res.Escalated, res.EscalationReason)
	}
	if res.ResponseText != "Drafted answer. (Ticket t-1)" {
		t.Errorf("ResponseText = %q", res.ResponseText)
	}
	if len(h.tickets.requests) != 1 || h.tickets.requests[0].Excerpt != "do you do tests" {
		t.Errorf("ticket requests = %+v", h.tickets.requests)
	}
}

func TestClassifierConfidenceIsClamped(t *testing.T) {
	for _, tc := range []struct {
		confidence float64
		want       float64
		escalated  bool
	}{
		{confidence: 1.7, want: 1, escalated: false},
		{confidence: -0.4, want: 0, escalated: true},
	} {
		h := newHarness(models.IntentServicesInfo, tc.confidence, someRefs, true)
		res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "do you do tests")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Confidence != tc.want {
			t.Errorf("confidence %v: got %v, want %v", tc.confidence, res.Confidence, tc.want)
		}
		if res.Escalated != tc.escalated {
			t.Errorf("confidence %v: escalated = %v, want %v", tc.confidence, res.Escalated, tc.escalated)
		}
	}
}

func TestAfterHoursAnnotation(t *testing.T) {
	h := newHarness(models.IntentServicesInfo, 0.9, someRefs, false)
	res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "do you do tests")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Escalated {
		t.Fatalf("should not escalate: %+v", res)
	}
	if res.ResponseText != "Drafted answer."+afterHoursHint {
		t.Errorf("ResponseText = %q", res.ResponseText)
	}

	h = newHarness(models.IntentServicesInfo, 0.9, someRefs, true)
	res, _ = h.orch.Run(context.Background(), "s1", models.ChannelWeb, "do you do tests")
	if res.ResponseText != "Drafted answer." {
		t.Errorf("open-hours ResponseText = %q", res.ResponseText)
	}
	wantTrace := []State{StateDeterministic, StateIntent, StateRetrieve, StateDraft, StateGuardrail, StateFinalize}
	if !reflect.DeepEqual(res.Trace, wantTrace) {
		t.Errorf("Trace = %v, want %v", res.TraceNames(), wantTrace)
	}
}

func TestDeterministicShortCircuit(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"What are your business hours?", testPolicies[models.PolicyBusinessHours]},
		{"what is your phone number", testPolicies[models.PolicyPhone]},
		{"Where are you located? need directions", testPolicies[models.PolicyAddress]},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			h := newHarness(models.IntentOtherUnknown, 0.1, nil, false)
			res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, tt.query)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if h.classifier.calls+h.retriever.calls+h.drafter.calls != 0 {
				t.Errorf("collaborators called: classify=%d retrieve=%d draft=%d",
					h.classifier.calls, h.retriever.calls, h.drafter.calls)
			}
			if res.Confidence != 1.0 || res.Intent != models.IntentHoursLocationContact || res.Escalated {
				t.Errorf("result = %+v", res)
			}
			if !strings.Contains(res.ResponseText, tt.want) {
				t.Errorf("ResponseText = %q, want it to contain %q", res.ResponseText, tt.want)
			}
			if !reflect.DeepEqual(res.Trace, []State{StateDeterministic, StateFinalize}) {
				t.Errorf("Trace = %v", res.TraceNames())
			}
			if res.References == nil || len(res.References) != 0 {
				t.Errorf("References = %#v, want empty", res.References)
			}
		})
	}
}

func TestEscalationPersistenceFailurePropagates(t *testing.T) {
	h := newHarness(models.IntentOtherUnknown, 0.9, nil, true)
	h.tickets.err = errors.New("database locked")

	if _, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "something odd"); err == nil {
		t.Fatal("Run() should fail when the ticket cannot be stored")
	}
}

func TestUpstreamFailuresDegrade(t *testing.T) {
	h := newHarness("", 0, someRefs, true)
	h.classifier.err = errors.New("timeout")
	h.drafter.err = errors.New("timeout")

	res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "do you take medicare insurance")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Intent != models.IntentInsuranceFinancing || res.Confidence != 0.9 {
		t.Errorf("intent=%s confidence=%v, want keyword fallback", res.Intent, res.Confidence)
	}
	if !strings.HasPrefix(res.ResponseText, "We can help with insurance") {
		t.Errorf("ResponseText = %q, want template", res.ResponseText)
	}
}

func TestRetrievalErrorMeansNoEvidence(t *testing.T) {
	h := newHarness(models.IntentServicesInfo, 0.9, nil, true)
	h.retriever.err = errors.New("index offline")

	res, err := h.orch.Run(context.Background(), "s1", models.ChannelWeb, "what services")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Escalated || res.EscalationReason != models.ReasonLowConfidence {
		t.Errorf("result = %+v, want low_confidence escalation", res)
	}
}

func TestPolicyLoadFailure(t *testing.T) {
	orch := NewOrchestrator(Deps{Policies: fakePolicies{err: errors.New("no db")}})
	if _, err := orch.Run(context.Background(), "s1", models.ChannelWeb, "hi"); err == nil {
		t.Fatal("Run() should fail when policies cannot be read")
	}
}

func TestFinalizeDefaults(t *testing.T) {
	orch := NewOrchestrator(Deps{})
	next, st, err := orch.step(context.Background(), StateFinalize, PipelineState{}, nil)
	if err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if next != StateDone {
		t.Errorf("next = %v, want done", next)
	}
	if st.Intent != models.IntentOtherUnknown || st.Confidence != 0.6 || st.References == nil {
		t.Errorf("finalized state = %+v", st)
	}
}

func TestEscalateWithoutText(t *testing.T) {
	tickets := &fakeTickets{}
	orch := NewOrchestrator(Deps{Tickets: tickets})
	_, st, err := orch.step(context.Background(), StateEscalate, PipelineState{SessionID: "s1", Query: "q"}, nil)
	if err != nil {
		t.Fatalf("step() error = %v", err)
	}
	if st.ResponseText != escalatedNoTextReply+" (Ticket t-1)" {
		t.Errorf("ResponseText = %q", st.ResponseText)
	}
	if st.EscalationReason != models.ReasonManualReview || tickets.requests[0].Reason != models.ReasonManualReview {
		t.Errorf("reason = %q, want manual_review", st.EscalationReason)
	}
}

func TestStateString(t *testing.T) {
	if StateGuardrail.String() != "guardrail" || State(99).String() != "unknown" {
		t.Error("State.String() mismatch")
	}
}
