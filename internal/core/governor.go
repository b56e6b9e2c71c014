// ABOUTME: Governor applies the safety guardrail after drafting
// ABOUTME: Checks run in a fixed order: emergency, no evidence, low confidence, after hours
package core

import (
	"strings"
	"time"

	"github.com/harper/frontdesk/internal/llm"
	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
)

const (
	// DefaultConfidenceThreshold escalates any classification below it
	DefaultConfidenceThreshold = 0.45

	noEvidenceReply = "I want to make sure you get an accurate answer. " +
		"I can escalate this to our team and collect callback details."
	afterHoursHint = " We're currently outside business hours, but I can collect your details " +
		"for callback during office hours."
)

// OpenChecker reports whether the clinic is open at an instant
type OpenChecker interface {
	IsOpenNow(now time.Time) bool
}

// evidenceExempt intents may be answered without retrieved references
var evidenceExempt = map[models.Intent]bool{
	models.IntentHoursLocationContact: true,
	models.IntentAppointmentRequest:   true,
	models.IntentClinicalRisk:         true,
}

// Governor decides whether a drafted reply goes out or escalates
type Governor struct {
	threshold float64
	hours     OpenChecker
}

// NewGovernor creates a Governor. A nil hours checker treats the clinic as always open.
func NewGovernor(threshold float64, hours OpenChecker) *Governor {
	return &Governor{threshold: threshold, hours: hours}
}

// Review returns the state after the guardrail. Only the first matching rule applies.
func (g *Governor) Review(st PipelineState, policies map[string]string, now time.Time) PipelineState {
	if privacy.ContainsEmergencyTerm(st.Query) {
		st.Escalated = true
		st.EscalationReason = models.ReasonClinicalRisk
		st.ResponseText = llm.EmergencyDisclaimer(policies)
		st.Intent = models.IntentClinicalRisk
		st.setConfidence(1.0)
		return st
	}

	intent := st.Intent
	if intent == "" {
		intent = models.IntentOtherUnknown
	}
	if len(st.References) == 0 && !evidenceExempt[intent] {
		st.Escalated = true
		st.EscalationReason = models.ReasonLowConfidence
		st.ResponseText = noEvidenceReply
		return st
	}

	if st.Confidence < g.threshold {
		st.Escalated = true
		st.EscalationReason = models.ReasonLowConfidence
		return st
	}

	if g.hours != nil && !g.hours.IsOpenNow(now) {
		st.ResponseText = strings.TrimSpace(strings.TrimSpace(st.ResponseText) + afterHoursHint)
	}
	return st
}
