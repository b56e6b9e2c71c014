// ABOUTME: Templated response drafting that needs no network access
// ABOUTME: Appointment and clinical-risk replies always come from here, even with a model configured
package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/harper/frontdesk/internal/models"
)

const (
	appointmentSMS = "I can help with that. Reply with your first name, best callback number, and preferred " +
		"appointment time. By replying with contact details, you consent to staff follow-up."
	appointmentWeb = "I can help with that. Please share your name, best callback number, and preferred appointment time. " +
		"By sharing contact details, you consent to front desk follow-up."

	// DefaultEmergencyDisclaimer is used when no emergency_disclaimer policy is active
	DefaultEmergencyDisclaimer = "If this is urgent or severe, call 911 or seek immediate care."

	defaultBusinessHours = "Monday-Friday 9:00 AM-4:00 PM ET."
	needsTeamMember      = "I may need a team member to confirm that accurately. " +
		"If you want, I can escalate this and collect callback details."
)

var intentTemplates = map[models.Intent]string{
	models.IntentInsuranceFinancing: "We can help with insurance and financing questions. " +
		"Please share your insurance provider and we can route this to staff for confirmation.",
	models.IntentServicesInfo: "We offer hearing and balance-related services. " +
		"Tell me what you need help with and I can guide you.",
	models.IntentDeviceSupport: "I can help with general hearing-device support. " +
		"Please describe the device issue and I can suggest next steps or escalate to staff.",
	models.IntentBillingAdmin: "For billing questions, please share your order or invoice details if available. " +
		"I can route this to our team for follow-up.",
}

var hoursQuestion = regexp.MustCompile(`hours|open|closed`)

// TemplateDrafter drafts replies from fixed wording
type TemplateDrafter struct{}

// Draft never fails
func (TemplateDrafter) Draft(ctx context.Context, req DraftRequest) (string, error) {
	if text, ok := fixedReply(req); ok {
		return text, nil
	}
	return templateReply(req), nil
}

// fixedReply covers the intents whose wording must never be generated
func fixedReply(req DraftRequest) (string, bool) {
	switch req.Intent {
	case models.IntentAppointmentRequest:
		if req.Channel == models.ChannelSMS {
			return appointmentSMS, true
		}
		return appointmentWeb, true
	case models.IntentClinicalRisk:
		return EmergencyDisclaimer(req.Policies), true
	}
	return "", false
}

func templateReply(req DraftRequest) string {
	if text, ok := intentTemplates[req.Intent]; ok {
		return text
	}
	if len(req.References) > 0 {
		return "Based on our available information: " + req.References[0].Snippet
	}
	if hoursQuestion.MatchString(strings.ToLower(req.Query)) {
		hours := req.Policies[models.PolicyBusinessHours]
		if hours == "" {
			hours = defaultBusinessHours
		}
		return "Our business hours are " + hours
	}
	return needsTeamMember
}

// EmergencyDisclaimer returns the active disclaimer policy or the built-in wording
func EmergencyDisclaimer(policies map[string]string) string {
	if text := policies[models.PolicyEmergencyDisclaimer]; text != "" {
		return text
	}
	return DefaultEmergencyDisclaimer
}
