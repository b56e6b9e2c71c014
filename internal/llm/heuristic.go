// ABOUTME: Keyword-based intent classifier used as the baseline and as the fallback
// ABOUTME: Rules are checked in order; the first matching rule wins
package llm

import (
	"context"
	"strings"

	"github.com/harper/frontdesk/internal/models"
)

type keywordRule struct {
	keywords   []string
	intent     models.Intent
	confidence float64
}

var heuristicRules = []keywordRule{
	{[]string{"chest pain", "stroke", "can't breathe", "faint", "severe dizziness"}, models.IntentClinicalRisk, 0.98},
	{[]string{"hours", "open", "closed", "address", "location", "phone"}, models.IntentHoursLocationContact, 0.95},
	{[]string{"insurance", "medicare", "financing", "payment plan"}, models.IntentInsuranceFinancing, 0.9},
	{[]string{"appointment", "schedule", "book", "callback"}, models.IntentAppointmentRequest, 0.9},
	{[]string{"hearing aid", "device", "battery", "pair", "bluetooth"}, models.IntentDeviceSupport, 0.85},
	{[]string{"billing", "invoice", "receipt", "charge"}, models.IntentBillingAdmin, 0.85},
	{[]string{"service", "offer", "treatment", "test"}, models.IntentServicesInfo, 0.8},
}

// HeuristicClassifier never fails and never calls the network
type HeuristicClassifier struct{}

// Classify returns the first matching rule, or other_unknown at 0.55
func (HeuristicClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	return classifyByKeywords(text), nil
}

func classifyByKeywords(text string) Classification {
	q := strings.ToLower(text)
	for _, rule := range heuristicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return Classification{Intent: rule.intent, Confidence: rule.confidence}
			}
		}
	}
	return Classification{Intent: models.IntentOtherUnknown, Confidence: 0.55}
}
