// ABOUTME: LeadScribe records callback requests from consenting appointment conversations
// ABOUTME: The phone number is pulled from the caller's own words; the stored reason is redacted
package core

import (
	"context"
	"fmt"

	"github.com/harper/frontdesk/internal/models"
	"github.com/harper/frontdesk/internal/privacy"
)

// LeadSaver persists lead captures
type LeadSaver interface {
	Save(ctx context.Context, lead *models.LeadCapture) error
}

// LeadScribe turns appointment requests into lead captures
type LeadScribe struct {
	leads LeadSaver
}

// NewLeadScribe creates a LeadScribe
func NewLeadScribe(leads LeadSaver) *LeadScribe {
	return &LeadScribe{leads: leads}
}

// Capture saves a lead when the session consented and the intent is an appointment request.
// It returns nil, nil when no lead is due. The callback phone is the only identifier kept in
// clear; everything else in the reason is redacted.
func (s *LeadScribe) Capture(ctx context.Context, sess *models.Session, intent models.Intent, rawText string) (*models.LeadCapture, error) {
	if !sess.ConsentToContact || intent != models.IntentAppointmentRequest {
		return nil, nil
	}

	lead := &models.LeadCapture{
		SessionID: sess.ID,
		Phone:     privacy.FindPhone(rawText),
		Reason:    privacy.RedactText(rawText),
		Consent:   true,
		Status:    "new",
	}
	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("save lead capture: %w", err)
	}
	return lead, nil
}
