// ABOUTME: Capability interfaces for intent classification, drafting and embedding
// ABOUTME: Each has a network-backed and a deterministic implementation chosen by configuration
package llm

import (
	"context"
	"errors"

	"github.com/harper/frontdesk/internal/models"
)

// ErrNoClient is returned by constructors when no API key is configured
var ErrNoClient = errors.New("no OpenAI API key configured")

// ErrInvalidClassification is returned when a model reply is not a usable label and confidence
var ErrInvalidClassification = errors.New("invalid classification")

// Classification is an intent label with a confidence in [0,1]
type Classification struct {
	Intent     models.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
}

// IntentClassifier maps free text onto the fixed label set
type IntentClassifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// DraftRequest carries everything a drafter may condition on
type DraftRequest struct {
	Query      string
	Intent     models.Intent
	Channel    models.Channel
	References []models.Reference
	Policies   map[string]string
}

// ResponseDrafter produces reply text
type ResponseDrafter interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

// ClampConfidence bounds a confidence to [0,1]
func ClampConfidence(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
