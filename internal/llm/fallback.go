// ABOUTME: Wrappers that fall back to the deterministic classifier and drafter
// ABOUTME: A model failure degrades the reply; it never fails the turn
package llm

import (
	"context"
	"log/slog"
	"strings"
)

type fallbackClassifier struct {
	primary IntentClassifier
	logger  *slog.Logger
}

// NewClassifier returns primary wrapped with the keyword fallback. A nil primary
// yields the keyword classifier alone.
func NewClassifier(primary IntentClassifier, logger *slog.Logger) IntentClassifier {
	if primary == nil {
		return HeuristicClassifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &fallbackClassifier{primary: primary, logger: logger}
}

func (f *fallbackClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	c, err := f.primary.Classify(ctx, text)
	if err == nil && c.Intent.Valid() {
		c.Confidence = ClampConfidence(c.Confidence)
		return c, nil
	}
	f.logger.Warn("intent classification fell back to keywords", "error", err, "intent", c.Intent)
	return classifyByKeywords(text), nil
}

type fallbackDrafter struct {
	primary ResponseDrafter
	logger  *slog.Logger
}

// NewDrafter returns primary wrapped so that fixed replies bypass it and
// failures or empty drafts use the templates. A nil primary yields TemplateDrafter.
func NewDrafter(primary ResponseDrafter, logger *slog.Logger) ResponseDrafter {
	if primary == nil {
		return TemplateDrafter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &fallbackDrafter{primary: primary, logger: logger}
}

func (f *fallbackDrafter) Draft(ctx context.Context, req DraftRequest) (string, error) {
	if text, ok := fixedReply(req); ok {
		return text, nil
	}
	text, err := f.primary.Draft(ctx, req)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), nil
	}
	f.logger.Warn("response drafting fell back to templates", "error", err, "intent", req.Intent)
	return templateReply(req), nil
}
