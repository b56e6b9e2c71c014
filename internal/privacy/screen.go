// ABOUTME: Privacy screen that redacts identifiers and flags clinical content
// ABOUTME: Redaction is idempotent and runs before anything is stored, retrieved against or sent
package privacy

import (
	"regexp"
	"strings"

	"github.com/harper/frontdesk/internal/models"
)

// Redaction placeholders
const (
	PlaceholderEmail = "[REDACTED_EMAIL]"
	PlaceholderPhone = "[REDACTED_PHONE]"
	PlaceholderSSN   = "[REDACTED_SSN]"
	PlaceholderDOB   = "[REDACTED_DOB]"
)

// Signals reported by Screen
const (
	SignalEmergencyTerms = "emergency_terms"
	SignalMedicalTerms   = "medical_terms"
)

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(\+?1?[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	dobPattern   = regexp.MustCompile(`(?i)\b(?:dob|date of birth)\b[:\s\-]*\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)

	placeholderPattern = regexp.MustCompile(`\[REDACTED_(?:EMAIL|PHONE|SSN|DOB)\]`)
)

// EmergencyTerms take precedence over MedicalTerms
var EmergencyTerms = []string{
	"chest pain",
	"can't breathe",
	"cannot breathe",
	"stroke",
	"severe dizziness",
	"suicidal",
	"fainting",
}

// MedicalTerms restrict a message in non-PHI mode when no emergency term matched
var MedicalTerms = []string{
	"tinnitus",
	"vertigo",
	"hearing loss",
	"ear pain",
	"dizzy",
	"dizziness",
	"diagnosed",
	"symptom",
	"infection",
	"bleeding",
	"migraine",
}

// Result is the outcome of screening one inbound message
type Result struct {
	Restricted   bool
	Reason       string
	RedactedText string
	Signals      []string
}

// Options configure a Screener
type Options struct {
	// NonPHIMode restricts clinical content; otherwise screening is a passthrough
	NonPHIMode        bool
	Redact            bool
	HandoffMessage    string
	HandoffMessageSMS string
}

// Screener applies the configured compliance posture
type Screener struct {
	opts Options
}

// NewScreener creates a Screener
func NewScreener(opts Options) *Screener {
	return &Screener{opts: opts}
}

// RedactText replaces emails, SSNs, phone numbers and dates of birth with placeholders.
// SSNs are replaced before phone numbers so a phone match never swallows one.
func RedactText(text string) string {
	out := emailPattern.ReplaceAllLiteralString(text, PlaceholderEmail)
	out = ssnPattern.ReplaceAllLiteralString(out, PlaceholderSSN)
	out = dobPattern.ReplaceAllLiteralString(out, PlaceholderDOB)
	out = phonePattern.ReplaceAllLiteralString(out, PlaceholderPhone)
	return out
}

// StripPlaceholders blanks out redaction placeholders so their words do not trigger keyword rules
func StripPlaceholders(text string) string {
	return placeholderPattern.ReplaceAllLiteralString(text, " ")
}

// FindPhone returns the first phone number in text, or ""
func FindPhone(text string) string {
	return strings.TrimSpace(phonePattern.FindString(text))
}

// ContainsEmergencyTerm reports whether text mentions any emergency term
func ContainsEmergencyTerm(text string) bool {
	return containsAny(strings.ToLower(text), EmergencyTerms)
}

// Redact returns the storable form of text under the configured redaction setting
func (s *Screener) Redact(text string) string {
	if !s.opts.Redact {
		return text
	}
	return RedactText(text)
}

// Screen classifies an inbound message and computes its storable form
func (s *Screener) Screen(text string, channel models.Channel) Result {
	res := Result{RedactedText: s.Redact(text)}
	if !s.opts.NonPHIMode {
		return res
	}

	lowered := strings.ToLower(text)
	switch {
	case containsAny(lowered, EmergencyTerms):
		res.Restricted = true
		res.Reason = models.ReasonClinicalRisk
		res.Signals = []string{SignalEmergencyTerms}
	case containsAny(lowered, MedicalTerms):
		res.Restricted = true
		res.Reason = models.ReasonNonPHI
		res.Signals = []string{SignalMedicalTerms}
	}
	return res
}

// HandoffMessage is the fixed reply sent instead of running the pipeline on restricted input
func (s *Screener) HandoffMessage(channel models.Channel) string {
	if channel == models.ChannelSMS {
		return s.opts.HandoffMessageSMS
	}
	return s.opts.HandoffMessage
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
