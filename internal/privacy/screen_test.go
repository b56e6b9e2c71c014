// ABOUTME: Tests for the privacy screen
// ABOUTME: Verifies redaction patterns, idempotence and non-PHI restriction precedence
package privacy

import (
	"strings"
	"testing"

	"github.com/harper/frontdesk/internal/models"
)

func testScreener(nonPHI, redact bool) *Screener {
	return NewScreener(Options{
		NonPHIMode:        nonPHI,
		Redact:            redact,
		HandoffMessage:    "web handoff",
		HandoffMessageSMS: "please text us your callback number",
	})
}

func TestRedactText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		missing string
	}{
		{"email", "reach me at Jane.Doe+x@Example.org please", "reach me at [REDACTED_EMAIL] please", "Example.org"},
		{"phone dashes", "call 864-770-8822 today", "call[REDACTED_PHONE] today", "8822"},
		{"phone parens", "my cell is (864) 770-8822", "my cell is[REDACTED_PHONE]", "770"},
		{"phone country code", "+1 864.770.8822", "[REDACTED_PHONE]", "864"},
		{"ssn", "ssn 123-45-6789", "ssn [REDACTED_SSN]", "6789"},
		{"dob", "DOB: 04/12/1961 thanks", "[REDACTED_DOB] thanks", "1961"},
		{"date of birth", "date of birth 4-12-61", "[REDACTED_DOB]", "4-12"},
		{"nothing", "what are your hours?", "what are your hours?", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactText(tt.input)
			if got != tt.want {
				t.Errorf("RedactText(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tt.missing != "" && strings.Contains(got, tt.missing) {
				t.Errorf("RedactText(%q) leaked %q", tt.input, tt.missing)
			}
		})
	}
}

func TestRedactTextIdempotent(t *testing.T) {
	inputs := []string{
		"email a@b.co, phone 555-123-4567, ssn 123-45-6789, dob 1/2/1990",
		"numbers 12345678901234 and 555.123.4567.8901",
		"(864)770-8822 or jane@example.com or date of birth: 12/31/99",
		"already [REDACTED_PHONE] and [REDACTED_EMAIL]",
		"",
	}
	for _, in := range inputs {
		once := RedactText(in)
		twice := RedactText(once)
		if once != twice {
			t.Errorf("RedactText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestScreenNonPHI(t *testing.T) {
	s := testScreener(true, true)

	tests := []struct {
		name       string
		text       string
		restricted bool
		reason     string
		signal     string
	}{
		{"emergency", "I have chest pain", true, models.ReasonClinicalRisk, SignalEmergencyTerms},
		{"emergency wins over medical", "severe dizziness and tinnitus", true, models.ReasonClinicalRisk, SignalEmergencyTerms},
		{"medical", "Do you treat Tinnitus?", true, models.ReasonNonPHI, SignalMedicalTerms},
		{"safe", "Do you take Medicare?", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Screen(tt.text, models.ChannelWeb)
			if res.Restricted != tt.restricted {
				t.Errorf("Restricted = %v, want %v", res.Restricted, tt.restricted)
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
			if tt.signal == "" && len(res.Signals) != 0 {
				t.Errorf("Signals = %v, want none", res.Signals)
			}
			if tt.signal != "" && (len(res.Signals) != 1 || res.Signals[0] != tt.signal) {
				t.Errorf("Signals = %v, want [%s]", res.Signals, tt.signal)
			}
		})
	}
}

func TestScreenPassthroughStillRedacts(t *testing.T) {
	s := testScreener(false, true)

	res := s.Screen("chest pain, email me at a@b.com", models.ChannelWeb)
	if res.Restricted {
		t.Error("screening outside non-PHI mode must never restrict")
	}
	if strings.Contains(res.RedactedText, "a@b.com") {
		t.Errorf("RedactedText = %q, email should be redacted", res.RedactedText)
	}
}

func TestScreenWithoutRedaction(t *testing.T) {
	s := testScreener(true, false)

	res := s.Screen("my number is 555-123-4567", models.ChannelSMS)
	if res.RedactedText != "my number is 555-123-4567" {
		t.Errorf("RedactedText = %q, want original when redaction disabled", res.RedactedText)
	}
}

func TestHandoffMessage(t *testing.T) {
	s := testScreener(true, true)

	if got := s.HandoffMessage(models.ChannelSMS); !strings.Contains(got, "text") {
		t.Errorf("SMS handoff = %q", got)
	}
	if got := s.HandoffMessage(models.ChannelWeb); got != "web handoff" {
		t.Errorf("web handoff = %q", got)
	}
	if got := s.HandoffMessage(models.ChannelVoice); got != "web handoff" {
		t.Errorf("voice handoff = %q, want web wording", got)
	}
}

func TestContainsEmergencyTerm(t *testing.T) {
	if !ContainsEmergencyTerm("I CAN'T BREATHE") {
		t.Error("ContainsEmergencyTerm should be case-insensitive")
	}
	if ContainsEmergencyTerm("what are your hours") {
		t.Error("ContainsEmergencyTerm false positive")
	}
}

func TestFindPhone(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"call me at 864-770-8822 tomorrow", "864-770-8822"},
		{"my cell is (555) 123-4567", "(555) 123-4567"},
		{"no number here", ""},
	}
	for _, tt := range tests {
		if got := FindPhone(tt.text); got != tt.want {
			t.Errorf("FindPhone(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestStripPlaceholders(t *testing.T) {
	got := StripPlaceholders(RedactText("book me, my cell is 864-770-8822 or x@y.com"))
	if strings.Contains(strings.ToLower(got), "phone") || strings.Contains(got, "REDACTED") {
		t.Errorf("StripPlaceholders() = %q", got)
	}
	if !strings.HasPrefix(got, "book me, my cell is") {
		t.Errorf("StripPlaceholders() lost surrounding text: %q", got)
	}
}
