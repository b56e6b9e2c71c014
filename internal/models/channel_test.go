// ABOUTME: Tests for channel, phone hash and priority parsing
// ABOUTME: Unknown values must be rejected rather than defaulted
package models

import "testing"

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"", ChannelWeb, false},
		{"web", ChannelWeb, false},
		{" SMS ", ChannelSMS, false},
		{"voice", ChannelVoice, false},
		{"fax", "", true},
	}

	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChannel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChannel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashPhone(t *testing.T) {
	a := HashPhone("+18645551234")
	b := HashPhone("+18645551234")
	if a != b {
		t.Error("HashPhone should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("HashPhone length = %d, want 64", len(a))
	}
	if a == HashPhone("+18645550000") {
		t.Error("different numbers should hash differently")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityMedium, false},
		{"HIGH", PriorityHigh, false},
		{" low", PriorityLow, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
