// ABOUTME: Tests for the intent label set and content-derived chunk ids
// ABOUTME: Labels are case-sensitive; ids change when any input changes
package models

import "testing"

func TestIntentValid(t *testing.T) {
	for _, intent := range AllIntents {
		if !intent.Valid() {
			t.Errorf("%q should be valid", intent)
		}
	}
	for _, bad := range []Intent{"", "diagnosis", "HOURS_LOCATION_CONTACT"} {
		if bad.Valid() {
			t.Errorf("%q should not be valid", bad)
		}
	}
}

func TestChunkIDStable(t *testing.T) {
	a := ChunkID("https://example.com/services", 0, "We offer hearing tests.")
	b := ChunkID("https://example.com/services", 0, "We offer hearing tests.")
	if a != b {
		t.Error("ChunkID should be deterministic")
	}
	if a == ChunkID("https://example.com/services", 1, "We offer hearing tests.") {
		t.Error("ChunkID should depend on chunk index")
	}
}
