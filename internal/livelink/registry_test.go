package livelink

import "testing"

func TestSubjectRegistry(t *testing.T) {
	r := NewSubjectRegistry()

	if r.Contains("Performer") {
		t.Error("Empty registry should not contain Performer")
	}

	r.Insert("Performer")
	if !r.Contains("Performer") {
		t.Error("Registry should contain Performer after Insert")
	}
	if r.Len() != 1 {
		t.Errorf("Expected length 1, got %d", r.Len())
	}

	// Re-inserting must not grow the set.
	r.Insert("Performer")
	if r.Len() != 1 {
		t.Errorf("Expected length 1 after duplicate insert, got %d", r.Len())
	}

	r.Insert("Other")
	if r.Len() != 2 {
		t.Errorf("Expected length 2, got %d", r.Len())
	}
}
