package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID("usr")
		if !strings.HasPrefix(id, "usr_") {
			t.Fatalf("NewID() = %q, want usr_ prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = struct{}{}
	}
	if got := NewID(""); strings.Contains(got, "_") || len(got) != 32 {
		t.Fatalf("NewID(\"\") = %q, want 32 hex chars", got)
	}
}
