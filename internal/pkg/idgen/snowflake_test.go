package idgen

import (
	"strings"
	"testing"
)

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		if id == "" {
			t.Fatal("GenerateID() returned empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestPrefixedIDs(t *testing.T) {
	if got := RequestID(); !strings.HasPrefix(got, "req-") {
		t.Errorf("RequestID() = %q", got)
	}
	if got := SessionID(); !strings.HasPrefix(got, "s") || len(got) < 2 {
		t.Errorf("SessionID() = %q", got)
	}
}
