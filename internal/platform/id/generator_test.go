package id

import (
	"strings"
	"testing"
)

func TestRandomGenerator_PrefixedUniqueIDs(t *testing.T) {
	gen := NewRandomGenerator("sess_")
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		got, err := gen.NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if !strings.HasPrefix(got, "sess_") || len(got) != len("sess_")+48 {
			t.Fatalf("unexpected id shape %q", got)
		}
		if _, dup := seen[got]; dup {
			t.Fatalf("duplicate id %q", got)
		}
		seen[got] = struct{}{}
	}
}

func TestUUIDGenerator(t *testing.T) {
	got, err := NewUUIDGenerator().NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(got) != 36 || strings.Count(got, "-") != 4 {
		t.Fatalf("unexpected uuid %q", got)
	}
}
