package attendance

import (
	"errors"
	"testing"
)

func TestLookup_AbsentIsNo(t *testing.T) {
	day := map[string]Mark{"Mari": Yes, "Jaan": No}

	if got := Lookup(day, "Mari"); got != Yes {
		t.Fatalf("expected Jah, got %q", got)
	}
	if got := Lookup(day, "Kati"); got != No {
		t.Fatalf("expected absent player to read as Ei, got %q", got)
	}
	if got := Lookup(nil, "Kati"); got.Attending() {
		t.Fatalf("nil day must not attend")
	}
}

func TestParseMarkAndToggle(t *testing.T) {
	if _, err := ParseMark("maybe"); !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("expected ErrInvalidMark, got %v", err)
	}
	mark, err := ParseMark("Jah")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mark.Toggle() != No || No.Toggle() != Yes {
		t.Fatalf("toggle broken")
	}
}

func TestValidateEffort(t *testing.T) {
	for _, v := range []int{1, 3, 5} {
		v := v
		if err := ValidateEffort(&v); err != nil {
			t.Fatalf("effort %d should be valid: %v", v, err)
		}
	}
	for _, v := range []int{0, 6, -1} {
		v := v
		if err := ValidateEffort(&v); !errors.Is(err, ErrInvalidEffort) {
			t.Fatalf("effort %d should be invalid, got %v", v, err)
		}
	}
	if err := ValidateEffort(nil); err != nil {
		t.Fatalf("nil effort means unset: %v", err)
	}
}
