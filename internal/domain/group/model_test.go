package group

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolve_DefaultsForUnassignedPlayers(t *testing.T) {
	assignments := map[string]Tag{"Mari": "2"}

	if got := KindTennis.Resolve(assignments, "Mari"); got != "2" {
		t.Fatalf("expected stored tag, got %q", got)
	}
	if got := KindTennis.Resolve(assignments, "Jaan Tamm"); got != "1" {
		t.Fatalf("expected tennis default 1, got %q", got)
	}
	if got := KindFuss.Resolve(nil, "Jaan Tamm"); got != "A" {
		t.Fatalf("expected fuss default A, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := KindTennis.Validate("2"); err != nil {
		t.Fatalf("2 should be a valid tennis group: %v", err)
	}
	if err := KindTennis.Validate("A"); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("expected ErrInvalidTag, got %v", err)
	}
	if err := KindFuss.Validate("C"); !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("expected ErrInvalidTag, got %v", err)
	}
}

func TestSortTags(t *testing.T) {
	tennis := []Tag{"10", "2", "1"}
	KindTennis.SortTags(tennis)
	if !reflect.DeepEqual(tennis, []Tag{"1", "2", "10"}) {
		t.Fatalf("tennis tags must sort numerically: %v", tennis)
	}

	fuss := []Tag{"B", "A"}
	KindFuss.SortTags(fuss)
	if !reflect.DeepEqual(fuss, []Tag{"A", "B"}) {
		t.Fatalf("fuss tags must sort lexicographically: %v", fuss)
	}
}

func TestMissingDefaults(t *testing.T) {
	got := KindFuss.MissingDefaults(map[string]Tag{"Mari": "B"}, []string{"Mari", "Jaan"})
	if !reflect.DeepEqual(got, map[string]Tag{"Jaan": "A"}) {
		t.Fatalf("unexpected defaults: %v", got)
	}
}

func TestParseKind(t *testing.T) {
	if _, err := ParseKind("golf"); err == nil {
		t.Fatalf("expected unknown activity error")
	}
	if k, err := ParseKind("fuss"); err != nil || k != KindFuss {
		t.Fatalf("unexpected parse result %q %v", k, err)
	}
}
