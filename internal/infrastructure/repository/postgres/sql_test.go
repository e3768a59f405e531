package postgres

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get document: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
	if isNotFound(fakeErr("pq: connection refused")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestIsUndefinedTable(t *testing.T) {
	t.Run("matches missing relation", func(t *testing.T) {
		err := fakeErr(`pq: relation "documents" does not exist`)
		if !isUndefinedTable(err) {
			t.Fatalf("expected true for missing relation")
		}
	})

	t.Run("matches by 42P01 code", func(t *testing.T) {
		if !isUndefinedTable(fakeErr("ERROR (42P01)")) {
			t.Fatalf("expected true for 42P01")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isUndefinedTable(fakeErr("pq: password authentication failed")) {
			t.Fatalf("expected false for unrelated error")
		}
		if isUndefinedTable(nil) {
			t.Fatalf("expected false for nil")
		}
	})
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
