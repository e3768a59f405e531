package memory

import (
	"context"
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
)

func TestDocumentStoreSetUpdateDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewDocumentStore()

	if err := store.Set(ctx, "attendance/2026-03-02", map[string]string{"Mari": "Jah", "Jaan": "Ei"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Update(ctx, "fussEffort/2026-03-02/A", map[string]any{"Mari": 4, "Jaan": 3}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Update(ctx, "fussEffort/2026-03-02/A", map[string]any{"Jaan": nil}); err != nil {
		t.Fatalf("update delete: %v", err)
	}

	raw, err := store.Get(ctx, "fussEffort")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != `{"2026-03-02":{"A":{"Mari":4}}}` {
		t.Fatalf("unexpected effort tree %s", raw)
	}

	if err := store.Delete(ctx, "attendance/2026-03-02"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	raw, _ = store.Get(ctx, "attendance")
	if string(raw) != "null" {
		t.Fatalf("expected pruned attendance, got %s", raw)
	}
	if store.Writes() != 4 {
		t.Fatalf("expected 4 writes, got %d", store.Writes())
	}
}

func TestDocumentStoreSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewDocumentStore()
	snapshots := make(chan document.Snapshot, 8)
	done := make(chan error, 1)
	go func() {
		done <- store.Subscribe(ctx, "playerGroups", func(s document.Snapshot) { snapshots <- s })
	}()

	first := <-snapshots
	if first.Exists() {
		t.Fatalf("expected empty initial snapshot, got %s", first.Raw)
	}

	_ = store.Set(context.Background(), "fussGroups/Mari", "B")
	_ = store.Set(context.Background(), "playerGroups/Mari", "2")

	select {
	case s := <-snapshots:
		if string(s.Raw) != `{"Mari":"2"}` {
			t.Fatalf("unexpected snapshot %s", s.Raw)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("subscribe returned %v", err)
	}
}

func TestNewSeededDocumentStore(t *testing.T) {
	t.Parallel()

	store, err := NewSeededDocumentStore(SeedDocuments())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	raw, _ := store.Get(context.Background(), "schedule/tennis/1/esmaspäev")
	if string(raw) != `"16:00 - 17:30"` {
		t.Fatalf("unexpected seeded slot %s", raw)
	}
}
