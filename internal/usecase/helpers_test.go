package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/memory"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// Friday evening, after every seeded Monday session has ended.
var testNow = time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC)

var testClock = Clock{Location: time.UTC, Now: func() time.Time { return testNow }}

func testSeed() map[string]any {
	return map[string]any{
		document.RootSchedule: memory.SeedSchedule(),
		document.RootDates: map[string]string{
			"2026-03-02": "esmaspäev",
			"2026-03-04": "kolmapäev",
			"2026-03-09": "esmaspäev",
		},
		document.RootPlayerPasswords: map[string]string{
			"Mari Maasikas": "mari1",
			"Jaan Tamm":     "jaan1",
			"Anu":           "anu1",
		},
		document.RootParentPasswords: map[string]string{"Mari Maasikas": "emme"},
		document.RootPlayerGroups:    map[string]string{"Mari Maasikas": "1", "Jaan Tamm": "2"},
		document.RootFussGroups:      map[string]string{"Jaan Tamm": "B"},
		document.RootAttendance: map[string]any{
			"2026-03-02": map[string]string{"Mari Maasikas": "Jah", "Anu": "Ei"},
		},
	}
}

// newTestMirror loads seed into a memory document store and returns a mirror
// fully synced with it.
func newTestMirror(t *testing.T, seed map[string]any) (*mirror.Store, *memory.DocumentStore) {
	t.Helper()

	remote, err := memory.NewSeededDocumentStore(seed)
	if err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	state := mirror.NewState()
	syncer := mirror.NewSyncer(remote, state, mirror.SyncerConfig{}, logging.NewNop())
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh mirror: %v", err)
	}

	writer, err := mirror.NewWriter(remote, mirror.WriterConfig{
		Workers:        2,
		MaxTries:       2,
		AttemptTimeout: time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = writer.Close(ctx)
	})
	return mirror.NewStore(state, writer), remote
}

func waitWrite(t *testing.T, res *mirror.WriteResult) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := res.Wait(ctx); err != nil {
		t.Fatalf("write %s: %v", res.Path, err)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
