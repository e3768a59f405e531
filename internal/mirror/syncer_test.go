package mirror

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/memory"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSyncerFollowsRemoteChanges(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := memory.NewDocumentStore()
	state := NewState()
	syncer := NewSyncer(remote, state, SyncerConfig{
		Roots: []string{document.RootAttendance, document.RootPlayerGroups},
	}, logging.NewNop())

	var replaced atomic.Int32
	syncer.OnReplace(func(context.Context, string) { replaced.Add(1) })

	done := make(chan struct{})
	go func() {
		syncer.Run(ctx)
		close(done)
	}()

	eventually(t, "initial snapshots", func() bool {
		return state.Loaded(document.RootAttendance, document.RootPlayerGroups)
	})

	_ = remote.Set(context.Background(), "attendance/2026-03-02/Mari", "Jah")
	_ = remote.Set(context.Background(), "playerGroups/Mari", "2")

	eventually(t, "attendance update", func() bool {
		return state.Mark(group.KindTennis, "2026-03-02", "Mari") == attendance.Yes
	})
	eventually(t, "group update", func() bool {
		return state.Group(group.KindTennis, "Mari") == "2"
	})
	eventually(t, "replace hooks", func() bool { return replaced.Load() >= 4 })
	if len(syncer.Connected()) != 2 {
		t.Fatalf("expected both roots connected, got %v", syncer.Connected())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("syncer did not stop")
	}
}

func TestSyncerRefresh(t *testing.T) {
	t.Parallel()

	remote, err := memory.NewSeededDocumentStore(memory.SeedDocuments())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	state := NewState()
	syncer := NewSyncer(remote, state, SyncerConfig{}, logging.NewNop())

	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !state.Loaded(document.Roots...) {
		t.Fatalf("refresh should load every root")
	}
	slot, ok := state.Schedule().Slot(group.KindFuss, "A", "reede")
	if !ok || slot.String() != "15:00 - 16:00" {
		t.Fatalf("unexpected seeded slot %v %v", slot, ok)
	}
}

type rejectingStore struct {
	*memory.DocumentStore
	path string
}

func (s rejectingStore) Set(ctx context.Context, path string, value any) error {
	if path == s.path {
		return document.ErrRejected
	}
	return s.DocumentStore.Set(ctx, path, value)
}

func TestSyncerSnapshotClearsUnsyncedWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := rejectingStore{DocumentStore: memory.NewDocumentStore(), path: "playerGroups/Mari"}
	state := NewState()
	syncer := NewSyncer(remote, state, SyncerConfig{
		Roots: []string{document.RootPlayerGroups},
	}, logging.NewNop())
	writer, err := NewWriter(remote, WriterConfig{Workers: 1, MaxTries: 1}, logging.NewNop())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	t.Cleanup(func() { _ = writer.Close(context.Background()) })
	syncer.OnReplace(writer.Forget)
	store := NewStore(state, writer)

	if err := store.SetGroup(ctx, group.KindTennis, "Mari", "2").Wait(ctx); !errors.Is(err, document.ErrRejected) {
		t.Fatalf("expected rejected write, got %v", err)
	}
	status := writer.Status()
	if len(status.Unsynced) != 1 || status.Unsynced[0].Path != "playerGroups/Mari" {
		t.Fatalf("expected unsynced tennis group, got %+v", status)
	}

	if err := syncer.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if status := writer.Status(); len(status.Unsynced) != 0 {
		t.Fatalf("a fresh snapshot should clear unsynced paths, got %+v", status)
	}
	if got := state.Group(group.KindTennis, "Mari"); got != group.KindTennis.Default() {
		t.Fatalf("remote value should win after the snapshot, got %q", got)
	}
}
