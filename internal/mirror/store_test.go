package mirror

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/memory"
	documentmock "github.com/tallink-tennis/fuss-tracker/internal/mocks/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func newTestStore(t *testing.T, remote document.Store) *Store {
	t.Helper()

	writer, err := NewWriter(remote, WriterConfig{
		Workers:        2,
		MaxTries:       3,
		AttemptTimeout: time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = writer.Close(ctx)
	})
	return NewStore(NewState(), writer)
}

func waitResult(t *testing.T, res *WriteResult) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := res.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("write to %s did not finish", res.Path)
	}
	return err
}

func TestStoreSetMarkIsReadableBeforeRemoteAck(t *testing.T) {
	t.Parallel()

	remote := documentmock.NewStore(t)
	release := make(chan struct{})
	remote.
		On("Set", mock.Anything, "attendance/2026-03-02", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).
		Once()

	store := newTestStore(t, remote)
	res := store.SetMark(context.Background(), group.KindTennis, "2026-03-02", "Mari", attendance.Yes)

	if got := store.State().Mark(group.KindTennis, "2026-03-02", "Mari"); got != attendance.Yes {
		t.Fatalf("expected local mark Jah, got %s", got)
	}

	// A snapshot from before the write must not hide the pending edit.
	if err := store.State().Replace(document.RootAttendance, []byte(`{"2026-03-02":{"Jaan":"Jah"}}`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := store.State().Mark(group.KindTennis, "2026-03-02", "Mari"); got != attendance.Yes {
		t.Fatalf("pending edit lost after snapshot, got %s", got)
	}
	if res.Err() != nil {
		t.Fatalf("write should still be pending")
	}

	close(release)
	if err := waitResult(t, res); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Once settled the remote snapshot is authoritative again.
	_ = store.State().Replace(document.RootAttendance, []byte(`{"2026-03-02":{"Jaan":"Jah"}}`))
	if got := store.State().Mark(group.KindTennis, "2026-03-02", "Mari"); got != attendance.No {
		t.Fatalf("expected remote value after settle, got %s", got)
	}
}

func TestStoreRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	remote := documentmock.NewStore(t)
	remote.On("Set", mock.Anything, "fussEffort/2026-03-02/A/Mari", float64(4)).Return(errors.New("connection reset")).Once()
	remote.On("Set", mock.Anything, "fussEffort/2026-03-02/A/Mari", float64(4)).Return(nil).Once()

	store := newTestStore(t, remote)
	effort := 4
	if err := waitResult(t, store.SetEffort(context.Background(), "2026-03-02", "A", "Mari", &effort)); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if status := store.Status(); status.Pending != 0 || len(status.Unsynced) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStoreRejectedWriteIsNotRetried(t *testing.T) {
	t.Parallel()

	remote := documentmock.NewStore(t)
	remote.
		On("Set", mock.Anything, "playerGroups/Mari", "2").
		Return(document.ErrRejected).
		Once()

	store := newTestStore(t, remote)
	err := waitResult(t, store.SetGroup(context.Background(), group.KindTennis, "Mari", "2"))
	if !errors.Is(err, document.ErrRejected) {
		t.Fatalf("expected rejected error, got %v", err)
	}

	status := store.Status()
	if len(status.Unsynced) != 1 || status.Unsynced[0].Path != "playerGroups/Mari" {
		t.Fatalf("expected unsynced path, got %+v", status)
	}
	if !store.State().GroupChanged("Mari") {
		t.Fatalf("group change flag should be set")
	}
}

func TestStoreSetEffortNilDeletes(t *testing.T) {
	t.Parallel()

	remote := memory.NewDocumentStore()
	store := newTestStore(t, remote)
	ctx := context.Background()

	effort := 3
	_ = waitResult(t, store.SetEffort(ctx, "2026-03-02", "B", "Jaan", &effort))
	if _, ok := store.State().Effort("2026-03-02", "B", "Jaan"); !ok {
		t.Fatalf("expected effort to be stored")
	}
	_ = waitResult(t, store.SetEffort(ctx, "2026-03-02", "B", "Jaan", nil))

	if _, ok := store.State().Effort("2026-03-02", "B", "Jaan"); ok {
		t.Fatalf("expected effort to be removed locally")
	}
	raw, _ := remote.Get(ctx, "fussEffort")
	if string(raw) != "null" {
		t.Fatalf("expected remote key removed, got %s", raw)
	}
}

func TestStoreArchiveAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := memory.NewDocumentStore()
	store := newTestStore(t, remote)

	res, err := store.AddPlayer(ctx, "Jaan Tamm", "pw", "parent-pw", "2", "B")
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if err := waitResult(t, res); err != nil {
		t.Fatalf("add player write: %v", err)
	}

	archivedAt := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	rec, res, err := store.ArchivePlayer(ctx, "Jaan Tamm", archivedAt)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := waitResult(t, res); err != nil {
		t.Fatalf("archive write: %v", err)
	}
	if rec.TennisGroup != "2" || rec.FussGroup != "B" || rec.ParentPassword != "parent-pw" {
		t.Fatalf("unexpected archive record %+v", rec)
	}

	for _, root := range []string{document.RootPlayerGroups, document.RootFussGroups, document.RootPlayerPasswords, document.RootParentPasswords} {
		raw, _ := remote.Get(ctx, root+"/Jaan Tamm")
		if string(raw) != "null" {
			t.Fatalf("expected %s entry removed, got %s", root, raw)
		}
	}
	if archived := store.State().Archived(); len(archived) != 1 {
		t.Fatalf("expected one archived player, got %+v", archived)
	}

	if _, res, err = store.RestorePlayer(ctx, "Jaan Tamm"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := waitResult(t, res); err != nil {
		t.Fatalf("restore write: %v", err)
	}

	state := store.State()
	if state.Group(group.KindTennis, "Jaan Tamm") != "2" || state.Group(group.KindFuss, "Jaan Tamm") != "B" {
		t.Fatalf("restored groups should be the archived ones")
	}
	if pw, _ := state.ParentPassword("Jaan Tamm"); pw != "parent-pw" {
		t.Fatalf("parent password not restored")
	}
	if len(state.Archived()) != 0 {
		t.Fatalf("archive entry should be consumed")
	}
	raw, _ := remote.Get(ctx, "archivedPlayers")
	if string(raw) != "null" {
		t.Fatalf("remote archive should be empty, got %s", raw)
	}
}

func TestStoreFillGroupDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := memory.NewDocumentStore()
	store := newTestStore(t, remote)
	state := store.State()

	if res := store.FillGroupDefaults(ctx); res != nil {
		t.Fatalf("defaults must wait for groups and players to load")
	}

	_ = state.Replace(document.RootPlayerPasswords, []byte(`{"Mari":"a","Jaan":"b"}`))
	_ = state.Replace(document.RootPlayerGroups, []byte(`{"Mari":"2"}`))
	_ = state.Replace(document.RootFussGroups, []byte(`null`))

	res := store.FillGroupDefaults(ctx)
	if res == nil {
		t.Fatalf("expected default fill write")
	}
	if err := waitResult(t, res); err != nil {
		t.Fatalf("fill write: %v", err)
	}

	raw, _ := remote.Get(ctx, "playerGroups/Jaan")
	if string(raw) != `"1"` {
		t.Fatalf("expected tennis default, got %s", raw)
	}
	raw, _ = remote.Get(ctx, "fussGroups/Mari")
	if string(raw) != `"A"` {
		t.Fatalf("expected fuss default, got %s", raw)
	}
	if store.FillGroupDefaults(ctx) != nil {
		t.Fatalf("second pass should find nothing missing")
	}
}

func TestWriterClosedRejectsWrites(t *testing.T) {
	t.Parallel()

	writer, err := NewWriter(memory.NewDocumentStore(), WriterConfig{}, logging.NewNop())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := writer.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	res := writer.Set(context.Background(), "dates/2026-03-02", "esmaspäev", nil)
	if !errors.Is(res.Err(), ErrWriterClosed) {
		t.Fatalf("expected closed error, got %v", res.Err())
	}
}

// slowFirstSet delays the first Set so a later write for the same path
// would overtake it on an unordered pool.
type slowFirstSet struct {
	*memory.DocumentStore
	calls atomic.Int32
	delay time.Duration
}

func (s *slowFirstSet) Set(ctx context.Context, path string, value any) error {
	if s.calls.Add(1) == 1 {
		time.Sleep(s.delay)
	}
	return s.DocumentStore.Set(ctx, path, value)
}

func TestStoreSameDayMarksKeepSubmissionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &slowFirstSet{DocumentStore: memory.NewDocumentStore(), delay: 100 * time.Millisecond}
	store := newTestStore(t, remote)

	first := store.SetMark(ctx, group.KindTennis, "2026-03-02", "Mari", attendance.Yes)
	second := store.SetMark(ctx, group.KindTennis, "2026-03-02", "Jaan", attendance.Yes)
	if err := waitResult(t, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := waitResult(t, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	raw, err := remote.Get(ctx, "attendance/2026-03-02")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.State().Replace(document.RootAttendance, []byte(`{"2026-03-02":`+string(raw)+`}`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	for _, player := range []string{"Mari", "Jaan"} {
		if got := store.State().Mark(group.KindTennis, "2026-03-02", player); got != attendance.Yes {
			t.Fatalf("%s lost after echo, remote day is %s", player, raw)
		}
	}
}

func TestWriterOrdersOnlyRelatedPaths(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	release := make(chan struct{})
	remote := documentmock.NewStore(t)
	remote.On("Set", mock.Anything, "attendance/2026-03-02", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).
		Once()
	remote.On("Set", mock.Anything, "dates/2026-03-09", "esmaspäev").Return(nil).Once()
	remote.On("Update", mock.Anything, "", mock.Anything).Return(nil).Once()

	store := newTestStore(t, remote)
	blocked := store.SetMark(ctx, group.KindTennis, "2026-03-02", "Mari", attendance.Yes)
	waiting := store.writer.Update(ctx, "", map[string]any{"attendance/2026-03-02/Jaan": "Jah"}, nil)
	independent := store.writer.Set(ctx, "dates/2026-03-09", "esmaspäev", nil)

	if err := waitResult(t, independent); err != nil {
		t.Fatalf("unrelated write should not wait: %v", err)
	}
	select {
	case <-waiting.Done():
		t.Fatalf("write under a busy path must wait for it")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := waitResult(t, blocked); err != nil {
		t.Fatalf("blocked write: %v", err)
	}
	if err := waitResult(t, waiting); err != nil {
		t.Fatalf("waiting write: %v", err)
	}
}

func TestStoreToggleMarkFlipsLocalValue(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, memory.NewDocumentStore())
	ctx := context.Background()

	mark, res := store.ToggleMark(ctx, group.KindFuss, "2026-03-02", "Anu")
	if mark != attendance.Yes {
		t.Fatalf("missing mark should toggle to Jah, got %s", mark)
	}
	_ = waitResult(t, res)
	mark, res = store.ToggleMark(ctx, group.KindFuss, "2026-03-02", "Anu")
	_ = waitResult(t, res)
	if mark != attendance.No || store.State().Mark(group.KindFuss, "2026-03-02", "Anu") != attendance.No {
		t.Fatalf("second toggle should clear the mark, got %s", mark)
	}
}
