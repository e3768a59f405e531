package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	documentmock "github.com/tallink-tennis/fuss-tracker/internal/mocks/domain/document"
	basecache "github.com/tallink-tennis/fuss-tracker/internal/platform/cache"
)

func TestDocumentStoreCachesReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := documentmock.NewStore(t)
	store := NewDocumentStore(next, basecache.NewStore(time.Minute))

	next.On("Get", mock.Anything, "attendance/2026-03-02").Return([]byte(`{"Mari":"Jah"}`), nil).Once()

	for i := 0; i < 3; i++ {
		raw, err := store.Get(ctx, "attendance/2026-03-02")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(raw) != `{"Mari":"Jah"}` {
			t.Fatalf("unexpected body %s", raw)
		}
		raw[0] = 'x'
	}
}

func TestDocumentStoreInvalidatesOnWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := documentmock.NewStore(t)
	store := NewDocumentStore(next, basecache.NewStore(time.Minute))

	next.On("Get", mock.Anything, "playerGroups/Mari").Return([]byte(`"1"`), nil).Once()
	next.On("Get", mock.Anything, "fussGroups/Mari").Return([]byte(`"A"`), nil).Once()
	next.On("Set", mock.Anything, "playerGroups/Mari", "2").Return(nil).Once()
	next.On("Get", mock.Anything, "playerGroups/Mari").Return([]byte(`"2"`), nil).Once()

	if raw, _ := store.Get(ctx, "playerGroups/Mari"); string(raw) != `"1"` {
		t.Fatalf("unexpected first read %s", raw)
	}
	if _, err := store.Get(ctx, "fussGroups/Mari"); err != nil {
		t.Fatalf("get fuss group: %v", err)
	}
	if err := store.Set(ctx, "playerGroups/Mari", "2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if raw, _ := store.Get(ctx, "playerGroups/Mari"); string(raw) != `"2"` {
		t.Fatalf("expected reload after write, got %s", raw)
	}
	// Other roots stay cached.
	if raw, _ := store.Get(ctx, "fussGroups/Mari"); string(raw) != `"A"` {
		t.Fatalf("unexpected fuss group %s", raw)
	}
}

func TestDocumentStoreRootUpdateInvalidatesEveryField(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := documentmock.NewStore(t)
	store := NewDocumentStore(next, basecache.NewStore(time.Minute))

	fields := map[string]any{"playerGroups/Jaan": nil, "fussGroups/Jaan": nil}
	next.On("Get", mock.Anything, "fussGroups").Return([]byte(`{"Jaan":"B"}`), nil).Once()
	next.On("Update", mock.Anything, "", fields).Return(nil).Once()
	next.On("Get", mock.Anything, "fussGroups").Return([]byte(`null`), nil).Once()

	_, _ = store.Get(ctx, "fussGroups")
	if err := store.Update(ctx, "", fields); err != nil {
		t.Fatalf("update: %v", err)
	}
	if raw, _ := store.Get(ctx, "fussGroups"); string(raw) != "null" {
		t.Fatalf("expected reload after root update, got %s", raw)
	}
}
