package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func TestGroupService_Assign(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewGroupService(store, logging.NewNop())
	ctx := context.Background()

	_, err := svc.Assign(ctx, "fuss", "Anu", "2")
	assertErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Assign(ctx, "fuss", "Ghost", "A")
	assertErrorIs(t, err, ErrNotFound)

	res, err := svc.Assign(ctx, "fuss", "Anu", "b")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	waitWrite(t, res)
	if raw, _ := remote.Get(ctx, "fussGroups/Anu"); string(raw) != `"B"` {
		t.Fatalf("unexpected stored group %s", raw)
	}
	for _, m := range svc.List(ctx) {
		if m.Name == "Anu" && m.FussGroup != "B" {
			t.Fatalf("assignment not visible, got %+v", m)
		}
	}
}

func TestGroupService_Notice(t *testing.T) {
	t.Parallel()

	store, _ := newTestMirror(t, testSeed())
	svc := NewGroupService(store, logging.NewNop())
	ctx := context.Background()
	jaan := auth.Parent{Name: "Jaan Tamm"}

	_, err := svc.Notice(ctx, auth.Coach{})
	assertErrorIs(t, err, ErrForbidden)

	notice, err := svc.Notice(ctx, jaan)
	if err != nil {
		t.Fatalf("notice: %v", err)
	}
	if notice.Changed || notice.TennisGroup != "2" || notice.FussGroup != "B" {
		t.Fatalf("unexpected notice %+v", notice)
	}

	waitWrite(t, store.SetGroup(ctx, group.KindTennis, "Jaan Tamm", "1"))
	if notice, _ = svc.Notice(ctx, jaan); !notice.Changed || notice.TennisGroup != "1" {
		t.Fatalf("expected changed notice, got %+v", notice)
	}

	if err := svc.Acknowledge(ctx, jaan); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if notice, _ = svc.Notice(ctx, jaan); notice.Changed {
		t.Fatalf("acknowledged notice still changed")
	}
}

func TestGroupService_FillDefaults(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewGroupService(store, logging.NewNop())
	ctx := context.Background()

	before := remote.Writes()
	svc.FillDefaults(ctx, document.RootAttendance)
	if remote.Writes() != before {
		t.Fatalf("unrelated roots must not trigger a fill")
	}

	svc.FillDefaults(ctx, document.RootFussGroups)
	deadline := time.Now().Add(2 * time.Second)
	for {
		raw, _ := remote.Get(ctx, "fussGroups/Anu")
		tennis, _ := remote.Get(ctx, "playerGroups/Anu")
		if string(raw) == `"A"` && string(tennis) == `"1"` {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("defaults not written, fuss=%s tennis=%s", raw, tennis)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if raw, _ := remote.Get(ctx, "fussGroups/Mari Maasikas"); string(raw) != `"A"` {
		t.Fatalf("missing default for Mari, got %s", raw)
	}
	if raw, _ := remote.Get(ctx, "playerGroups/Jaan Tamm"); string(raw) != `"2"` {
		t.Fatalf("existing assignment overwritten, got %s", raw)
	}
}
