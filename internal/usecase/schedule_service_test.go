package usecase

import (
	"context"
	"testing"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func TestScheduleService_Slots(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewScheduleService(store, testClock, logging.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		input SlotInput
	}{
		{"unknown kind", SlotInput{Kind: "golf", Group: "1", Weekday: "laupäev", Time: "10:00 - 11:00"}},
		{"wrong tag for kind", SlotInput{Kind: "tennis", Group: "A", Weekday: "laupäev", Time: "10:00 - 11:00"}},
		{"unknown weekday", SlotInput{Kind: "tennis", Group: "1", Weekday: "saturday", Time: "10:00 - 11:00"}},
		{"bad time", SlotInput{Kind: "tennis", Group: "1", Weekday: "laupäev", Time: "11:00 - 10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.SetSlot(ctx, tt.input)
			assertErrorIs(t, err, ErrInvalidInput)
		})
	}

	r, res, err := svc.SetSlot(ctx, SlotInput{Kind: "Tennis", Group: "2", Weekday: "Laupäev", Time: "10:00 - 11:30"})
	if err != nil {
		t.Fatalf("set slot: %v", err)
	}
	waitWrite(t, res)
	if r.String() != "10:00 - 11:30" {
		t.Fatalf("unexpected range %s", r)
	}
	if raw, _ := remote.Get(ctx, "schedule/tennis/2/laupäev"); string(raw) != `"10:00 - 11:30"` {
		t.Fatalf("unexpected stored slot %s", raw)
	}
	if _, ok := svc.Schedule(ctx).Slot(group.KindTennis, "2", "laupäev"); !ok {
		t.Fatalf("slot not visible locally")
	}

	res, err = svc.RemoveSlot(ctx, SlotInput{Kind: "tennis", Group: "2", Weekday: "laupäev"})
	if err != nil {
		t.Fatalf("remove slot: %v", err)
	}
	waitWrite(t, res)
	_, err = svc.RemoveSlot(ctx, SlotInput{Kind: "tennis", Group: "2", Weekday: "laupäev"})
	assertErrorIs(t, err, ErrNotFound)
}

func TestScheduleService_Dates(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewScheduleService(store, testClock, logging.NewNop())
	ctx := context.Background()

	_, _, err := svc.AddDate(ctx, "16.03.2026")
	assertErrorIs(t, err, ErrInvalidInput)

	day, res, err := svc.AddDate(ctx, "2026-03-16")
	if err != nil {
		t.Fatalf("add date: %v", err)
	}
	waitWrite(t, res)
	if day.Weekday != "esmaspäev" {
		t.Fatalf("unexpected weekday %q", day.Weekday)
	}
	if raw, _ := remote.Get(ctx, "dates/2026-03-16"); string(raw) != `"esmaspäev"` {
		t.Fatalf("unexpected stored date %s", raw)
	}

	res, err = svc.RemoveDate(ctx, "2026-03-04")
	if err != nil {
		t.Fatalf("remove date: %v", err)
	}
	waitWrite(t, res)
	for _, d := range svc.Dates(ctx, true) {
		if d.Date == "2026-03-04" {
			t.Fatalf("removed date should leave the window")
		}
	}
}
