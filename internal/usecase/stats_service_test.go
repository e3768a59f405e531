package usecase

import (
	"context"
	"testing"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func TestStatsService_Groups(t *testing.T) {
	t.Parallel()

	store, _ := newTestMirror(t, testSeed())
	svc := NewStatsService(store, testClock, "2026-03-01", logging.NewNop())

	groups, err := svc.Groups(context.Background(), "tennis")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 2 || groups[0].Tag != "1" || groups[1].Tag != "2" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	names := []string{}
	for _, p := range groups[0].Players {
		names = append(names, p.Name)
	}
	if len(names) != 2 || names[0] != "Anu" || names[1] != "Mari Maasikas" {
		t.Fatalf("unexpected group 1 players %v", names)
	}
	if groups[1].Kind != group.KindTennis || groups[1].Players[0].Name != "Jaan Tamm" {
		t.Fatalf("unexpected group 2 %+v", groups[1])
	}

	_, err = svc.Groups(context.Background(), "padel")
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestStatsService_Player(t *testing.T) {
	t.Parallel()

	store, _ := newTestMirror(t, testSeed())
	svc := NewStatsService(store, testClock, "2026-03-01", logging.NewNop())
	ctx := context.Background()

	summary, err := svc.Player(ctx, auth.Player{Name: "Mari Maasikas"}, "Mari Maasikas")
	if err != nil {
		t.Fatalf("player stats: %v", err)
	}
	if len(summary.Records) == 0 {
		t.Fatalf("expected records")
	}
	first := summary.Records[0]
	if first.Date != "2026-03-02" || first.Type != group.KindTennis || !first.Attended {
		t.Fatalf("unexpected first record %+v", first)
	}
	for _, r := range summary.Records {
		if r.Date > "2026-03-06" {
			t.Fatalf("records must stop at today, got %s", r.Date)
		}
	}
	if summary.Stats.Records != len(summary.Records) || summary.Stats.AttendancePct <= 0 {
		t.Fatalf("unexpected summary %+v", summary.Stats)
	}

	_, err = svc.Player(ctx, auth.Player{Name: "Jaan Tamm"}, "Mari Maasikas")
	assertErrorIs(t, err, ErrForbidden)
	_, err = svc.Player(ctx, auth.Coach{}, "Ghost")
	assertErrorIs(t, err, ErrNotFound)
}
