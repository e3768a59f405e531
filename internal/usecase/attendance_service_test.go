package usecase

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

func TestAttendanceService_Table(t *testing.T) {
	t.Parallel()

	store, _ := newTestMirror(t, testSeed())
	svc := NewAttendanceService(store, testClock, logging.NewNop())
	ctx := context.Background()

	table, err := svc.Table(ctx, auth.Coach{}, "tennis", true)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	dates := calendar.Dates(table.Days)
	if !slices.Equal(dates, []string{"2026-03-02", "2026-03-04", "2026-03-09"}) {
		t.Fatalf("unexpected window %v", dates)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	// Group 1 first, then by name.
	if table.Rows[0].Player != "Anu" || table.Rows[1].Player != "Mari Maasikas" || table.Rows[2].Player != "Jaan Tamm" {
		t.Fatalf("unexpected row order %+v", table.Rows)
	}
	if table.Rows[1].Marks["2026-03-02"] != attendance.Yes || table.Rows[1].Marks["2026-03-04"] != attendance.No {
		t.Fatalf("unexpected marks %+v", table.Rows[1].Marks)
	}

	own, err := svc.Table(ctx, auth.Parent{Name: "Jaan Tamm"}, "fuss", false)
	if err != nil {
		t.Fatalf("own table: %v", err)
	}
	if len(own.Rows) != 1 || own.Rows[0].Player != "Jaan Tamm" || own.Rows[0].Group != "B" {
		t.Fatalf("parent should only see their player, got %+v", own.Rows)
	}

	_, err = svc.Table(ctx, auth.Coach{}, "swimming", false)
	assertErrorIs(t, err, ErrInvalidInput)
}

func TestAttendanceService_TableFollowsDatesCollection(t *testing.T) {
	t.Parallel()

	monday := Clock{Location: time.UTC, Now: func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }}

	tests := []struct {
		name        string
		dates       map[string]string
		includePast bool
		want        []string
	}{
		{
			name: "only training days",
			dates: map[string]string{
				"2026-02-25": "kolmapäev",
				"2026-03-02": "esmaspäev",
				"2026-03-04": "kolmapäev",
				"2026-03-09": "esmaspäev",
				"2026-03-11": "kolmapäev",
				"2026-03-16": "esmaspäev",
				"2026-03-18": "kolmapäev",
			},
			want: []string{"2026-03-02", "2026-03-04", "2026-03-09", "2026-03-11", "2026-03-16"},
		},
		{
			name: "past days first",
			dates: map[string]string{
				"2026-03-04": "kolmapäev",
				"2026-02-23": "esmaspäev",
				"2026-02-25": "kolmapäev",
			},
			includePast: true,
			want:        []string{"2026-02-23", "2026-02-25", "2026-03-04"},
		},
		{
			name: "empty collection falls back to weekdays",
			want: []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seed := testSeed()
			if tc.dates == nil {
				delete(seed, document.RootDates)
			} else {
				seed[document.RootDates] = tc.dates
			}
			store, _ := newTestMirror(t, seed)
			svc := NewAttendanceService(store, monday, logging.NewNop())

			table, err := svc.Table(context.Background(), auth.Coach{}, "tennis", tc.includePast)
			if err != nil {
				t.Fatalf("table: %v", err)
			}
			if got := calendar.Dates(table.Days); !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAttendanceService_SetMark(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewAttendanceService(store, testClock, logging.NewNop())
	ctx := context.Background()
	jaan := auth.Player{Name: "Jaan Tamm"}

	res, err := svc.SetMark(ctx, jaan, "tennis", "2026-03-09", "Jaan Tamm", "Jah")
	if err != nil {
		t.Fatalf("set mark: %v", err)
	}
	if got := store.State().Mark(group.KindTennis, "2026-03-09", "Jaan Tamm"); got != attendance.Yes {
		t.Fatalf("mark should be visible before the write settles, got %s", got)
	}
	waitWrite(t, res)
	raw, _ := remote.Get(ctx, "attendance/2026-03-09/Jaan Tamm")
	if string(raw) != `"Jah"` {
		t.Fatalf("unexpected remote value %s", raw)
	}

	_, err = svc.SetMark(ctx, jaan, "tennis", "2026-03-09", "Mari Maasikas", "Jah")
	assertErrorIs(t, err, ErrForbidden)
	_, err = svc.SetMark(ctx, jaan, "tennis", "2026-03-09", "Jaan Tamm", "maybe")
	assertErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetMark(ctx, jaan, "tennis", "09.03.2026", "Jaan Tamm", "Jah")
	assertErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetMark(ctx, auth.Admin{}, "tennis", "2026-03-09", "Ghost", "Jah")
	assertErrorIs(t, err, ErrNotFound)

	mark, res, err := svc.Toggle(ctx, auth.Coach{}, "fuss", "2026-03-09", "Anu")
	if err != nil || mark != attendance.Yes {
		t.Fatalf("toggle: %s %v", mark, err)
	}
	waitWrite(t, res)
	mark, _, _ = svc.Toggle(ctx, auth.Coach{}, "fuss", "2026-03-09", "Anu")
	if mark != attendance.No {
		t.Fatalf("second toggle should clear, got %s", mark)
	}
}

func TestAttendanceService_SetEffort(t *testing.T) {
	t.Parallel()

	store, remote := newTestMirror(t, testSeed())
	svc := NewAttendanceService(store, testClock, logging.NewNop())
	ctx := context.Background()
	four := 4

	_, err := svc.SetEffort(ctx, auth.Player{Name: "Jaan Tamm"}, "2026-03-02", "Jaan Tamm", &four)
	assertErrorIs(t, err, ErrForbidden)

	six := 6
	_, err = svc.SetEffort(ctx, auth.Coach{}, "2026-03-02", "Jaan Tamm", &six)
	assertErrorIs(t, err, ErrInvalidInput)

	res, err := svc.SetEffort(ctx, auth.Coach{}, "2026-03-02", "Jaan Tamm", &four)
	if err != nil {
		t.Fatalf("set effort: %v", err)
	}
	waitWrite(t, res)
	if raw, _ := remote.Get(ctx, "fussEffort/2026-03-02/B/Jaan Tamm"); string(raw) != "4" {
		t.Fatalf("effort should be stored under the fuss group, got %s", raw)
	}

	res, _ = svc.SetEffort(ctx, auth.Coach{}, "2026-03-02", "Jaan Tamm", nil)
	waitWrite(t, res)
	if raw, _ := remote.Get(ctx, "fussEffort/2026-03-02"); string(raw) != "null" {
		t.Fatalf("clearing effort should delete the key, got %s", raw)
	}
}

func TestAttendanceService_ConcurrentTogglesKeepParity(t *testing.T) {
	t.Parallel()

	store, _ := newTestMirror(t, testSeed())
	svc := NewAttendanceService(store, testClock, logging.NewNop())
	ctx := context.Background()

	const toggles = 20
	var wg sync.WaitGroup
	for range toggles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Toggle(ctx, auth.Coach{}, "tennis", "2026-03-09", "Anu"); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.State().Mark(group.KindTennis, "2026-03-09", "Anu"); got != attendance.No {
		t.Fatalf("an even number of toggles should end at Ei, got %s", got)
	}
}
