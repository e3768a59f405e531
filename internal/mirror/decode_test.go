package mirror

import (
	"testing"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
)

func TestReplaceDecodesTolerantly(t *testing.T) {
	state := NewState()

	replace := func(root, raw string) {
		t.Helper()
		if err := state.Replace(root, []byte(raw)); err != nil {
			t.Fatalf("replace %s: %v", root, err)
		}
	}

	replace(document.RootCoachFeedback, `{"2026-03-02":{"1":{"Mari":{"effort":"7.5","coachFeedback":8,"missedCoach":"n/a","comment":"hea"}}}}`)
	replace(document.RootSchedule, `{"tennis":[null,{"esmaspäev":"16:00 - 17:30"},{"teisipäev":"bad"}]}`)
	replace(document.RootPlayerGroups, `{"Mari":"2","Jaan":"Z","Anu":1}`)
	replace(document.RootDates, `{"2026-03-02":"whatever","not-a-date":"esmaspäev"}`)
	replace(document.RootArchivedPlayers, `{"Jaan":{"password":"x","tennisGroup":"2","archivedAt":1772798400000}}`)
	replace(document.RootAttendance, `{"2026-03-02":{"Mari":"Jah","Jaan":"maybe"}}`)

	review := state.CoachFeedback("2026-03-02", "1")["Mari"]
	if review.Effort == nil || *review.Effort != 7.5 || review.MissedCoach != nil || review.Comment != "hea" {
		t.Fatalf("unexpected review %+v", review)
	}

	sched := state.Schedule()
	if _, ok := sched.Slot(group.KindTennis, "1", "esmaspäev"); !ok {
		t.Fatalf("array packed schedule should decode")
	}
	if _, ok := sched.Slot(group.KindTennis, "2", "teisipäev"); ok {
		t.Fatalf("unparseable slot should be skipped")
	}

	groups := state.Groups(group.KindTennis)
	if groups["Mari"] != "2" || groups["Anu"] != "1" {
		t.Fatalf("unexpected groups %v", groups)
	}
	if _, ok := groups["Jaan"]; ok {
		t.Fatalf("invalid tag should be dropped")
	}

	dates := state.Dates()
	if len(dates) != 1 || dates[0].Weekday != "esmaspäev" {
		t.Fatalf("unexpected dates %+v", dates)
	}

	rec, ok := state.ArchivedPlayer("Jaan")
	if !ok || rec.Name != "Jaan" || !rec.ArchivedAt.Equal(time.UnixMilli(1772798400000)) {
		t.Fatalf("unexpected archive record %+v", rec)
	}

	if day := state.Day(group.KindTennis, "2026-03-02"); len(day) != 1 {
		t.Fatalf("unknown marks should be dropped, got %v", day)
	}

	replace(document.RootAttendance, ``)
	if len(state.Marks(group.KindTennis)) != 0 {
		t.Fatalf("empty snapshot should clear the collection")
	}
}
