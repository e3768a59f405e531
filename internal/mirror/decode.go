package mirror

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
)

// view is the typed form of every root. Shapes that do not fit are skipped
// and an absent root decodes to empty maps.
type view struct {
	dates           []calendar.Day
	schedule        schedule.Schedule
	marks           map[group.Kind]map[string]map[string]attendance.Mark
	fussEffort      map[string]map[group.Tag]map[string]int
	completed       map[string]bool
	groups          map[group.Kind]map[string]group.Tag
	archived        map[string]roster.ArchivedPlayer
	passwords       map[string]string
	parentPasswords map[string]string
	feedback        map[string]map[string]feedback.PlayerFeedback
	coachFeedback   map[string]map[group.Tag]map[string]feedback.CoachFeedback
}

func newView() view {
	return view{
		schedule:        schedule.Schedule{},
		marks:           map[group.Kind]map[string]map[string]attendance.Mark{group.KindTennis: {}, group.KindFuss: {}},
		fussEffort:      map[string]map[group.Tag]map[string]int{},
		completed:       map[string]bool{},
		groups:          map[group.Kind]map[string]group.Tag{group.KindTennis: {}, group.KindFuss: {}},
		archived:        map[string]roster.ArchivedPlayer{},
		passwords:       map[string]string{},
		parentPasswords: map[string]string{},
		feedback:        map[string]map[string]feedback.PlayerFeedback{},
		coachFeedback:   map[string]map[group.Tag]map[string]feedback.CoachFeedback{},
	}
}

func (v *view) decode(root string, node any) {
	switch root {
	case document.RootDates:
		v.dates = decodeDates(node)
	case document.RootSchedule:
		v.schedule = decodeSchedule(node)
	case document.RootAttendance:
		v.marks[group.KindTennis] = decodeMarks(node)
	case document.RootFussAttendance:
		v.marks[group.KindFuss] = decodeMarks(node)
	case document.RootFussEffort:
		v.fussEffort = decodeEffort(node)
	case document.RootTennisSessionsCompleted:
		v.completed = decodeFlags(node)
	case document.RootPlayerGroups:
		v.groups[group.KindTennis] = decodeGroups(group.KindTennis, node)
	case document.RootFussGroups:
		v.groups[group.KindFuss] = decodeGroups(group.KindFuss, node)
	case document.RootArchivedPlayers:
		v.archived = decodeArchived(node)
	case document.RootPlayerPasswords:
		v.passwords = decodeStrings(node)
	case document.RootParentPasswords:
		v.parentPasswords = decodeStrings(node)
	case document.RootFeedback:
		v.feedback = decodePlayerFeedback(node)
	case document.RootCoachFeedback:
		v.coachFeedback = decodeCoachFeedback(node)
	}
}

// entries reads an object node. Stores that pack integer-like keys into
// arrays are read back as index keyed objects.
func entries(node any) map[string]any {
	switch v := node.(type) {
	case map[string]any:
		return v
	case []any:
		out := make(map[string]any, len(v))
		for i, item := range v {
			if item != nil {
				out[strconv.Itoa(i)] = item
			}
		}
		return out
	default:
		return nil
	}
}

func text(node any) (string, bool) {
	switch v := node.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// number accepts JSON numbers and numeric strings.
func number(node any) (float64, bool) {
	switch v := node.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func optional(node any) *float64 {
	if f, ok := number(node); ok {
		return &f
	}
	return nil
}

// decodeDates reads date keyed entries. Weekdays are derived from the date
// and stored labels are ignored.
func decodeDates(node any) []calendar.Day {
	seen := make(map[string]bool)
	var out []calendar.Day
	for key, item := range entries(node) {
		date := key
		if obj := entries(item); obj != nil {
			if d, ok := text(obj["date"]); ok {
				date = d
			}
		}

		day, err := calendar.NewDay(date)
		if err != nil || seen[day.Date] {
			continue
		}
		seen[day.Date] = true
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func decodeSchedule(node any) schedule.Schedule {
	out := schedule.Schedule{}
	for kindKey, groups := range entries(node) {
		kind, err := group.ParseKind(kindKey)
		if err != nil {
			continue
		}
		for tag, days := range entries(groups) {
			for day, slot := range entries(days) {
				raw, ok := text(slot)
				if !ok {
					continue
				}
				r, err := schedule.ParseTimeRange(raw)
				if err != nil {
					continue
				}
				out.Set(kind, group.Tag(tag), day, r)
			}
		}
	}
	return out
}

func decodeMarks(node any) map[string]map[string]attendance.Mark {
	out := make(map[string]map[string]attendance.Mark)
	for date, players := range entries(node) {
		day := make(map[string]attendance.Mark)
		for player, raw := range entries(players) {
			s, _ := text(raw)
			if mark, err := attendance.ParseMark(s); err == nil {
				day[player] = mark
			}
		}
		if len(day) > 0 {
			out[date] = day
		}
	}
	return out
}

func decodeEffort(node any) map[string]map[group.Tag]map[string]int {
	out := make(map[string]map[group.Tag]map[string]int)
	for date, groups := range entries(node) {
		for tag, players := range entries(groups) {
			for player, raw := range entries(players) {
				f, ok := number(raw)
				if !ok {
					continue
				}
				if out[date] == nil {
					out[date] = make(map[group.Tag]map[string]int)
				}
				if out[date][group.Tag(tag)] == nil {
					out[date][group.Tag(tag)] = make(map[string]int)
				}
				out[date][group.Tag(tag)][player] = int(math.Round(f))
			}
		}
	}
	return out
}

func decodeFlags(node any) map[string]bool {
	out := make(map[string]bool)
	for key, raw := range entries(node) {
		if b, ok := raw.(bool); ok && b {
			out[key] = true
		}
	}
	return out
}

func decodeGroups(kind group.Kind, node any) map[string]group.Tag {
	out := make(map[string]group.Tag)
	for player, raw := range entries(node) {
		s, ok := text(raw)
		if !ok || kind.Validate(group.Tag(s)) != nil {
			continue
		}
		out[player] = group.Tag(s)
	}
	return out
}

func decodeStrings(node any) map[string]string {
	out := make(map[string]string)
	for key, raw := range entries(node) {
		if s, ok := text(raw); ok {
			out[key] = s
			continue
		}
		// Credential records written as {name, password} or {name, parent_password}.
		obj := entries(raw)
		for _, field := range []string{"password", "parent_password"} {
			if s, ok := text(obj[field]); ok {
				out[key] = s
				break
			}
		}
	}
	return out
}

func decodeArchived(node any) map[string]roster.ArchivedPlayer {
	out := make(map[string]roster.ArchivedPlayer)
	for key, raw := range entries(node) {
		obj := entries(raw)
		if obj == nil {
			continue
		}
		rec := roster.ArchivedPlayer{Name: key}
		if name, ok := text(obj["name"]); ok && name != "" {
			rec.Name = name
		}
		rec.Password, _ = text(obj["password"])
		rec.ParentPassword, _ = text(obj["parentPassword"])
		tennis, _ := text(obj["tennisGroup"])
		fuss, _ := text(obj["fussGroup"])
		rec.TennisGroup, rec.FussGroup = group.Tag(tennis), group.Tag(fuss)
		rec.ArchivedAt = decodeTime(obj["archivedAt"])
		out[key] = rec
	}
	return out
}

// decodeTime reads RFC 3339 text or epoch milliseconds.
func decodeTime(node any) time.Time {
	switch v := node.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Time{}
}

func decodePlayerFeedback(node any) map[string]map[string]feedback.PlayerFeedback {
	out := make(map[string]map[string]feedback.PlayerFeedback)
	for player, dates := range entries(node) {
		for date, raw := range entries(dates) {
			obj := entries(raw)
			if obj == nil {
				continue
			}
			intensity, _ := number(obj["intensity"])
			support, _ := number(obj["support"])
			clarity, _ := number(obj["clarity"])
			if out[player] == nil {
				out[player] = make(map[string]feedback.PlayerFeedback)
			}
			out[player][date] = feedback.PlayerFeedback{
				Intensity: int(math.Round(intensity)),
				Support:   int(math.Round(support)),
				Clarity:   int(math.Round(clarity)),
			}
		}
	}
	return out
}

func decodeCoachFeedback(node any) map[string]map[group.Tag]map[string]feedback.CoachFeedback {
	out := make(map[string]map[group.Tag]map[string]feedback.CoachFeedback)
	for date, groups := range entries(node) {
		for tag, players := range entries(groups) {
			for player, raw := range entries(players) {
				obj := entries(raw)
				if obj == nil {
					continue
				}
				rec := feedback.CoachFeedback{
					CoachFeedback:    optional(obj[feedback.MetricCoachFeedback]),
					Effort:           optional(obj[feedback.MetricEffort]),
					MissedCoach:      optional(obj[feedback.MetricMissedCoach]),
					ObjectiveClarity: optional(obj[feedback.MetricObjectiveClarity]),
				}
				rec.Comment, _ = obj["comment"].(string)
				if out[date] == nil {
					out[date] = make(map[group.Tag]map[string]feedback.CoachFeedback)
				}
				if out[date][group.Tag(tag)] == nil {
					out[date][group.Tag(tag)] = make(map[string]feedback.CoachFeedback)
				}
				out[date][group.Tag(tag)][player] = rec
			}
		}
	}
	return out
}
