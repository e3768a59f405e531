// Package stats derives per-player attendance and feedback figures for the
// coach dashboard.
package stats

import (
	"math"
	"sort"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
)

const (
	// RecentWindow is how many of the latest records form the recent mean.
	RecentWindow = 5
	// DropRatio: a recent mean strictly below this share of the all-time mean is a drop.
	DropRatio = 0.7
)

// Dataset is a read-only copy of the mirrored collections stats reads.
type Dataset struct {
	Schedule       schedule.Schedule
	Attendance     map[string]map[string]attendance.Mark
	FussAttendance map[string]map[string]attendance.Mark
	FussEffort     map[string]map[group.Tag]map[string]int
	CoachFeedback  map[string]map[group.Tag]map[string]feedback.CoachFeedback
}

// Record is one session a player was expected at or has data for.
type Record struct {
	Date             string     `json:"date"`
	Type             group.Kind `json:"type"`
	Attended         bool       `json:"attended"`
	CoachFeedback    float64    `json:"coachFeedback"`
	Effort           float64    `json:"effort"`
	MissedCoach      float64    `json:"missedCoach"`
	ObjectiveClarity float64    `json:"objectiveClarity"`
}

type PlayerStats struct {
	Name                   string  `json:"name"`
	Records                int     `json:"records"`
	AttendancePct          float64 `json:"attendancePct"`
	TennisCoachFeedbackAvg float64 `json:"tennisCoachFeedbackAvg"`
	FussCoachFeedbackAvg   float64 `json:"fussCoachFeedbackAvg"`
	AvgEffort              float64 `json:"avgEffort"`
	AvgMissedCoach         float64 `json:"avgMissedCoach"`
	AvgObjectiveClarity    float64 `json:"avgObjectiveClarity"`
	RecentEffort           float64 `json:"recentEffort"`
	RecentMissedCoach      float64 `json:"recentMissedCoach"`
	RecentObjectiveClarity float64 `json:"recentObjectiveClarity"`
	EffortDropFlag         bool    `json:"effortDropFlag"`
	CoachDropFlag          bool    `json:"coachDropFlag"`
	ClarityDropFlag        bool    `json:"clarityDropFlag"`
}

type GroupStats struct {
	Kind    group.Kind    `json:"kind"`
	Tag     group.Tag     `json:"tag"`
	Players []PlayerStats `json:"players"`
}

// Input describes one dashboard computation. Dates are calendar date keys.
type Input struct {
	Kind    group.Kind
	Start   string
	Today   string
	Window  []calendar.Day
	Members []roster.Member
	Data    Dataset
}

// Compute groups members by their tag for in.Kind and summarizes each one.
// Groups come out in tag order, players by name.
func Compute(in Input) []GroupStats {
	byTag := make(map[group.Tag][]roster.Member)
	for _, m := range in.Members {
		tag := m.Group(in.Kind)
		byTag[tag] = append(byTag[tag], m)
	}

	tags := make([]group.Tag, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	in.Kind.SortTags(tags)

	out := make([]GroupStats, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ComputeGroup(in, tag, byTag[tag]))
	}
	return out
}

// ComputeGroup summarizes the given members of one group.
func ComputeGroup(in Input, tag group.Tag, members []roster.Member) GroupStats {
	sorted := append([]roster.Member(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	players := make([]PlayerStats, 0, len(sorted))
	for _, m := range sorted {
		players = append(players, Summarize(m.Name, Collect(in.Data, m, in.Window, in.Start, in.Today)))
	}
	return GroupStats{Kind: in.Kind, Tag: tag, Players: players}
}

// Collect lists the member's records for window dates within [start, today],
// oldest first and tennis before fuss on the same date. A record exists
// when the member's group trains that weekday or any data was entered.
func Collect(data Dataset, m roster.Member, window []calendar.Day, start, today string) []Record {
	days := append([]calendar.Day(nil), window...)
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var out []Record
	for _, day := range days {
		if day.Date < start || day.Date > today {
			continue
		}
		for _, kind := range []group.Kind{group.KindTennis, group.KindFuss} {
			if rec, ok := collectOne(data, m, day, kind); ok {
				out = append(out, rec)
			}
		}
	}
	return out
}

func collectOne(data Dataset, m roster.Member, day calendar.Day, kind group.Kind) (Record, bool) {
	tag := m.Group(kind)
	marks := data.Attendance[day.Date]
	if kind == group.KindFuss {
		marks = data.FussAttendance[day.Date]
	}

	mark, hasMark := marks[m.Name]
	review, hasReview := data.CoachFeedback[day.Date][tag][m.Name]
	effort, hasEffort := 0, false
	if kind == group.KindFuss {
		effort, hasEffort = data.FussEffort[day.Date][tag][m.Name]
	}
	_, scheduled := data.Schedule.Slot(kind, tag, day.Weekday)

	if !scheduled && !hasMark && !hasReview && !hasEffort {
		return Record{}, false
	}

	rec := Record{
		Date:             day.Date,
		Type:             kind,
		Attended:         mark.Attending(),
		CoachFeedback:    review.Value(feedback.MetricCoachFeedback),
		Effort:           review.Value(feedback.MetricEffort),
		MissedCoach:      review.Value(feedback.MetricMissedCoach),
		ObjectiveClarity: review.Value(feedback.MetricObjectiveClarity),
	}
	if review.Effort == nil && hasEffort {
		rec.Effort = float64(effort)
	}
	return rec, true
}

// Summarize computes the figures for one player's records. Missing metrics
// were already read as zero, so sparse data pulls the means down.
func Summarize(name string, records []Record) PlayerStats {
	out := PlayerStats{Name: name, Records: len(records)}
	if len(records) == 0 {
		return out
	}

	attended := 0
	var tennis, fuss []float64
	for _, r := range records {
		if r.Attended {
			attended++
		}
		if r.Type == group.KindFuss {
			fuss = append(fuss, r.CoachFeedback)
		} else {
			tennis = append(tennis, r.CoachFeedback)
		}
	}
	out.AttendancePct = round(float64(attended)/float64(len(records))*100, 1)
	out.TennisCoachFeedbackAvg = round(mean(tennis), 2)
	out.FussCoachFeedbackAvg = round(mean(fuss), 2)

	recent := records
	if len(recent) > RecentWindow {
		recent = recent[len(recent)-RecentWindow:]
	}

	pick := func(rs []Record, f func(Record) float64) float64 {
		vals := make([]float64, len(rs))
		for i, r := range rs {
			vals[i] = f(r)
		}
		return mean(vals)
	}
	effort := func(r Record) float64 { return r.Effort }
	missed := func(r Record) float64 { return r.MissedCoach }
	clarity := func(r Record) float64 { return r.ObjectiveClarity }

	allEffort, recentEffort := pick(records, effort), pick(recent, effort)
	allMissed, recentMissed := pick(records, missed), pick(recent, missed)
	allClarity, recentClarity := pick(records, clarity), pick(recent, clarity)

	out.AvgEffort = round(allEffort, 2)
	out.AvgMissedCoach = round(allMissed, 2)
	out.AvgObjectiveClarity = round(allClarity, 2)
	out.RecentEffort = round(recentEffort, 2)
	out.RecentMissedCoach = round(recentMissed, 2)
	out.RecentObjectiveClarity = round(recentClarity, 2)
	out.EffortDropFlag = Dropped(recentEffort, allEffort)
	out.CoachDropFlag = Dropped(recentMissed, allMissed)
	out.ClarityDropFlag = Dropped(recentClarity, allClarity)
	return out
}

// Dropped reports a significant fall of the recent mean against the all-time mean.
func Dropped(recent, allTime float64) bool {
	return recent > 0 && recent < DropRatio*allTime
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
