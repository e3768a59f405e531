package calendar

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO-8601 calendar date used for every date key.
const DateLayout = "2006-01-02"

// WindowSize is how many today-or-future dates an attendance table shows.
const WindowSize = 5

// maxLookback caps how far PreviousWeekdays scans.
const maxLookback = 60

// Day is one session date with its Estonian weekday name.
type Day struct {
	Date    string `json:"date"`
	Weekday string `json:"day"`
}

var weekdayNames = [...]string{
	time.Sunday:    "pühapäev",
	time.Monday:    "esmaspäev",
	time.Tuesday:   "teisipäev",
	time.Wednesday: "kolmapäev",
	time.Thursday:  "neljapäev",
	time.Friday:    "reede",
	time.Saturday:  "laupäev",
}

func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday maps an Estonian weekday name back to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d, candidate := range weekdayNames {
		if candidate == name {
			return time.Weekday(d), true
		}
	}
	return 0, false
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a date key in loc (UTC when nil) at midnight.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// NewDay builds a Day from a date key.
func NewDay(raw string) (Day, error) {
	t, err := ParseDate(raw, nil)
	if err != nil {
		return Day{}, err
	}
	return dayOf(t), nil
}

// NextWeekdays returns n weekdays starting with the calendar day of now.
func NextWeekdays(now time.Time, n int) []Day {
	if n <= 0 {
		return nil
	}
	out := make([]Day, 0, n)
	for d := midnight(now); len(out) < n; d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) {
			continue
		}
		out = append(out, dayOf(d))
	}
	return out
}

// PreviousWeekdays walks back from reference, exclusive, and returns up to n
// weekdays in ascending order. It gives up after 60 calendar days.
func PreviousWeekdays(reference time.Time, n int) []Day {
	if n <= 0 {
		return nil
	}
	out := make([]Day, 0, n)
	d := midnight(reference)
	for scanned := 0; scanned < maxLookback && len(out) < n; scanned++ {
		d = d.AddDate(0, 0, -1)
		if IsWeekend(d) {
			continue
		}
		out = append(out, dayOf(d))
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// TableWindow picks the columns of an attendance table from the known
// session dates: the WindowSize nearest dates on or after today, preceded by
// every strictly past date when includePast is set. Output is ascending and
// duplicate free. Unparseable dates are skipped.
func TableWindow(now time.Time, includePast bool, known []Day) []Day {
	today := FormatDate(now)

	seen := make(map[string]struct{}, len(known))
	unique := make([]Day, 0, len(known))
	for _, day := range known {
		if _, err := ParseDate(day.Date, nil); err != nil {
			continue
		}
		if _, dup := seen[day.Date]; dup {
			continue
		}
		seen[day.Date] = struct{}{}
		if day.Weekday == "" {
			day = mustDay(day.Date)
		}
		unique = append(unique, day)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Date < unique[j].Date })

	split := sort.Search(len(unique), func(i int) bool { return unique[i].Date >= today })
	future := unique[split:]
	if len(future) > WindowSize {
		future = future[:WindowSize]
	}

	if !includePast {
		return append([]Day(nil), future...)
	}
	out := make([]Day, 0, split+len(future))
	out = append(out, unique[:split]...)
	return append(out, future...)
}

// Dates extracts the date keys.
func Dates(days []Day) []string {
	out := make([]string, len(days))
	for i, day := range days {
		out[i] = day.Date
	}
	return out
}

func dayOf(t time.Time) Day {
	return Day{Date: FormatDate(t), Weekday: WeekdayName(t.Weekday())}
}

func mustDay(raw string) Day {
	day, err := NewDay(raw)
	if err != nil {
		return Day{Date: raw}
	}
	return day
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
