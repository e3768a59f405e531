package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

var rangePattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*[-–]\s*(\d{1,2}):(\d{2})\s*$`)

// TimeRange is a session slot in minutes after midnight, end exclusive of start.
type TimeRange struct {
	StartMinute int `json:"startMinute"`
	EndMinute   int `json:"endMinute"`
}

func NewTimeRange(startMinute, endMinute int) (TimeRange, error) {
	r := TimeRange{StartMinute: startMinute, EndMinute: endMinute}
	return r, r.Validate()
}

func (r TimeRange) Validate() error {
	if r.StartMinute < 0 || r.EndMinute > 24*60 || r.StartMinute >= r.EndMinute {
		return fmt.Errorf("%w: %d-%d", ErrInvalidTimeRange, r.StartMinute, r.EndMinute)
	}
	return nil
}

// ParseTimeRange reads the "HH:MM - HH:MM" form the remote store keeps.
func ParseTimeRange(raw string) (TimeRange, error) {
	m := rangePattern.FindStringSubmatch(raw)
	if m == nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, raw)
	}
	minute := func(h, mm string) (int, error) {
		hour, _ := strconv.Atoi(h)
		minute, _ := strconv.Atoi(mm)
		if hour > 24 || minute > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeRange, raw)
		}
		return hour*60 + minute, nil
	}
	start, err := minute(m[1], m[2])
	if err != nil {
		return TimeRange{}, err
	}
	end, err := minute(m[3], m[4])
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(start, end)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d - %02d:%02d", r.StartMinute/60, r.StartMinute%60, r.EndMinute/60, r.EndMinute%60)
}

// EndOn returns the wall-clock end of the slot on the given date.
func (r TimeRange) EndOn(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(time.Duration(r.EndMinute) * time.Minute)
}

// Schedule maps activity, group and weekday key to a slot. Weekday keys
// are the Estonian weekday names used by calendar.Day.
type Schedule map[group.Kind]map[group.Tag]map[string]TimeRange

func (s Schedule) Slot(kind group.Kind, tag group.Tag, weekday string) (TimeRange, bool) {
	r, ok := s[kind][tag][weekday]
	return r, ok
}

func (s Schedule) Set(kind group.Kind, tag group.Tag, weekday string, r TimeRange) {
	if s[kind] == nil {
		s[kind] = make(map[group.Tag]map[string]TimeRange)
	}
	if s[kind][tag] == nil {
		s[kind][tag] = make(map[string]TimeRange)
	}
	s[kind][tag][weekday] = r
}

func (s Schedule) Remove(kind group.Kind, tag group.Tag, weekday string) {
	delete(s[kind][tag], weekday)
	if len(s[kind][tag]) == 0 {
		delete(s[kind], tag)
	}
	if len(s[kind]) == 0 {
		delete(s, kind)
	}
}

func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for kind, groups := range s {
		for tag, days := range groups {
			for day, r := range days {
				out.Set(kind, tag, day, r)
			}
		}
	}
	return out
}
