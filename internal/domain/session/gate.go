package session

import (
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
)

// State of one (date, group) session in the coach review flow.
type State string

const (
	Pending        State = "pending"
	ReviewEligible State = "review_eligible"
	Completed      State = "completed"
)

// Key is the tennisSessionsCompleted key for a session.
func Key(date string, tag group.Tag) string {
	return date + "-" + string(tag)
}

// Facts is everything the gate needs to decide a session's state.
type Facts struct {
	Now  time.Time
	Date time.Time
	// Slot is nil when the group has nothing scheduled that weekday.
	Slot          *schedule.TimeRange
	AnyAttendance bool
	Completed     bool
}

// Evaluate derives the state. Completion is sticky and stays editable; a
// session without a slot is reviewable from the end of its day.
func Evaluate(f Facts) State {
	if f.Completed {
		return Completed
	}
	if !f.AnyAttendance {
		return Pending
	}

	end := endOfDay(f.Date)
	if f.Slot != nil {
		end = f.Slot.EndOn(f.Date)
	}
	if f.Now.After(end) {
		return ReviewEligible
	}
	return Pending
}

// Editable reports whether the coach may open the review form.
func (s State) Editable() bool {
	return s == ReviewEligible || s == Completed
}

func endOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, date.Location())
}
