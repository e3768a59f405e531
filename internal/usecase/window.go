package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
)

// Clock gives services the local program time.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// knownDays is the dates collection, or the upcoming weekdays while it is
// still empty.
func knownDays(state *mirror.State, now time.Time) []calendar.Day {
	if days := state.Dates(); len(days) > 0 {
		return days
	}
	return calendar.NextWeekdays(now, calendar.WindowSize)
}

func tableWindow(state *mirror.State, now time.Time, includePast bool) []calendar.Day {
	return calendar.TableWindow(now, includePast, knownDays(state, now))
}

func parseKind(raw string) (group.Kind, error) {
	kind, err := group.ParseKind(strings.TrimSpace(strings.ToLower(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return kind, nil
}

func parseDate(raw string) (calendar.Day, error) {
	day, err := calendar.NewDay(strings.TrimSpace(raw))
	if err != nil {
		return calendar.Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return day, nil
}

func requireActive(state *mirror.State, player string) (string, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return "", fmt.Errorf("%w: player is required", ErrInvalidInput)
	}
	if _, ok := state.Password(player); !ok {
		return "", fmt.Errorf("%w: player %s", ErrNotFound, player)
	}
	return player, nil
}
