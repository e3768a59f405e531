package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// SlotInput identifies one weekly slot.
type SlotInput struct {
	Kind    string
	Group   string
	Weekday string
	// Time is "HH:MM - HH:MM"; it is ignored on removal.
	Time string
}

type ScheduleService struct {
	store  *mirror.Store
	clock  Clock
	logger *logging.Logger
}

func NewScheduleService(store *mirror.Store, clock Clock, logger *logging.Logger) *ScheduleService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleService{store: store, clock: clock, logger: logger}
}

func (s *ScheduleService) Schedule(ctx context.Context) schedule.Schedule {
	_, span := startUsecaseSpan(ctx, "usecase.ScheduleService.Schedule")
	defer span.End()

	return s.store.State().Schedule()
}

func (s *ScheduleService) SetSlot(ctx context.Context, input SlotInput) (schedule.TimeRange, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.SetSlot")
	defer span.End()

	kind, tag, weekday, err := parseSlot(input)
	if err != nil {
		return schedule.TimeRange{}, nil, err
	}
	r, err := schedule.ParseTimeRange(input.Time)
	if err != nil {
		return schedule.TimeRange{}, nil, classify(err)
	}

	s.logger.InfoContext(ctx, "set schedule slot", "kind", string(kind), "group", string(tag), "weekday", weekday, "time", r.String())
	return r, s.store.SetSlot(ctx, kind, tag, weekday, r), nil
}

func (s *ScheduleService) RemoveSlot(ctx context.Context, input SlotInput) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.RemoveSlot")
	defer span.End()

	kind, tag, weekday, err := parseSlot(input)
	if err != nil {
		return nil, err
	}
	if _, ok := s.store.State().Schedule().Slot(kind, tag, weekday); !ok {
		return nil, fmt.Errorf("%w: no %s group %s slot on %s", ErrNotFound, kind, tag, weekday)
	}
	return s.store.RemoveSlot(ctx, kind, tag, weekday), nil
}

// Dates lists the session dates of the table window.
func (s *ScheduleService) Dates(ctx context.Context, includePast bool) []calendar.Day {
	_, span := startUsecaseSpan(ctx, "usecase.ScheduleService.Dates")
	defer span.End()

	return tableWindow(s.store.State(), s.clock.now(), includePast)
}

func (s *ScheduleService) AddDate(ctx context.Context, raw string) (calendar.Day, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.AddDate")
	defer span.End()

	day, err := parseDate(raw)
	if err != nil {
		return calendar.Day{}, nil, err
	}
	return day, s.store.AddDate(ctx, day), nil
}

func (s *ScheduleService) RemoveDate(ctx context.Context, raw string) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.RemoveDate")
	defer span.End()

	day, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return s.store.RemoveDate(ctx, day.Date), nil
}

func parseSlot(input SlotInput) (group.Kind, group.Tag, string, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return "", "", "", err
	}
	tag := group.Tag(strings.ToUpper(strings.TrimSpace(input.Group)))
	if err := kind.Validate(tag); err != nil {
		return "", "", "", classify(err)
	}
	weekday := strings.ToLower(strings.TrimSpace(input.Weekday))
	if _, ok := calendar.ParseWeekday(weekday); !ok {
		return "", "", "", fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, input.Weekday)
	}
	return kind, tag, weekday, nil
}
