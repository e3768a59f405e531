package usecase

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// AttendanceRow is one player line of an attendance table.
type AttendanceRow struct {
	Player string                     `json:"player"`
	Group  group.Tag                  `json:"group"`
	Marks  map[string]attendance.Mark `json:"marks"`
	Effort map[string]int             `json:"effort,omitempty"`
}

type AttendanceTable struct {
	Kind group.Kind      `json:"kind"`
	Days []calendar.Day  `json:"days"`
	Rows []AttendanceRow `json:"rows"`
}

type AttendanceService struct {
	store  *mirror.Store
	clock  Clock
	logger *logging.Logger
}

func NewAttendanceService(store *mirror.Store, clock Clock, logger *logging.Logger) *AttendanceService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AttendanceService{store: store, clock: clock, logger: logger}
}

// Table builds the attendance grid of kind. Player and parent sessions only
// see their own row.
func (s *AttendanceService) Table(ctx context.Context, sess auth.Session, rawKind string, includePast bool) (AttendanceTable, error) {
	_, span := startUsecaseSpan(ctx, "usecase.AttendanceService.Table")
	defer span.End()

	kind, err := parseKind(rawKind)
	if err != nil {
		return AttendanceTable{}, err
	}

	state := s.store.State()
	days := tableWindow(state, s.clock.now(), includePast)
	subject, scoped := auth.Subject(sess)

	rows := make([]AttendanceRow, 0)
	for _, m := range state.Members() {
		if scoped && m.Name != subject {
			continue
		}
		tag := m.Group(kind)
		row := AttendanceRow{Player: m.Name, Group: tag, Marks: make(map[string]attendance.Mark, len(days))}
		for _, day := range days {
			row.Marks[day.Date] = state.Mark(kind, day.Date, m.Name)
			if kind != group.KindFuss {
				continue
			}
			if v, ok := state.Effort(day.Date, tag, m.Name); ok {
				if row.Effort == nil {
					row.Effort = make(map[string]int)
				}
				row.Effort[day.Date] = v
			}
		}
		rows = append(rows, row)
	}
	rank := make(map[group.Tag]int)
	for i, tag := range kind.Allowed() {
		rank[tag] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Group != rows[j].Group {
			return rank[rows[i].Group] < rank[rows[j].Group]
		}
		return rows[i].Player < rows[j].Player
	})

	return AttendanceTable{Kind: kind, Days: days, Rows: rows}, nil
}

// SetMark records a player's answer for one date.
func (s *AttendanceService) SetMark(ctx context.Context, sess auth.Session, rawKind, date, player string, rawMark string) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.SetMark", attribute.String("attendance.kind", rawKind), attribute.String("attendance.date", date))
	defer span.End()

	kind, day, player, err := s.target(sess, rawKind, date, player)
	if err != nil {
		return nil, err
	}
	mark, err := attendance.ParseMark(rawMark)
	if err != nil {
		return nil, classify(err)
	}

	s.logger.DebugContext(ctx, "set attendance", "kind", string(kind), "date", day.Date, "player", player, "mark", string(mark))
	return s.store.SetMark(ctx, kind, day.Date, player, mark), nil
}

// Toggle flips the current mark, treating a missing mark as No.
func (s *AttendanceService) Toggle(ctx context.Context, sess auth.Session, rawKind, date, player string) (attendance.Mark, *mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.Toggle")
	defer span.End()

	kind, day, player, err := s.target(sess, rawKind, date, player)
	if err != nil {
		return "", nil, err
	}
	next, res := s.store.ToggleMark(ctx, kind, day.Date, player)
	return next, res, nil
}

// SetEffort rates a player's effort in their fuss group session. Nil clears
// the rating.
func (s *AttendanceService) SetEffort(ctx context.Context, sess auth.Session, date, player string, value *int) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AttendanceService.SetEffort", attribute.String("attendance.date", date))
	defer span.End()

	if !auth.HasRole(sess, auth.RoleCoach, auth.RoleAdmin) {
		return nil, fmt.Errorf("%w: only coaches rate effort", ErrForbidden)
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	state := s.store.State()
	if player, err = requireActive(state, player); err != nil {
		return nil, err
	}
	if err := attendance.ValidateEffort(value); err != nil {
		return nil, classify(err)
	}

	tag := state.Group(group.KindFuss, player)
	return s.store.SetEffort(ctx, day.Date, tag, player, value), nil
}

func (s *AttendanceService) target(sess auth.Session, rawKind, date, player string) (group.Kind, calendar.Day, string, error) {
	kind, err := parseKind(rawKind)
	if err != nil {
		return "", calendar.Day{}, "", err
	}
	day, err := parseDate(date)
	if err != nil {
		return "", calendar.Day{}, "", err
	}
	player, err = requireActive(s.store.State(), player)
	if err != nil {
		return "", calendar.Day{}, "", err
	}
	if !auth.CanActFor(sess, player) {
		return "", calendar.Day{}, "", fmt.Errorf("%w: cannot mark attendance for %s", ErrForbidden, player)
	}
	return kind, day, player, nil
}
