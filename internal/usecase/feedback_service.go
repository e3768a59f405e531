package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/auth"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/session"
	"github.com/tallink-tennis/fuss-tracker/internal/mirror"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
)

// SessionStatus is one row of the coach's session list.
type SessionStatus struct {
	Date      string        `json:"date"`
	Weekday   string        `json:"day"`
	Kind      group.Kind    `json:"kind"`
	Group     group.Tag     `json:"group"`
	Time      string        `json:"time,omitempty"`
	Attending []string      `json:"attending"`
	State     session.State `json:"state"`
	Editable  bool          `json:"editable"`
}

// SessionReview is what the coach review form shows for one session.
type SessionReview struct {
	SessionStatus
	Records map[string]feedback.CoachFeedback `json:"records"`
}

type FeedbackService struct {
	store  *mirror.Store
	clock  Clock
	logger *logging.Logger
}

func NewFeedbackService(store *mirror.Store, clock Clock, logger *logging.Logger) *FeedbackService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FeedbackService{store: store, clock: clock, logger: logger}
}

// SubmitPlayerFeedback stores a player's rating of one session.
func (s *FeedbackService) SubmitPlayerFeedback(ctx context.Context, sess auth.Session, player, date string, fb feedback.PlayerFeedback) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedbackService.SubmitPlayerFeedback")
	defer span.End()

	player, err := requireActive(s.store.State(), player)
	if err != nil {
		return nil, err
	}
	if !auth.CanActFor(sess, player) {
		return nil, fmt.Errorf("%w: cannot submit feedback for %s", ErrForbidden, player)
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if err := fb.Validate(); err != nil {
		return nil, classify(err)
	}
	return s.store.SetPlayerFeedback(ctx, player, day.Date, fb), nil
}

func (s *FeedbackService) PlayerFeedback(ctx context.Context, sess auth.Session, player string) (map[string]feedback.PlayerFeedback, error) {
	_, span := startUsecaseSpan(ctx, "usecase.FeedbackService.PlayerFeedback")
	defer span.End()

	player = strings.TrimSpace(player)
	if !auth.CanActFor(sess, player) {
		return nil, fmt.Errorf("%w: cannot read feedback of %s", ErrForbidden, player)
	}
	return s.store.State().PlayerFeedback(player), nil
}

// Sessions lists every scheduled or attended session of the table window
// with its review state.
func (s *FeedbackService) Sessions(ctx context.Context) []SessionStatus {
	_, span := startUsecaseSpan(ctx, "usecase.FeedbackService.Sessions")
	defer span.End()

	now := s.clock.now()
	state := s.store.State()

	out := make([]SessionStatus, 0)
	for _, day := range tableWindow(state, now, true) {
		for _, kind := range []group.Kind{group.KindTennis, group.KindFuss} {
			for _, tag := range kind.Allowed() {
				status := s.status(kind, tag, day, now)
				if status.Time == "" && len(status.Attending) == 0 && status.State != session.Completed {
					continue
				}
				out = append(out, status)
			}
		}
	}
	return out
}

// Review returns a session with the coach feedback recorded so far.
func (s *FeedbackService) Review(ctx context.Context, date, rawKind, rawTag string) (SessionReview, error) {
	_, span := startUsecaseSpan(ctx, "usecase.FeedbackService.Review")
	defer span.End()

	kind, tag, day, err := parseSession(date, rawKind, rawTag)
	if err != nil {
		return SessionReview{}, err
	}
	return SessionReview{
		SessionStatus: s.status(kind, tag, day, s.clock.now()),
		Records:       s.store.State().CoachFeedback(day.Date, tag),
	}, nil
}

// SubmitCoachFeedback stores the review of a session and marks it
// completed. The session must have ended with someone attending, or already
// be completed.
func (s *FeedbackService) SubmitCoachFeedback(ctx context.Context, date, rawKind, rawTag string, records map[string]feedback.CoachFeedback) (*mirror.WriteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedbackService.SubmitCoachFeedback",
		attribute.String("session.date", date),
		attribute.String("session.group", rawTag),
		attribute.Int("feedback.records", len(records)),
	)
	defer span.End()

	kind, tag, day, err := parseSession(date, rawKind, rawTag)
	if err != nil {
		return nil, err
	}
	status := s.status(kind, tag, day, s.clock.now())
	if !status.Editable {
		return nil, fmt.Errorf("%w: session %s group %s is not open for review", ErrInvalidInput, day.Date, tag)
	}

	state := s.store.State()
	clean := make(map[string]feedback.CoachFeedback, len(records))
	for player, rec := range records {
		if player, err = requireActive(state, player); err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, classify(err)
		}
		clean[player] = rec
	}

	s.logger.InfoContext(ctx, "coach feedback submitted", "date", day.Date, "group", string(tag), "players", len(clean))
	return s.store.SubmitCoachFeedback(ctx, day.Date, tag, clean), nil
}

func (s *FeedbackService) status(kind group.Kind, tag group.Tag, day calendar.Day, now time.Time) SessionStatus {
	state := s.store.State()
	out := SessionStatus{
		Date:      day.Date,
		Weekday:   day.Weekday,
		Kind:      kind,
		Group:     tag,
		Attending: make([]string, 0),
	}

	facts := session.Facts{
		Now:       now,
		Completed: state.SessionCompleted(session.Key(day.Date, tag)),
	}
	if date, err := calendar.ParseDate(day.Date, s.clock.location()); err == nil {
		facts.Date = date
	}
	if slot, ok := state.Schedule().Slot(kind, tag, day.Weekday); ok {
		facts.Slot = &slot
		out.Time = slot.String()
	}

	marks := state.Day(kind, day.Date)
	for _, m := range state.Members() {
		if m.Group(kind) == tag && attendance.Lookup(marks, m.Name).Attending() {
			out.Attending = append(out.Attending, m.Name)
		}
	}
	facts.AnyAttendance = len(out.Attending) > 0

	out.State = session.Evaluate(facts)
	out.Editable = out.State.Editable()
	return out
}

func parseSession(date, rawKind, rawTag string) (group.Kind, group.Tag, calendar.Day, error) {
	kind, err := parseKind(rawKind)
	if err != nil {
		return "", "", calendar.Day{}, err
	}
	tag := group.Tag(strings.ToUpper(strings.TrimSpace(rawTag)))
	if err := kind.Validate(tag); err != nil {
		return "", "", calendar.Day{}, classify(err)
	}
	day, err := parseDate(date)
	if err != nil {
		return "", "", calendar.Day{}, err
	}
	return kind, tag, day, nil
}
