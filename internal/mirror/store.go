package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/session"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
)

// AttendanceRoot is the collection holding marks of kind.
func AttendanceRoot(kind group.Kind) string {
	if kind == group.KindFuss {
		return document.RootFussAttendance
	}
	return document.RootAttendance
}

// GroupRoot is the collection holding assignments of kind.
func GroupRoot(kind group.Kind) string {
	if kind == group.KindFuss {
		return document.RootFussGroups
	}
	return document.RootPlayerGroups
}

// Store applies edits to the local State first and then writes them to the
// document store. Every edit returns the outcome of its remote write.
type Store struct {
	mu     sync.Mutex
	state  *State
	writer *Writer
}

func NewStore(state *State, writer *Writer) *Store {
	return &Store{state: state, writer: writer}
}

func (s *Store) State() *State {
	return s.state
}

func (s *Store) Status() SyncStatus {
	return s.writer.Status()
}

// SetMark records a mark and writes the whole day record of kind.
func (s *Store) SetMark(ctx context.Context, kind group.Kind, date, player string, mark attendance.Mark) *WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.state.Day(kind, date)
	day[player] = mark
	return s.set(ctx, jsontree.Join(AttendanceRoot(kind), date), day)
}

// ToggleMark flips the current mark of player, a missing mark counting as
// No, and returns the new mark.
func (s *Store) ToggleMark(ctx context.Context, kind group.Kind, date, player string) (attendance.Mark, *WriteResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.state.Day(kind, date)
	next := attendance.Lookup(day, player).Toggle()
	day[player] = next
	return next, s.set(ctx, jsontree.Join(AttendanceRoot(kind), date), day)
}

// SetEffort stores a fuss effort rating; nil removes it.
func (s *Store) SetEffort(ctx context.Context, date string, tag group.Tag, player string, value *int) *WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := jsontree.Join(document.RootFussEffort, date, string(tag), player)
	if value == nil {
		return s.set(ctx, path, nil)
	}
	return s.set(ctx, path, *value)
}

// SetGroup moves a player and flags the change for their next visit.
func (s *Store) SetGroup(ctx context.Context, kind group.Kind, player string, tag group.Tag) *WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Group(kind, player) != tag {
		s.state.setGroupChanged(player, true)
	}
	return s.set(ctx, jsontree.Join(GroupRoot(kind), player), tag)
}

// AcknowledgeGroupChange clears the group changed flag.
func (s *Store) AcknowledgeGroupChange(player string) {
	s.state.setGroupChanged(player, false)
}

// FillGroupDefaults writes the default tag for active players without one.
// It waits until groups and players have loaded and returns nil when
// nothing is missing.
func (s *Store) FillGroupDefaults(ctx context.Context) *WriteResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Loaded(document.RootPlayerGroups, document.RootFussGroups, document.RootPlayerPasswords) {
		return nil
	}
	players := s.state.Players()
	fields := make(map[string]any)
	for _, kind := range []group.Kind{group.KindTennis, group.KindFuss} {
		for player, tag := range kind.MissingDefaults(s.state.Groups(kind), players) {
			fields[jsontree.Join(GroupRoot(kind), player)] = tag
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return s.update(ctx, "", fields)
}

// AddPlayer creates credentials and group assignments in one write.
func (s *Store) AddPlayer(ctx context.Context, name, password, parentPassword string, tennis, fuss group.Tag) (*WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Password(name); ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerExists, name)
	}
	fields := map[string]any{
		jsontree.Join(document.RootPlayerPasswords, name): password,
		jsontree.Join(GroupRoot(group.KindTennis), name):  tennis,
		jsontree.Join(GroupRoot(group.KindFuss), name):    fuss,
		jsontree.Join(document.RootParentPasswords, name): nil,
		jsontree.Join(document.RootArchivedPlayers, name): nil,
	}
	if parentPassword != "" {
		fields[jsontree.Join(document.RootParentPasswords, name)] = parentPassword
	}
	return s.update(ctx, "", fields), nil
}

// ArchivePlayer moves a player out of the active collections into the
// archive, keeping the last known groups.
func (s *Store) ArchivePlayer(ctx context.Context, name string, at time.Time) (roster.ArchivedPlayer, *WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	password, ok := s.state.Password(name)
	if !ok {
		return roster.ArchivedPlayer{}, nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	parentPassword, _ := s.state.ParentPassword(name)
	rec := roster.ArchivedPlayer{
		Name:           name,
		Password:       password,
		ParentPassword: parentPassword,
		TennisGroup:    s.state.Group(group.KindTennis, name),
		FussGroup:      s.state.Group(group.KindFuss, name),
		ArchivedAt:     at.UTC(),
	}

	res := s.update(ctx, "", map[string]any{
		jsontree.Join(document.RootArchivedPlayers, name): rec,
		jsontree.Join(document.RootPlayerPasswords, name): nil,
		jsontree.Join(document.RootParentPasswords, name): nil,
		jsontree.Join(GroupRoot(group.KindTennis), name):  nil,
		jsontree.Join(GroupRoot(group.KindFuss), name):    nil,
	})
	return rec, res, nil
}

// RestorePlayer reverses ArchivePlayer with the archived groups.
func (s *Store) RestorePlayer(ctx context.Context, name string) (roster.ArchivedPlayer, *WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.state.ArchivedPlayer(name)
	if !ok {
		return roster.ArchivedPlayer{}, nil, fmt.Errorf("%w: %s in archive", ErrPlayerNotFound, name)
	}
	if _, active := s.state.Password(name); active {
		return roster.ArchivedPlayer{}, nil, fmt.Errorf("%w: %s", ErrPlayerExists, name)
	}

	fields := map[string]any{
		jsontree.Join(document.RootArchivedPlayers, name): nil,
		jsontree.Join(document.RootPlayerPasswords, name): rec.Password,
		jsontree.Join(GroupRoot(group.KindTennis), name):  restoredTag(group.KindTennis, rec.TennisGroup),
		jsontree.Join(GroupRoot(group.KindFuss), name):    restoredTag(group.KindFuss, rec.FussGroup),
	}
	if rec.ParentPassword != "" {
		fields[jsontree.Join(document.RootParentPasswords, name)] = rec.ParentPassword
	}
	return rec, s.update(ctx, "", fields), nil
}

func restoredTag(kind group.Kind, tag group.Tag) group.Tag {
	if kind.Validate(tag) != nil {
		return kind.Default()
	}
	return tag
}

func (s *Store) SetPassword(ctx context.Context, player, password string) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootPlayerPasswords, player), password)
}

func (s *Store) SetParentPassword(ctx context.Context, player, password string) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootParentPasswords, player), password)
}

func (s *Store) SetPlayerFeedback(ctx context.Context, player, date string, fb feedback.PlayerFeedback) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootFeedback, player, date), fb)
}

// SubmitCoachFeedback stores the session review and marks the session
// completed in one write.
func (s *Store) SubmitCoachFeedback(ctx context.Context, date string, tag group.Tag, records map[string]feedback.CoachFeedback) *WriteResult {
	return s.update(ctx, "", map[string]any{
		jsontree.Join(document.RootCoachFeedback, date, string(tag)):                records,
		jsontree.Join(document.RootTennisSessionsCompleted, session.Key(date, tag)): true,
	})
}

// SetSlot stores a slot in the shared "HH:MM - HH:MM" text form.
func (s *Store) SetSlot(ctx context.Context, kind group.Kind, tag group.Tag, weekday string, r schedule.TimeRange) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootSchedule, string(kind), string(tag), weekday), r.String())
}

func (s *Store) RemoveSlot(ctx context.Context, kind group.Kind, tag group.Tag, weekday string) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootSchedule, string(kind), string(tag), weekday), nil)
}

func (s *Store) AddDate(ctx context.Context, day calendar.Day) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootDates, day.Date), day.Weekday)
}

func (s *Store) RemoveDate(ctx context.Context, date string) *WriteResult {
	return s.set(ctx, jsontree.Join(document.RootDates, date), nil)
}

func (s *Store) set(ctx context.Context, path string, value any) *WriteResult {
	node, err := jsontree.Normalize(value)
	if err != nil {
		return failed(path, fmt.Errorf("%w: encode %s: %v", document.ErrRejected, path, err))
	}
	seq := s.state.apply([]assignment{{path: path, value: node}})
	return s.writer.Set(ctx, path, node, func(error) { s.state.settle(seq) })
}

func (s *Store) update(ctx context.Context, path string, fields map[string]any) *WriteResult {
	normalized := make(map[string]any, len(fields))
	assignments := make([]assignment, 0, len(fields))
	for key, value := range fields {
		node, err := jsontree.Normalize(value)
		if err != nil {
			return failed(path, fmt.Errorf("%w: encode %s: %v", document.ErrRejected, key, err))
		}
		normalized[key] = node
		assignments = append(assignments, assignment{path: jsontree.Join(path, key), value: node})
	}
	seq := s.state.apply(assignments)
	return s.writer.Update(ctx, path, normalized, func(error) { s.state.settle(seq) })
}

func failed(path string, err error) *WriteResult {
	res := newWriteResult(path)
	res.finish(err)
	return res
}
