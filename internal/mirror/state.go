// Package mirror keeps the local copy of the shared document tree. Local
// edits are visible immediately and stay overlaid on incoming snapshots
// until their remote write settles, after which the remote value wins.
package mirror

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/calendar"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/feedback"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/roster"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/schedule"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/stats"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
)

// assignment is one normalized value written at a full path.
type assignment struct {
	path  string
	value any
}

type overlay struct {
	seq         uint64
	assignments []assignment
}

type State struct {
	mu           sync.RWMutex
	trees        map[string]any
	loaded       map[string]bool
	pending      []overlay
	seq          uint64
	v            view
	groupChanged map[string]bool
}

func NewState() *State {
	return &State{
		trees:        make(map[string]any),
		loaded:       make(map[string]bool),
		v:            newView(),
		groupChanged: make(map[string]bool),
	}
}

// Replace installs a full snapshot of root. Pending local edits under root
// are applied on top.
func (s *State) Replace(root string, raw []byte) error {
	var node any
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &node); err != nil {
			return fmt.Errorf("decode %s snapshot: %w", root, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.pending {
		for _, a := range o.assignments {
			if jsontree.Root(a.path) == root {
				node = jsontree.Set(node, jsontree.Split(a.path)[1:], jsontree.Clone(a.value))
			}
		}
	}
	s.trees[root] = node
	s.loaded[root] = true
	s.v.decode(root, node)
	return nil
}

// apply records local edits and returns the overlay id to settle later.
func (s *State) apply(assignments []assignment) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	touched := make(map[string]bool)
	for _, a := range assignments {
		root := jsontree.Root(a.path)
		s.trees[root] = jsontree.Set(s.trees[root], jsontree.Split(a.path)[1:], jsontree.Clone(a.value))
		touched[root] = true
	}
	for root := range touched {
		s.v.decode(root, s.trees[root])
	}
	s.pending = append(s.pending, overlay{seq: s.seq, assignments: assignments})
	return s.seq
}

// settle drops an overlay once its write finished either way.
func (s *State) settle(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.pending {
		if o.seq == seq {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Loaded reports whether every root has received at least one snapshot.
func (s *State) Loaded(roots ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, root := range roots {
		if !s.loaded[root] {
			return false
		}
	}
	return true
}

// Node returns a copy of the raw tree at path.
func (s *State) Node(path string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parts := jsontree.Split(path)
	if len(parts) == 0 {
		return nil
	}
	return jsontree.Clone(jsontree.Get(s.trees[parts[0]], parts[1:]))
}

func (s *State) Dates() []calendar.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]calendar.Day(nil), s.v.dates...)
}

func (s *State) Schedule() schedule.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.schedule.Clone()
}

// Mark reads one attendance mark; absence reads as No.
func (s *State) Mark(kind group.Kind, date, player string) attendance.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return attendance.Lookup(s.v.marks[kind][date], player)
}

// Day returns a copy of the marks recorded for date.
func (s *State) Day(kind group.Kind, date string) map[string]attendance.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := maps.Clone(s.v.marks[kind][date])
	if out == nil {
		out = make(map[string]attendance.Mark)
	}
	return out
}

// Marks copies every attendance record of kind.
func (s *State) Marks(kind group.Kind) map[string]map[string]attendance.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMarks(s.v.marks[kind])
}

func (s *State) Effort(date string, tag group.Tag, player string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.v.fussEffort[date][tag][player]
	return v, ok
}

// EffortDay copies the ratings of one fuss group on date.
func (s *State) EffortDay(date string, tag group.Tag) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := maps.Clone(s.v.fussEffort[date][tag])
	if out == nil {
		out = make(map[string]int)
	}
	return out
}

func (s *State) SessionCompleted(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.completed[key]
}

// Group resolves a player's tag, falling back to the activity default.
func (s *State) Group(kind group.Kind, player string) group.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return kind.Resolve(s.v.groups[kind], player)
}

// Groups copies the stored assignments of kind without defaults.
func (s *State) Groups(kind group.Kind) map[string]group.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.v.groups[kind])
}

// Players lists active players by name. A player is active while it has a
// password entry.
func (s *State) Players() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.v.passwords))
	for name := range s.v.passwords {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Members lists active players with resolved groups, sorted by name.
func (s *State) Members() []roster.Member {
	players := s.Players()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]roster.Member, 0, len(players))
	for _, name := range players {
		out = append(out, roster.Member{
			Name:        name,
			TennisGroup: group.KindTennis.Resolve(s.v.groups[group.KindTennis], name),
			FussGroup:   group.KindFuss.Resolve(s.v.groups[group.KindFuss], name),
		})
	}
	return out
}

func (s *State) Password(player string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pw, ok := s.v.passwords[player]
	return pw, ok
}

func (s *State) ParentPassword(player string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pw, ok := s.v.parentPasswords[player]
	return pw, ok
}

// Passwords copies the player credential list.
func (s *State) Passwords() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.v.passwords)
}

// ParentPasswords copies the parent credential list.
func (s *State) ParentPasswords() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.v.parentPasswords)
}

func (s *State) Archived() []roster.ArchivedPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]roster.ArchivedPlayer, 0, len(s.v.archived))
	for _, rec := range s.v.archived {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *State) ArchivedPlayer(name string) (roster.ArchivedPlayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.v.archived[name]
	return rec, ok
}

// PlayerFeedback copies one player's feedback by date.
func (s *State) PlayerFeedback(player string) map[string]feedback.PlayerFeedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := maps.Clone(s.v.feedback[player])
	if out == nil {
		out = make(map[string]feedback.PlayerFeedback)
	}
	return out
}

// CoachFeedback copies the coach review of one session.
func (s *State) CoachFeedback(date string, tag group.Tag) map[string]feedback.CoachFeedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := maps.Clone(s.v.coachFeedback[date][tag])
	if out == nil {
		out = make(map[string]feedback.CoachFeedback)
	}
	return out
}

// StatsDataset copies what the statistics aggregator reads.
func (s *State) StatsDataset() stats.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	effort := make(map[string]map[group.Tag]map[string]int, len(s.v.fussEffort))
	for date, groups := range s.v.fussEffort {
		effort[date] = make(map[group.Tag]map[string]int, len(groups))
		for tag, players := range groups {
			effort[date][tag] = maps.Clone(players)
		}
	}
	reviews := make(map[string]map[group.Tag]map[string]feedback.CoachFeedback, len(s.v.coachFeedback))
	for date, groups := range s.v.coachFeedback {
		reviews[date] = make(map[group.Tag]map[string]feedback.CoachFeedback, len(groups))
		for tag, players := range groups {
			reviews[date][tag] = maps.Clone(players)
		}
	}

	return stats.Dataset{
		Schedule:       s.v.schedule.Clone(),
		Attendance:     cloneMarks(s.v.marks[group.KindTennis]),
		FussAttendance: cloneMarks(s.v.marks[group.KindFuss]),
		FussEffort:     effort,
		CoachFeedback:  reviews,
	}
}

// GroupChanged reports whether the player's group moved since they last
// acknowledged it.
func (s *State) GroupChanged(player string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupChanged[player]
}

func (s *State) setGroupChanged(player string, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if changed {
		s.groupChanged[player] = true
	} else {
		delete(s.groupChanged, player)
	}
}

func cloneMarks(in map[string]map[string]attendance.Mark) map[string]map[string]attendance.Mark {
	out := make(map[string]map[string]attendance.Mark, len(in))
	for date, day := range in {
		out[date] = maps.Clone(day)
	}
	return out
}
