// Package document describes the shared JSON document tree the tracker
// mirrors. Paths are slash separated, e.g. "attendance/2026-03-02".
package document

import (
	"context"
	"errors"
)

// ErrRejected marks a write the store refused for good (bad path, auth,
// validation). Writers must not retry it.
var ErrRejected = errors.New("document write rejected")

// Top level collections.
const (
	RootDates                   = "dates"
	RootSchedule                = "schedule"
	RootAttendance              = "attendance"
	RootFussAttendance          = "fussAttendance"
	RootFussEffort              = "fussEffort"
	RootTennisSessionsCompleted = "tennisSessionsCompleted"
	RootPlayerGroups            = "playerGroups"
	RootFussGroups              = "fussGroups"
	RootArchivedPlayers         = "archivedPlayers"
	RootPlayerPasswords         = "playerPasswords"
	RootParentPasswords         = "parentPasswords"
	RootFeedback                = "feedback"
	RootCoachFeedback           = "coachFeedback"
)

// Roots lists every collection the mirror subscribes to.
var Roots = []string{
	RootDates,
	RootSchedule,
	RootAttendance,
	RootFussAttendance,
	RootFussEffort,
	RootTennisSessionsCompleted,
	RootPlayerGroups,
	RootFussGroups,
	RootArchivedPlayers,
	RootPlayerPasswords,
	RootParentPasswords,
	RootFeedback,
	RootCoachFeedback,
}

// Snapshot is the full JSON value under Path at one point in time.
type Snapshot struct {
	Path string
	Raw  []byte
}

// Exists reports whether the path held a value.
func (s Snapshot) Exists() bool {
	return len(s.Raw) > 0 && string(s.Raw) != "null"
}

// Store is the remote document tree. Set replaces the whole value at path
// and a nil value deletes it; Update merges the given child fields, a nil
// field deleting that child.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	// Subscribe delivers the current snapshot of path and then a new one on
	// every change, until ctx is done or the connection fails.
	Subscribe(ctx context.Context, path string, fn func(Snapshot)) error
}
