package roster

import (
	"time"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
)

// Player is identified by name; there is no surrogate id.
type Player struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type ParentCredential struct {
	Name           string `json:"name"`
	ParentPassword string `json:"parent_password"`
}

// ArchivedPlayer keeps everything needed to restore a player exactly.
type ArchivedPlayer struct {
	Name           string    `json:"name"`
	Password       string    `json:"password"`
	ParentPassword string    `json:"parentPassword"`
	TennisGroup    group.Tag `json:"tennisGroup"`
	FussGroup      group.Tag `json:"fussGroup"`
	ArchivedAt     time.Time `json:"archivedAt"`
}

// Member is an active player with both group assignments resolved.
type Member struct {
	Name        string    `json:"name"`
	TennisGroup group.Tag `json:"tennisGroup"`
	FussGroup   group.Tag `json:"fussGroup"`
}

func (m Member) Group(kind group.Kind) group.Tag {
	if kind == group.KindFuss {
		return m.FussGroup
	}
	return m.TennisGroup
}
