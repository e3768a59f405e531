package postgres

import "time"

const (
	documentsTable        = "documents"
	documentChangeChannel = "document_changes"
)

type documentRow struct {
	Root      string    `db:"root"`
	Body      []byte    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

// documentEdit is one assignment relative to a root document. An empty
// path replaces the whole root.
type documentEdit struct {
	path  []string
	value any
}
