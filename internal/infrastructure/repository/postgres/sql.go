package postgres

import (
	"database/sql"
	"errors"
	"strings"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUndefinedTable matches "relation ... does not exist" (42P01), which means
// migrations have not been applied yet.
func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "42p01") || (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}
