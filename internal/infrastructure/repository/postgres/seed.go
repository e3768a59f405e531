package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tallink-tennis/fuss-tracker/internal/infrastructure/repository/memory"
	qb "github.com/tallink-tennis/fuss-tracker/internal/platform/querybuilder"
)

// BootstrapSeed fills an empty documents table with the default schedule.
// Existing rows are never overwritten.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM documents`); err != nil {
		if isUndefinedTable(err) {
			return fmt.Errorf("documents table missing, run migrations first: %w", err)
		}
		return fmt.Errorf("count documents for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seed := memory.SeedDocuments()
	roots := make([]string, 0, len(seed))
	for root := range seed {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	now := time.Now().UTC()
	for _, root := range roots {
		body, err := jsonCodec.Marshal(seed[root])
		if err != nil {
			return fmt.Errorf("encode seed document %s: %w", root, err)
		}
		query, args, err := qb.InsertInto(documentsTable).
			Columns("root", "body", "updated_at").
			Values(root, string(body), now).
			OnConflictUpdate([]string{"root"}).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build seed document %s query: %w", root, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed document %s: %w", root, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
