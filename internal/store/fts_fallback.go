//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"

	"github.com/starford/notely/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ models.Note) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

func (db *DB) ftsSearch(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	return db.likeSearch(ctx, "LIKE", userID, query, limit)
}
