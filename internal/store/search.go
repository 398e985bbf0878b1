package store

import (
	"context"
	"fmt"
	"strings"
)

const defaultSearchLimit = 20

// Search finds notes owned by userID whose title, content or tags match query.
func (db *DB) Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, nil
	}
	if db.dialect == DialectPostgres {
		return db.likeSearch(ctx, "ILIKE", userID, query, limit)
	}
	return db.ftsSearch(ctx, userID, query, limit)
}

func (db *DB) likeSearch(ctx context.Context, op, userID, query string, limit int) ([]SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, db.rebind(fmt.Sprintf(`
		SELECT id, title, substr(content, 1, 200)
		FROM notes
		WHERE user_id = ? AND (title %[1]s ? OR content %[1]s ? OR tags %[1]s ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, op)), userID, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
