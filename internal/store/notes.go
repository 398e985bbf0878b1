package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

const noteColumns = `id, user_id, title, content, tags, is_favorite, is_public, slug, view_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (models.Note, error) {
	var (
		n        models.Note
		tagsJSON string
		slug     sql.NullString
	)
	err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &tagsJSON,
		&n.IsFavorite, &n.IsPublic, &slug, &n.ViewCount, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return n, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return n, fmt.Errorf("store: decode tags for %s: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if slug.Valid {
		s := slug.String
		n.Slug = &s
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func nullSlug(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (db *DB) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// InsertNote stores a new note together with its search entry.
func (db *DB) InsertNote(ctx context.Context, n models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), n.ID, n.UserID, n.Title, n.Content, encodeTags(n.Tags), n.IsFavorite, n.IsPublic,
		nullSlug(n.Slug), n.ViewCount, n.CreatedAt.UTC(), n.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: insert note: %w", err)
	}
	if db.dialect == DialectSQLite {
		if err := ftsUpsert(tx, n); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetNote returns the note id owned by userID.
func (db *DB) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?
	`), id, userID)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns every note owned by userID, most recently updated first.
func (db *DB) ListNotes(ctx context.Context, userID string) ([]models.Note, error) {
	notes, err := db.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY updated_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	return notes, nil
}

// ListPublicNotes returns every public note, newest first.
func (db *DB) ListPublicNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := db.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE is_public = ? ORDER BY created_at DESC, id
	`, true)
	if err != nil {
		return nil, fmt.Errorf("store: list public notes: %w", err)
	}
	return notes, nil
}

// UpdateNote overwrites the mutable fields of an existing note.
// The row is matched on both id and user_id. A slug already used by another
// note yields apperr.ErrAlreadyExists.
func (db *DB) UpdateNote(ctx context.Context, n models.Note) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, db.rebind(`
		UPDATE notes SET
			title       = ?,
			content     = ?,
			tags        = ?,
			is_favorite = ?,
			is_public   = ?,
			slug        = ?,
			updated_at  = ?
		WHERE id = ? AND user_id = ?
	`), n.Title, n.Content, encodeTags(n.Tags), n.IsFavorite, n.IsPublic, nullSlug(n.Slug),
		n.UpdatedAt.UTC(), n.ID, n.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	if db.dialect == DialectSQLite {
		if err := ftsUpsert(tx, n); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteNote removes the note id owned by userID.
func (db *DB) DeleteNote(ctx context.Context, userID, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	if db.dialect == DialectSQLite {
		ftsDelete(tx, id)
	}
	return tx.Commit()
}

// ViewPublicNote increments the view counter of the public note with slug
// and returns the updated row.
func (db *DB) ViewPublicNote(ctx context.Context, slug string) (*models.Note, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE notes SET view_count = view_count + 1 WHERE slug = ? AND is_public = ?
	`), slug, true)
	if err != nil {
		return nil, fmt.Errorf("store: view public note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperr.ErrNotFound
	}
	row := db.conn.QueryRowContext(ctx, db.rebind(`SELECT `+noteColumns+` FROM notes WHERE slug = ?`), slug)
	n, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("store: get public note: %w", err)
	}
	return &n, nil
}

// SlugTaken reports whether any note already uses slug.
func (db *DB) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, db.rebind(`SELECT count(*) FROM notes WHERE slug = ?`), slug).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: slug lookup: %w", err)
	}
	return n > 0, nil
}
