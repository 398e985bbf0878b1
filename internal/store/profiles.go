package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

// GetProfile returns the profile of user id.
func (db *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, full_name, updated_at FROM profiles WHERE id = ?
	`), id).Scan(&p.ID, &p.FullName, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get profile: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// UpdateProfile sets the display name of user id.
func (db *DB) UpdateProfile(ctx context.Context, id, fullName string, at time.Time) (*models.Profile, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE profiles SET full_name = ?, updated_at = ? WHERE id = ?
	`), fullName, at.UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("store: update profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, apperr.ErrNotFound
	}
	return &models.Profile{ID: id, FullName: fullName, UpdatedAt: at.UTC()}, nil
}
