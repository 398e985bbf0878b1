package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

// CreateUser inserts a user and its empty profile in one transaction.
// A duplicate email yields apperr.ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, u models.User, passwordHash string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`), u.ID, normalizeEmail(u.Email), passwordHash, u.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: insert user: %w", err)
	}
	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO profiles (id, full_name, updated_at) VALUES (?, '', ?)
	`), u.ID, u.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store: insert profile: %w", err)
	}
	return tx.Commit()
}

// UserByEmail returns the user with email and its password hash.
func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var (
		u    models.User
		hash string
	)
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?
	`), normalizeEmail(email)).Scan(&u.ID, &u.Email, &hash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", apperr.ErrNotFound
		}
		return nil, "", fmt.Errorf("store: user by email: %w", err)
	}
	return &u, hash, nil
}

// UserByID returns the user with id.
func (db *DB) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, email, created_at FROM users WHERE id = ?
	`), id).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: user by id: %w", err)
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
