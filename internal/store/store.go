package store

import (
	"context"
	"time"

	"github.com/starford/notely/internal/models"
)

// NoteStore is the notes table. Every method except the public ones is
// scoped to the owning user.
type NoteStore interface {
	InsertNote(ctx context.Context, n models.Note) error
	GetNote(ctx context.Context, userID, id string) (*models.Note, error)
	ListNotes(ctx context.Context, userID string) ([]models.Note, error)
	ListPublicNotes(ctx context.Context) ([]models.Note, error)
	UpdateNote(ctx context.Context, n models.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
	ViewPublicNote(ctx context.Context, slug string) (*models.Note, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Search(ctx context.Context, userID, query string, limit int) ([]SearchResult, error)
}

// UserStore is the users table.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (*models.User, string, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileStore is the profiles table.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id, fullName string, at time.Time) (*models.Profile, error)
}

// SearchResult is one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Verify *DB satisfies the store interfaces at compile time.
var (
	_ NoteStore    = (*DB)(nil)
	_ UserStore    = (*DB)(nil)
	_ ProfileStore = (*DB)(nil)
)
