// Package noteservice implements the note operations on top of the store and
// publishes a change event after every mutation.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/checksum"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/store"
)

// MaxTitleLength bounds note titles.
const MaxTitleLength = 500

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Publisher receives change events for a note owner.
type Publisher interface {
	Publish(userID string, ev models.ChangeEvent)
}

// Service coordinates the note and profile stores.
type Service struct {
	notes    store.NoteStore
	profiles store.ProfileStore
	pub      Publisher
	now      func() time.Time
}

// NewService creates a new note service. pub may be nil.
func NewService(notes store.NoteStore, profiles store.ProfileStore, pub Publisher) *Service {
	return &Service{notes: notes, profiles: profiles, pub: pub, now: time.Now}
}

// Version returns the concurrency token for n, used as the ETag.
func Version(n *models.Note) string {
	return checksum.Note(n)
}

// Create inserts a note owned by userID. Missing title falls back to the default.
func (s *Service) Create(ctx context.Context, userID string, in models.NoteInsert) (*models.Note, error) {
	now := s.timestamp()
	n := models.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      NormalizeTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = models.DefaultNoteTitle
	}
	if err := validateNote(&n); err != nil {
		return nil, err
	}
	if err := s.notes.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	s.publish(userID, models.ChangeEvent{Type: models.EventInsert, Record: &n})
	return &n, nil
}

// Get returns the note id owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Note, error) {
	return s.notes.GetNote(ctx, userID, id)
}

// List returns the user's notes, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Note, error) {
	return s.notes.ListNotes(ctx, userID)
}

// Update applies patch to the note id. When ifMatch is non-empty it must
// equal the current Version, otherwise apperr.ErrConflict is returned.
func (s *Service) Update(ctx context.Context, userID, id string, patch models.NotePatch, ifMatch string) (*models.Note, error) {
	n, err := s.notes.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != Version(n) {
		return nil, apperr.ErrConflict
	}
	if patch.Empty() {
		return n, nil
	}

	patch.Apply(n)
	if patch.Tags != nil {
		n.Tags = NormalizeTags(n.Tags)
	}
	if patch.Slug != nil {
		slug := strings.TrimSpace(*patch.Slug)
		if slug == "" {
			n.Slug = nil
		} else {
			n.Slug = &slug
		}
	}
	if n.IsPublic && n.Slug == nil {
		slug, err := s.uniqueSlug(ctx, n.Title)
		if err != nil {
			return nil, err
		}
		n.Slug = &slug
	}
	n.UpdatedAt = s.timestamp()
	if err := validateNote(n); err != nil {
		return nil, err
	}
	if err := s.notes.UpdateNote(ctx, *n); err != nil {
		return nil, err
	}
	s.publish(userID, models.ChangeEvent{Type: models.EventUpdate, Record: n})
	return n, nil
}

// Delete removes the note id owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.notes.DeleteNote(ctx, userID, id); err != nil {
		return err
	}
	s.publish(userID, models.ChangeEvent{Type: models.EventDelete, OldRecord: &models.RowRef{ID: id}})
	return nil
}

// ListPublic returns every public note, newest first.
func (s *Service) ListPublic(ctx context.Context) ([]models.Note, error) {
	return s.notes.ListPublicNotes(ctx)
}

// ViewPublic returns the public note with slug and counts the view.
func (s *Service) ViewPublic(ctx context.Context, slug string) (*models.Note, error) {
	return s.notes.ViewPublicNote(ctx, slug)
}

// Search runs a full-text query over the user's notes.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]store.SearchResult, error) {
	return s.notes.Search(ctx, userID, query, limit)
}

// Profile returns the profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, userID)
}

// UpdateProfile sets the display name of userID.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName string) (*models.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if err := validation.Validate(fullName, validation.Length(0, 200)); err != nil {
		return nil, fmt.Errorf("%w: full_name %v", apperr.ErrInvalidInput, err)
	}
	return s.profiles.UpdateProfile(ctx, userID, fullName, s.timestamp())
}

func (s *Service) publish(userID string, ev models.ChangeEvent) {
	if s.pub == nil {
		return
	}
	ev.Table = models.TableNotes
	ev.CommitTimestamp = s.timestamp()
	if ev.Record != nil {
		rec := ev.Record.Clone()
		ev.Record = &rec
	}
	s.pub.Publish(userID, ev)
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	for range 5 {
		candidate := base + "-" + uuid.NewString()[:8]
		taken, err := s.notes.SlugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.New("noteservice: could not allocate slug")
}

func validateNote(n *models.Note) error {
	err := validation.Errors{
		"title": validation.Validate(n.Title, validation.Length(0, MaxTitleLength)),
		"slug":  validation.Validate(n.Slug, validation.NilOrNotEmpty, validation.Match(slugPattern)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

// NormalizeTags trims each tag and drops empty and repeated ones,
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= 48 {
			break
		}
	}
	if b.Len() == 0 {
		return "note"
	}
	return b.String()
}

// timestamp is truncated to what PostgreSQL stores so versions survive a round trip.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
