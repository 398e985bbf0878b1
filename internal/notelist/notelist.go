// Package notelist holds the pure list-view logic: filtering, the tag
// universe, placeholder messages and per-row previews.
package notelist

import (
	"slices"
	"strings"

	"github.com/starford/notely/internal/models"
)

// Placeholder messages.
const (
	MsgLoading        = "Loading notes..."
	MsgNoMatches      = "No notes found"
	MsgEmpty          = "No notes yet. Create your first note!"
	MsgNoPublicNotes  = "No public notes yet"
	EmptyContentLabel = "Empty note"
)

// DateLayout formats the row date.
const DateLayout = "Jan 2, 2006"

const (
	previewTags  = 3
	snippetRunes = 140
)

// Filter keeps the notes whose title or content contains query
// (case-insensitive) and, when tag is non-empty, that carry tag.
// Order is preserved.
func Filter(notes []models.Note, query, tag string) []models.Note {
	q := strings.ToLower(query)
	out := make([]models.Note, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		if !Matches(n, q) {
			continue
		}
		if tag != "" && !n.HasTag(tag) {
			continue
		}
		out = append(out, *n)
	}
	return out
}

// Matches reports whether the title or content of n contains the
// lower-cased query.
func Matches(n *models.Note, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Content), lowerQuery)
}

// Tags returns every tag used by notes, deduplicated and sorted.
func Tags(notes []models.Note) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, n := range notes {
		for _, t := range n.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// EmptyMessage is shown in place of an empty list.
func EmptyMessage(loading bool, query, tag string) string {
	switch {
	case loading:
		return MsgLoading
	case query != "" || tag != "":
		return MsgNoMatches
	default:
		return MsgEmpty
	}
}

// PublicEmptyMessage is shown in place of an empty public list.
func PublicEmptyMessage(query string) string {
	if query != "" {
		return MsgNoMatches
	}
	return MsgNoPublicNotes
}

// Row is the display form of one list entry.
type Row struct {
	ID        string
	Title     string
	Snippet   string
	Tags      []string
	Date      string
	Favorite  bool
	Public    bool
	ViewCount int
}

// Preview builds the row for n. The date is the last update time.
func Preview(n *models.Note) Row {
	r := Row{
		ID:        n.ID,
		Title:     n.Title,
		Snippet:   snippet(n.Content),
		Date:      n.UpdatedAt.Format(DateLayout),
		Favorite:  n.IsFavorite,
		Public:    n.IsPublic,
		ViewCount: n.ViewCount,
	}
	if r.Title == "" {
		r.Title = models.DefaultNoteTitle
	}
	if r.Snippet == "" {
		r.Snippet = EmptyContentLabel
	}
	if len(n.Tags) > previewTags {
		r.Tags = append([]string{}, n.Tags[:previewTags]...)
	} else {
		r.Tags = append([]string{}, n.Tags...)
	}
	return r
}

// PublicPreview is Preview dated by creation time, as the public list is
// ordered by it.
func PublicPreview(n *models.Note) Row {
	r := Preview(n)
	r.Date = n.CreatedAt.Format(DateLayout)
	return r
}

func snippet(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) > snippetRunes {
		return string(runes[:snippetRunes]) + "…"
	}
	return s
}
