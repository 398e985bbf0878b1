// Package models defines the domain types shared by the server and the client.
package models

import "time"

// DefaultNoteTitle is given to every newly created note.
const DefaultNoteTitle = "Untitled Note"

// Note is a user-owned note row.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"is_favorite"`
	IsPublic   bool      `json:"is_public"`
	Slug       *string   `json:"slug"`
	ViewCount  int       `json:"view_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasTag reports whether tag is in the note's tag set.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n.
func (n *Note) Clone() Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	if n.Slug != nil {
		s := *n.Slug
		c.Slug = &s
	}
	return c
}

// NoteInsert is the payload for creating a note.
type NoteInsert struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// NewNoteInsert returns the insert payload used when the user asks for a blank note.
func NewNoteInsert() NoteInsert {
	return NoteInsert{Title: DefaultNoteTitle, Content: "", Tags: []string{}}
}

// NotePatch is a partial update. Nil fields are left untouched.
type NotePatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	IsFavorite *bool     `json:"is_favorite,omitempty"`
	IsPublic   *bool     `json:"is_public,omitempty"`
	Slug       *string   `json:"slug,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil &&
		p.IsFavorite == nil && p.IsPublic == nil && p.Slug == nil
}

// Apply writes the patch's set fields onto n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	if p.IsPublic != nil {
		n.IsPublic = *p.IsPublic
	}
	if p.Slug != nil {
		s := *p.Slug
		n.Slug = &s
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
