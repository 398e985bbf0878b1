package api

import (
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/store"
)

// CredentialsRequest is the request body for sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email" example:"ada@example.com" validate:"required"`
	Password string `json:"password" example:"correct-horse" validate:"required"`
}

// UserResponse wraps the authenticated user.
type UserResponse struct {
	User models.User `json:"user" validate:"required"`
}

// CreateNoteRequest is the request body for creating a note. Every field is
// optional; missing ones take the note defaults.
type CreateNoteRequest = models.NoteInsert

// UpdateNoteRequest is the partial update body.
type UpdateNoteRequest = models.NotePatch

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results" validate:"required"`
}

// UpdateProfileRequest is the request body for PATCH /api/profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" example:"Ada Lovelace"`
}

// SummarizeRequest is the summarization function input.
type SummarizeRequest struct {
	Content string `json:"content" validate:"required"`
}

// SummarizeResponse is the summarization function output.
type SummarizeResponse struct {
	Summary string `json:"summary" validate:"required"`
}
