package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notelist"
	"github.com/starford/notely/internal/notify"
)

// Landing renders /.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "landing", &view{Title: "Welcome", User: h.optionalUser(r)})
}

// AuthPage renders /auth. Signed-in users go to the dashboard.
func (h *Handler) AuthPage(w http.ResponseWriter, r *http.Request) {
	if h.optionalUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "auth", &view{Title: "Sign in", Flash: flashFrom(r)})
}

func credentials(r *http.Request) auth.Credentials {
	return auth.Credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
}

// SignIn handles the sign-in form.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	c := credentials(r)
	sess, err := h.auth.SignIn(r.Context(), c)
	if err != nil {
		n := notify.Failure("Sign in failed", err)
		h.render(w, http.StatusUnauthorized, "auth", &view{Title: "Sign in", Flash: &n, Email: c.Email})
		return
	}
	h.auth.SetCookie(w, sess)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SignUp handles the sign-up form and signs the new user in.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	c := credentials(r)
	if _, err := h.auth.SignUp(r.Context(), c); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperr.ErrAlreadyExists) {
			status = http.StatusConflict
		}
		n := notify.Failure("Sign up failed", err)
		h.render(w, status, "auth", &view{Title: "Sign in", Flash: &n})
		return
	}
	h.SignIn(w, r)
}

// SignOut clears the cookie and returns to the landing page.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Dashboard renders the note list and the selected note.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v, ok := h.dashboardView(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "dashboard", v)
}

func (h *Handler) dashboardView(w http.ResponseWriter, r *http.Request) (*view, bool) {
	user, _ := auth.UserFrom(r.Context())
	notes, err := h.notes.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("web: list notes failed", slog.String("error", err.Error()))
		http.Error(w, "failed to load notes", http.StatusInternalServerError)
		return nil, false
	}

	q := r.URL.Query()
	v := &view{
		Title:      "Dashboard",
		User:       &user,
		Flash:      flashFrom(r),
		Query:      q.Get("q"),
		Tag:        q.Get("tag"),
		SelectedID: q.Get("note"),
		Tags:       notelist.Tags(notes),
	}
	filtered := notelist.Filter(notes, v.Query, v.Tag)
	v.Rows = make([]notelist.Row, len(filtered))
	for i := range filtered {
		v.Rows[i] = notelist.Preview(&filtered[i])
	}
	v.Empty = notelist.EmptyMessage(false, v.Query, v.Tag)
	if v.SelectedID != "" {
		for i := range notes {
			if notes[i].ID == v.SelectedID {
				v.Selected = &notes[i]
				break
			}
		}
	}
	return v, true
}

func selectNote(id string) url.Values {
	return url.Values{"note": {id}}
}

// CreateNote creates a blank note and selects it.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	n, err := h.notes.Create(r.Context(), user.ID, models.NewNoteInsert())
	if err != nil {
		h.logger.Error("web: create note failed", slog.String("error", err.Error()))
		redirectFlash(w, r, "/dashboard", nil, notify.Failure("Error creating note", err))
		return
	}
	redirectFlash(w, r, "/dashboard", selectNote(n.ID), notify.Info("Note created", "Your new note is ready"))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, patch models.NotePatch) {
	user, _ := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	if _, err := h.notes.Update(r.Context(), user.ID, id, patch, ""); err != nil {
		h.logger.Error("web: update note failed", slog.String("id", id), slog.String("error", err.Error()))
		redirectFlash(w, r, "/dashboard", selectNote(id), notify.Failure("Error updating note", err))
		return
	}
	http.Redirect(w, r, "/dashboard?"+selectNote(id).Encode(), http.StatusSeeOther)
}

// SaveNote persists title and content.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, models.NotePatch{
		Title:   models.Ptr(r.PostFormValue("title")),
		Content: models.Ptr(r.PostFormValue("content")),
	})
}

func (h *Handler) currentNote(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	user, _ := auth.UserFrom(r.Context())
	n, err := h.notes.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		http.Error(w, "failed to load note", http.StatusInternalServerError)
		return nil, false
	}
	return n, true
}

// AddTag appends a trimmed tag unless it is blank or already present.
func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	n, ok := h.currentNote(w, r)
	if !ok {
		return
	}
	tag := strings.TrimSpace(r.PostFormValue("tag"))
	if tag == "" || n.HasTag(tag) {
		http.Redirect(w, r, "/dashboard?"+selectNote(n.ID).Encode(), http.StatusSeeOther)
		return
	}
	h.update(w, r, models.NotePatch{Tags: models.Ptr(append(n.Tags, tag))})
}

// RemoveTag drops a tag.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	n, ok := h.currentNote(w, r)
	if !ok {
		return
	}
	tag := r.PostFormValue("tag")
	tags := slices.DeleteFunc(slices.Clone(n.Tags), func(t string) bool { return t == tag })
	h.update(w, r, models.NotePatch{Tags: &tags})
}

// ToggleFavorite flips the favorite flag.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	n, ok := h.currentNote(w, r)
	if !ok {
		return
	}
	h.update(w, r, models.NotePatch{IsFavorite: models.Ptr(!n.IsFavorite)})
}

// SetPublic sets the visibility flag from the "public" form value.
func (h *Handler) SetPublic(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, models.NotePatch{IsPublic: models.Ptr(r.PostFormValue("public") == "true")})
}

// DeleteNote deletes the note and clears the selection.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.notes.Delete(r.Context(), user.ID, id); err != nil {
		h.logger.Error("web: delete note failed", slog.String("id", id), slog.String("error", err.Error()))
		redirectFlash(w, r, "/dashboard", nil, notify.Failure("Error deleting note", err))
		return
	}
	redirectFlash(w, r, "/dashboard", nil, notify.Info("Note deleted", "Your note has been removed"))
}

// Summarize renders the dashboard with a summary of the selected note.
// When the editor form posts a draft, the draft content is summarized and
// shown in the editor unsaved. The summary is shown once and never stored.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	n, ok := h.currentNote(w, r)
	if !ok {
		return
	}
	draft := *n
	if err := r.ParseForm(); err == nil {
		if content, posted := r.PostForm["content"]; posted {
			draft.Content = strings.Join(content, "")
			if title, posted := r.PostForm["title"]; posted {
				draft.Title = strings.Join(title, "")
			}
		}
	}
	user, _ := auth.UserFrom(r.Context())
	summary, err := h.summarizer.Summarize(r.Context(), user.ID, draft.Content)

	r.URL.RawQuery = selectNote(n.ID).Encode()
	v, ok := h.dashboardView(w, r)
	if !ok {
		return
	}
	if v.Selected != nil {
		v.Selected = &draft
	}
	var flash notify.Notification
	switch {
	case errors.Is(err, apperr.ErrEmptyContent):
		flash = notify.Notification{Title: "No content", Description: "Please add some content to summarize", Variant: notify.VariantDestructive}
	case err != nil:
		h.logger.Error("web: summarize failed", slog.String("error", err.Error()))
		flash = notify.Failure("Summarization failed", err)
	default:
		v.Summary = summary
		flash = notify.Info("Summary generated!", "Your note has been summarized by AI")
	}
	v.Flash = &flash
	h.render(w, http.StatusOK, "dashboard", v)
}

// Profile renders the account page.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	v := &view{Title: "Profile", User: &user, Email: user.Email, Flash: flashFrom(r)}
	p, err := h.notes.Profile(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("web: load profile failed", slog.String("error", err.Error()))
	} else {
		v.FullName = p.FullName
	}
	v.Initials = models.Initials(v.FullName, user.Email)
	h.render(w, http.StatusOK, "profile", v)
}

// SaveProfile stores the full name.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	if _, err := h.notes.UpdateProfile(r.Context(), user.ID, r.PostFormValue("full_name")); err != nil {
		h.logger.Error("web: save profile failed", slog.String("error", err.Error()))
		redirectFlash(w, r, "/profile", nil, notify.Failure("Error saving profile", err))
		return
	}
	redirectFlash(w, r, "/profile", nil, notify.Info("Profile updated", "Your profile has been saved successfully"))
}

// PublicNotes renders the public listing with the text filter.
func (h *Handler) PublicNotes(w http.ResponseWriter, r *http.Request) {
	v := &view{Title: "Public notes", User: h.optionalUser(r), Query: r.URL.Query().Get("q")}
	notes, err := h.notes.ListPublic(r.Context())
	if err != nil {
		h.logger.Error("web: list public notes failed", slog.String("error", err.Error()))
		notes = nil
	}
	filtered := notelist.Filter(notes, v.Query, "")
	v.Rows = make([]notelist.Row, len(filtered))
	for i := range filtered {
		v.Rows[i] = notelist.PublicPreview(&filtered[i])
	}
	v.Empty = notelist.PublicEmptyMessage(v.Query)
	h.render(w, http.StatusOK, "public", v)
}

// PublicNote renders one public note and counts the view.
func (h *Handler) PublicNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.ViewPublic(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("web: view public note failed", slog.String("error", err.Error()))
		http.Error(w, "failed to load note", http.StatusInternalServerError)
		return
	}
	h.render(w, http.StatusOK, "public_note", &view{Title: n.Title, User: h.optionalUser(r), Note: n})
}
