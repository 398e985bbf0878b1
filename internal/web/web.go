// Package web serves the server-rendered pages: landing, auth, dashboard,
// profile and public notes. Pages authenticate with the session cookie and
// send anonymous visitors of private pages to /auth.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/noteservice"
	"github.com/starford/notely/internal/notelist"
	"github.com/starford/notely/internal/notify"
	"github.com/starford/notely/internal/summarizer"
)

//go:embed templates
var templateFS embed.FS

var pages = map[string]*template.Template{
	"landing":     parsePage("landing.html"),
	"auth":        parsePage("auth.html"),
	"dashboard":   parsePage("dashboard.html"),
	"profile":     parsePage("profile.html"),
	"public":      parsePage("public.html"),
	"public_note": parsePage("public_note.html"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Deps bundles the services behind the pages.
type Deps struct {
	Auth       *auth.Service
	Notes      *noteservice.Service
	Summarizer *summarizer.Service
	Logger     *slog.Logger
}

// Handler serves the HTML pages.
type Handler struct {
	auth       *auth.Service
	notes      *noteservice.Service
	summarizer *summarizer.Service
	logger     *slog.Logger
}

// view is the data handed to every template.
type view struct {
	Title string
	User  *models.User
	Flash *notify.Notification

	Email string

	Query      string
	Tag        string
	Tags       []string
	Rows       []notelist.Row
	Empty      string
	SelectedID string
	Selected   *models.Note
	Summary    string

	FullName string
	Initials string

	Note *models.Note
}

// NewRouter creates the page routes.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{auth: d.Auth, notes: d.Notes, summarizer: d.Summarizer, logger: logger}

	r := chi.NewRouter()
	r.Get("/", h.Landing)
	r.Get("/auth", h.AuthPage)
	r.Post("/auth/signin", h.SignIn)
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/signout", h.SignOut)
	r.Get("/public-notes", h.PublicNotes)
	r.Get("/public-notes/{slug}", h.PublicNote)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard/notes", h.CreateNote)
		r.Post("/dashboard/notes/{id}", h.SaveNote)
		r.Post("/dashboard/notes/{id}/delete", h.DeleteNote)
		r.Post("/dashboard/notes/{id}/tags", h.AddTag)
		r.Post("/dashboard/notes/{id}/tags/remove", h.RemoveTag)
		r.Post("/dashboard/notes/{id}/favorite", h.ToggleFavorite)
		r.Post("/dashboard/notes/{id}/public", h.SetPublic)
		r.Post("/dashboard/notes/{id}/summarize", h.Summarize)

		r.Get("/profile", h.Profile)
		r.Post("/profile", h.SaveProfile)
	})
	return r
}

// requireUser redirects visitors without a valid session cookie to /auth.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.FromRequest(r)
		if err != nil {
			http.Redirect(w, r, "/auth", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// optionalUser returns the signed-in user, if any.
func (h *Handler) optionalUser(r *http.Request) *models.User {
	if u, ok := auth.UserFrom(r.Context()); ok {
		return &u
	}
	u, err := h.auth.FromRequest(r)
	if err != nil {
		return nil
	}
	return &u
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, v *view) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages[page].ExecuteTemplate(w, "layout", v); err != nil {
		h.logger.Error("web: render failed", slog.String("page", page), slog.String("error", err.Error()))
	}
}

// flashFrom reads a notification carried across a redirect.
func flashFrom(r *http.Request) *notify.Notification {
	q := r.URL.Query()
	title := q.Get("flash")
	if title == "" {
		return nil
	}
	n := notify.Notification{Title: title, Description: q.Get("desc"), Variant: notify.VariantDefault}
	if q.Get("variant") == string(notify.VariantDestructive) {
		n.Variant = notify.VariantDestructive
	}
	return &n
}

// redirectFlash sends the browser to path with n attached.
func redirectFlash(w http.ResponseWriter, r *http.Request, path string, q url.Values, n notify.Notification) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("flash", n.Title)
	if n.Description != "" {
		q.Set("desc", n.Description)
	}
	if n.Variant == notify.VariantDestructive {
		q.Set("variant", string(n.Variant))
	}
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}
