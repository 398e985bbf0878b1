package api

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/metrics"
	"github.com/starford/notely/internal/noteservice"
	"github.com/starford/notely/internal/realtime"
	"github.com/starford/notely/internal/summarizer"
)

// Deps bundles the services behind the API.
type Deps struct {
	Auth       *auth.Service
	Notes      *noteservice.Service
	Summarizer *summarizer.Service
	Broker     *realtime.Broker
	Heartbeat  time.Duration
	Metrics    *metrics.Metrics
}

// NewRouter creates a chi router with all API routes mounted.
// Everything except sign-up, sign-in and the public notes requires a session.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Notes)
	ah := NewAuthHandler(d.Auth)
	fh := NewFunctionHandler(d.Summarizer, d.Metrics)

	r := chi.NewRouter()

	r.Post("/auth/signup", ah.SignUp)
	r.Post("/auth/signin", ah.SignIn)
	r.Post("/auth/signout", ah.SignOut)

	r.Get("/public/notes", h.ListPublicNotes)
	r.Get("/public/notes/{slug}", h.GetPublicNote)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(d.Auth))

		r.Get("/auth/user", ah.User)

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Patch("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		r.Get("/search", h.Search)

		r.Get("/profile", h.GetProfile)
		r.Patch("/profile", h.UpdateProfile)

		r.Post("/functions/summarize-note", fh.SummarizeNote)

		// Change notification streams.
		if d.Broker != nil {
			r.Get("/events", d.Broker.SSEHandler(d.Heartbeat))
			r.Get("/realtime", d.Broker.WebSocketHandler(d.Heartbeat))
		}
	})

	return r
}
