package pages

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/notely/internal/editor"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notelist"
	"github.com/starford/notely/internal/notesync"
	"github.com/starford/notely/internal/session"
)

// SessionWatcher reports sign-in and sign-out made by other processes.
type SessionWatcher interface {
	Watch(ctx context.Context, logger *slog.Logger, cb func(session.Event)) error
}

// Dashboard is the signed-in view: the note list, the selection and the
// editor.
type Dashboard struct {
	deps   Deps
	user   models.User
	Sync   *notesync.Hook
	Editor *editor.Editor

	mu       sync.Mutex
	selected string
	route    string
}

// OpenDashboard builds the dashboard for the stored session. Without a
// valid session it returns nil and the auth route.
func OpenDashboard(d Deps) (*Dashboard, string) {
	sess, ok := d.session()
	if !ok {
		return nil, RouteAuth
	}
	hook := notesync.New(d.Gateway, d.notifier(), d.logger())
	return &Dashboard{
		deps:   d,
		user:   sess.User,
		Sync:   hook,
		Editor: editor.New(hook, d.Gateway, d.notifier(), d.logger()),
		route:  RouteDashboard,
	}, ""
}

// User returns the signed-in user.
func (d *Dashboard) User() models.User {
	return d.user
}

// Route is RouteDashboard until the session ends.
func (d *Dashboard) Route() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.route
}

// Run keeps the list synchronized until ctx is done or the session ends.
// When the session store can be watched, a sign-out elsewhere moves the
// dashboard to the auth route.
func (d *Dashboard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return d.Sync.Run(gctx)
	})
	if w, ok := d.deps.Sessions.(SessionWatcher); ok {
		g.Go(func() error {
			return w.Watch(gctx, d.deps.logger(), func(ev session.Event) {
				if ev.Kind != session.SignedOut {
					return
				}
				d.deps.logger().Info("session ended")
				d.SessionEnded()
				cancel()
			})
		})
	}
	return g.Wait()
}

// Load performs a single fetch.
func (d *Dashboard) Load(ctx context.Context) {
	d.Sync.Refetch(ctx)
}

// SessionEnded moves the dashboard to the auth route.
func (d *Dashboard) SessionEnded() {
	d.mu.Lock()
	d.route = RouteAuth
	d.selected = ""
	d.mu.Unlock()
	d.Editor.Select(nil)
}

// Notes returns the filtered list.
func (d *Dashboard) Notes(query, tag string) []models.Note {
	return notelist.Filter(d.Sync.Notes(), query, tag)
}

// Tags returns the tag universe of the unfiltered list.
func (d *Dashboard) Tags() []string {
	return notelist.Tags(d.Sync.Notes())
}

// EmptyMessage is the placeholder for an empty filtered list.
func (d *Dashboard) EmptyMessage(query, tag string) string {
	return notelist.EmptyMessage(d.Sync.Loading(), query, tag)
}

// Selected returns the selected note, if it is in the list.
func (d *Dashboard) Selected() (models.Note, bool) {
	d.mu.Lock()
	id := d.selected
	d.mu.Unlock()
	if id == "" {
		return models.Note{}, false
	}
	return d.Sync.Find(id)
}

// SelectedID returns the selected note id, or "".
func (d *Dashboard) SelectedID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// SelectNote selects id and loads it into the editor. An id that is not in
// the list leaves the editor empty.
func (d *Dashboard) SelectNote(id string) {
	d.mu.Lock()
	d.selected = id
	d.mu.Unlock()
	if n, ok := d.Sync.Find(id); ok {
		d.Editor.Select(&n)
		return
	}
	d.Editor.Select(nil)
}

// CreateNote creates a blank note and selects it.
func (d *Dashboard) CreateNote(ctx context.Context) *models.Note {
	n := d.Sync.Create(ctx)
	if n == nil {
		return nil
	}
	d.mu.Lock()
	d.selected = n.ID
	d.mu.Unlock()
	d.Editor.Select(n)
	return n
}

// DeleteNote deletes id and clears the selection when id was selected.
func (d *Dashboard) DeleteNote(ctx context.Context, id string) {
	d.Sync.Delete(ctx, id)
	d.mu.Lock()
	was := d.selected == id
	if was {
		d.selected = ""
	}
	d.mu.Unlock()
	if was {
		d.Editor.Select(nil)
	}
}

// SignOut ends the session.
func (d *Dashboard) SignOut(ctx context.Context) string {
	route := SignOut(ctx, d.deps)
	d.mu.Lock()
	d.route = route
	d.mu.Unlock()
	return route
}
