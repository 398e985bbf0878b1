// Package pages composes the client modules into the page-level views:
// landing, auth, dashboard, profile and public notes.
package pages

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notesync"
	"github.com/starford/notely/internal/notify"
)

// Routes.
const (
	RouteLanding     = "/"
	RouteAuth        = "/auth"
	RouteDashboard   = "/dashboard"
	RouteProfile     = "/profile"
	RoutePublicNotes = "/public-notes"
)

// Gateway is the remote API used by the pages.
type Gateway interface {
	notesync.Gateway
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	ListPublicNotes(ctx context.Context) ([]models.Note, error)
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, fullName string) (*models.Profile, error)
	Summarize(ctx context.Context, content string) (string, error)
}

// Sessions persists the signed-in session.
type Sessions interface {
	Load() (*models.Session, error)
	Save(sess *models.Session) error
	Clear() error
}

// Deps are shared by every page.
type Deps struct {
	Gateway  Gateway
	Sessions Sessions
	Notifier notify.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) notifier() notify.Notifier {
	if d.Notifier == nil {
		return notify.Log{Logger: d.logger()}
	}
	return d.Notifier
}

// session returns the stored session when it is still valid.
func (d Deps) session() (*models.Session, bool) {
	sess, err := d.Sessions.Load()
	if err != nil {
		d.logger().Warn("pages: session load failed", slog.String("error", err.Error()))
		return nil, false
	}
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	if !sess.Valid(now) {
		return nil, false
	}
	return sess, true
}

// Landing returns the route the landing page's call to action leads to.
// Signed-in users go straight to the dashboard.
func Landing(d Deps) string {
	if _, ok := d.session(); ok {
		return RouteDashboard
	}
	return RouteAuth
}
