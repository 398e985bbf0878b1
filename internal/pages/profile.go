package pages

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notify"
)

// Profile is the account page.
type Profile struct {
	deps Deps
	user models.User

	mu       sync.Mutex
	fullName string
	saving   bool
}

// OpenProfile loads the profile of the stored session. Without a valid
// session it returns nil and the auth route.
func OpenProfile(ctx context.Context, d Deps) (*Profile, string) {
	sess, ok := d.session()
	if !ok {
		return nil, RouteAuth
	}
	p := &Profile{deps: d, user: sess.User}
	prof, err := d.Gateway.GetProfile(ctx)
	if err != nil {
		d.logger().Warn("pages: load profile failed", slog.String("error", err.Error()))
	} else {
		p.fullName = prof.FullName
	}
	return p, ""
}

// Email returns the account email. It cannot be changed.
func (p *Profile) Email() string {
	return p.user.Email
}

func (p *Profile) FullName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullName
}

func (p *Profile) SetFullName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fullName = name
}

// Saving reports whether a save is in flight.
func (p *Profile) Saving() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saving
}

// Save stores the full name and reports whether it succeeded.
func (p *Profile) Save(ctx context.Context) bool {
	p.mu.Lock()
	if p.saving {
		p.mu.Unlock()
		return false
	}
	p.saving = true
	name := p.fullName
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.saving = false
		p.mu.Unlock()
	}()

	if _, err := p.deps.Gateway.UpdateProfile(ctx, name); err != nil {
		p.deps.logger().Error("pages: save profile failed", slog.String("error", err.Error()))
		p.deps.notifier().Notify(notify.Failure("Error saving profile", err))
		return false
	}
	p.deps.notifier().Notify(notify.Info("Profile updated", "Your profile has been saved successfully"))
	return true
}

// Initials returns the avatar letters.
func (p *Profile) Initials() string {
	return models.Initials(p.FullName(), p.user.Email)
}
