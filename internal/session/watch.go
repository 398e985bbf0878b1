package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notely/internal/models"
)

// Event kinds.
const (
	SignedIn  = "SIGNED_IN"
	SignedOut = "SIGNED_OUT"
)

// Event is a session transition. Session is nil for SignedOut.
type Event struct {
	Kind    string
	Session *models.Session
}

const debounce = 100 * time.Millisecond

// Watch observes the session file until ctx is cancelled and calls cb when
// the signed-in user changes. An expired session counts as signed out.
// The parent directory is watched so the file may be created or removed
// freely.
func Watch(ctx context.Context, s *Store, logger *slog.Logger, cb func(Event)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	current := userID(s, logger)
	logger.Debug("session watcher: started", slog.String("path", s.path))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-timerCh:
			sess, err := s.Load()
			if err != nil {
				logger.Warn("session watcher: load failed", slog.String("error", err.Error()))
				continue
			}
			next := ""
			if sess.Valid(time.Now()) {
				next = sess.User.ID
			} else {
				sess = nil
			}
			if next == current {
				continue
			}
			current = next
			if sess == nil {
				cb(Event{Kind: SignedOut})
			} else {
				cb(Event{Kind: SignedIn, Session: sess})
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("session watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func userID(s *Store, logger *slog.Logger) string {
	sess, err := s.Load()
	if err != nil {
		logger.Warn("session watcher: load failed", slog.String("error", err.Error()))
		return ""
	}
	if !sess.Valid(time.Now()) {
		return ""
	}
	return sess.User.ID
}

// Watch is the method form of the package-level Watch.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger, cb func(Event)) error {
	return Watch(ctx, s, logger, cb)
}
