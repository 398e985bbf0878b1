// Package notesync keeps the signed-in user's note list in step with the
// server. The list is never patched locally: every change notification
// triggers a full re-fetch.
package notesync

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notify"
)

// Gateway is the part of the remote API the hook needs.
type Gateway interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	InsertNote(ctx context.Context, in models.NoteInsert) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) error
	DeleteNote(ctx context.Context, id string) error
	Subscribe(ctx context.Context) (<-chan models.ChangeEvent, error)
}

// Hook holds the synchronized list.
//
// Re-fetches never overlap: a trigger that arrives while a fetch is in
// flight marks the cycle pending, and exactly one follow-up fetch runs when
// the current one finishes. Each fetch is numbered and a result older than
// the last applied one is dropped.
type Hook struct {
	gw       Gateway
	notifier notify.Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	notes   []models.Note
	loading bool
	pending bool
	joined  int
	cycle   chan struct{} // non-nil while a fetch cycle runs; closed when it ends
	started uint64
	applied uint64

	updates chan struct{}
}

// New creates a hook. The list starts empty and loading.
func New(gw Gateway, notifier notify.Notifier, logger *slog.Logger) *Hook {
	if notifier == nil {
		notifier = notify.Log{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{
		gw:       gw,
		notifier: notifier,
		logger:   logger,
		notes:    []models.Note{},
		loading:  true,
		updates:  make(chan struct{}, 1),
	}
}

// Run subscribes to change notifications, fetches the list and re-fetches
// on every event until ctx is done or the stream closes. The subscription
// is opened before the first fetch so a change made while that fetch is in
// flight still produces an event. Run returns an error only when the
// subscription cannot be opened; the list is loaded once regardless.
func (h *Hook) Run(ctx context.Context) error {
	events, err := h.gw.Subscribe(ctx)
	if err != nil {
		h.logger.Error("notesync: subscribe failed", slog.String("error", err.Error()))
		h.Refetch(ctx)
		return err
	}

	h.Refetch(ctx)

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				h.logger.Info("notesync: change stream closed")
				return nil
			}
			h.logger.Debug("notesync: change received",
				slog.String("type", ev.Type),
				slog.String("table", ev.Table),
			)
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.Refetch(ctx)
			}()
		}
	}
}

// Refetch reloads the list. When a fetch is already running the call joins
// that cycle and returns once the follow-up fetch it scheduled has finished.
func (h *Hook) Refetch(ctx context.Context) {
	h.mu.Lock()
	if h.cycle != nil {
		h.pending = true
		h.joined++
		done := h.cycle
		h.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		h.mu.Lock()
		h.joined--
		h.mu.Unlock()
		return
	}
	done := make(chan struct{})
	h.cycle = done
	h.mu.Unlock()

	defer close(done)
	for {
		h.mu.Lock()
		h.pending = false
		h.started++
		seq := h.started
		h.mu.Unlock()

		h.fetch(ctx, seq)

		h.mu.Lock()
		if !h.pending || ctx.Err() != nil {
			h.cycle = nil
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()
	}
}

func (h *Hook) fetch(ctx context.Context, seq uint64) {
	notes, err := h.gw.ListNotes(ctx)

	h.mu.Lock()
	h.loading = false
	if err != nil {
		h.mu.Unlock()
		h.logger.Error("notesync: fetch failed", slog.String("error", err.Error()))
		h.notifier.Notify(notify.Failure("Error loading notes", err))
		h.signal()
		return
	}
	if seq <= h.applied {
		h.mu.Unlock()
		h.logger.Debug("notesync: stale fetch dropped", slog.Uint64("seq", seq))
		return
	}
	h.applied = seq
	h.notes = sortByUpdated(notes)
	h.mu.Unlock()
	h.signal()
}

func (h *Hook) signal() {
	select {
	case h.updates <- struct{}{}:
	default:
	}
}

func sortByUpdated(notes []models.Note) []models.Note {
	out := slices.Clone(notes)
	if out == nil {
		out = []models.Note{}
	}
	slices.SortStableFunc(out, func(a, b models.Note) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// Notes returns a copy of the current list, most recently updated first.
func (h *Hook) Notes() []models.Note {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Note, len(h.notes))
	for i := range h.notes {
		out[i] = h.notes[i].Clone()
	}
	return out
}

// Find returns the note with id from the current list.
func (h *Hook) Find(id string) (models.Note, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.notes {
		if h.notes[i].ID == id {
			return h.notes[i].Clone(), true
		}
	}
	return models.Note{}, false
}

// Loading reports whether the first fetch is still outstanding.
func (h *Hook) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

// Updates signals after each fetch resolves. Signals are coalesced.
func (h *Hook) Updates() <-chan struct{} {
	return h.updates
}

// Create inserts a blank note and returns it, or nil on failure.
func (h *Hook) Create(ctx context.Context) *models.Note {
	n, err := h.gw.InsertNote(ctx, models.NewNoteInsert())
	if err != nil {
		h.logger.Error("notesync: create failed", slog.String("error", err.Error()))
		h.notifier.Notify(notify.Failure("Error creating note", err))
		return nil
	}
	h.notifier.Notify(notify.Info("Note created", "Your new note is ready"))
	return n
}

// Update sends patch for id. The list is refreshed by the next
// notification, not here. It reports whether the call succeeded.
func (h *Hook) Update(ctx context.Context, id string, patch models.NotePatch) bool {
	if err := h.gw.UpdateNote(ctx, id, patch); err != nil {
		h.logger.Error("notesync: update failed", slog.String("id", id), slog.String("error", err.Error()))
		h.notifier.Notify(notify.Failure("Error updating note", err))
		return false
	}
	return true
}

// Delete removes id and reports whether the call succeeded.
func (h *Hook) Delete(ctx context.Context, id string) bool {
	if err := h.gw.DeleteNote(ctx, id); err != nil {
		h.logger.Error("notesync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		h.notifier.Notify(notify.Failure("Error deleting note", err))
		return false
	}
	h.notifier.Notify(notify.Info("Note deleted", "Your note has been removed"))
	return true
}
