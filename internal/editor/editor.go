// Package editor holds the draft of the selected note and the summarize
// sub-state.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notify"
)

var (
	// ErrNoSelection is returned when an action needs a selected note.
	ErrNoSelection = errors.New("editor: no note selected")
	// ErrSummarizing is returned while a summary request is pending.
	ErrSummarizing = errors.New("editor: summary already in progress")
	// ErrSuperseded is returned for a summary that finished after the
	// selection changed.
	ErrSuperseded = errors.New("editor: selection changed")
)

// State is the save state of the editor.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// Updater persists partial note updates.
type Updater interface {
	Update(ctx context.Context, id string, patch models.NotePatch) bool
}

// Summarizer invokes the remote summarization function.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Draft is the locally edited copy of a note.
type Draft struct {
	Title      string
	Content    string
	Tags       []string
	IsFavorite bool
	IsPublic   bool
}

// Editor edits one note at a time. Safe for concurrent use.
type Editor struct {
	updater  Updater
	fn       Summarizer
	notifier notify.Notifier
	logger   *slog.Logger

	mu          sync.Mutex
	noteID      string
	draft       Draft
	state       State
	summarizing bool
	summary     string
	gen         uint64
	cancel      context.CancelFunc
}

// New creates an editor with nothing selected.
func New(updater Updater, fn Summarizer, notifier notify.Notifier, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Log{Logger: logger}
	}
	return &Editor{updater: updater, fn: fn, notifier: notifier, logger: logger}
}

// Select loads n into the draft when its identity differs from the current
// selection. A nil note clears the editor. Changing the selection discards
// the unsaved draft, clears the summary and cancels a pending summary.
func (e *Editor) Select(n *models.Note) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := ""
	if n != nil {
		id = n.ID
	}
	if id == e.noteID && id != "" {
		return
	}

	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.summarizing = false
	e.summary = ""
	e.noteID = id

	if n == nil {
		e.draft = Draft{}
		e.state = StateEmpty
		return
	}
	e.draft = Draft{
		Title:      n.Title,
		Content:    n.Content,
		Tags:       slices.Clone(n.Tags),
		IsFavorite: n.IsFavorite,
		IsPublic:   n.IsPublic,
	}
	if e.draft.Tags == nil {
		e.draft.Tags = []string{}
	}
	e.state = StateEditing
}

// NoteID returns the selected note id, or "" when nothing is selected.
func (e *Editor) NoteID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.noteID
}

// Draft returns a copy of the draft.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.draft
	d.Tags = slices.Clone(e.draft.Tags)
	return d
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Summary returns the last generated summary for the selected note.
func (e *Editor) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Summarizing reports whether a summary request is pending.
func (e *Editor) Summarizing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summarizing
}

// SetTitle edits the draft title without saving.
func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Title = title
}

// SetContent edits the draft content without saving.
func (e *Editor) SetContent(content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Content = content
}

// Save persists title, content, tags and the favorite flag.
func (e *Editor) Save(ctx context.Context) bool {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return false
	}
	id := e.noteID
	patch := models.NotePatch{
		Title:      models.Ptr(e.draft.Title),
		Content:    models.Ptr(e.draft.Content),
		Tags:       models.Ptr(slices.Clone(e.draft.Tags)),
		IsFavorite: models.Ptr(e.draft.IsFavorite),
	}
	e.state = StateSaving
	e.mu.Unlock()

	ok := e.updater.Update(ctx, id, patch)

	e.mu.Lock()
	if e.noteID == id && e.state == StateSaving {
		e.state = StateEditing
	}
	e.mu.Unlock()
	return ok
}

// AddTag appends the trimmed tag and persists the tag list at once. Blank
// and already present tags are ignored.
func (e *Editor) AddTag(ctx context.Context, raw string) bool {
	tag := strings.TrimSpace(raw)
	e.mu.Lock()
	if e.state == StateEmpty || tag == "" || slices.Contains(e.draft.Tags, tag) {
		e.mu.Unlock()
		return false
	}
	e.draft.Tags = append(e.draft.Tags, tag)
	return e.persist(ctx, models.NotePatch{Tags: models.Ptr(slices.Clone(e.draft.Tags))})
}

// RemoveTag drops tag and persists the tag list at once.
func (e *Editor) RemoveTag(ctx context.Context, tag string) bool {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return false
	}
	e.draft.Tags = slices.DeleteFunc(e.draft.Tags, func(t string) bool { return t == tag })
	return e.persist(ctx, models.NotePatch{Tags: models.Ptr(slices.Clone(e.draft.Tags))})
}

// ToggleFavorite flips the favorite flag and persists it at once.
func (e *Editor) ToggleFavorite(ctx context.Context) bool {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return false
	}
	e.draft.IsFavorite = !e.draft.IsFavorite
	return e.persist(ctx, models.NotePatch{IsFavorite: models.Ptr(e.draft.IsFavorite)})
}

// SetPublic sets the visibility flag and persists it at once.
func (e *Editor) SetPublic(ctx context.Context, public bool) bool {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return false
	}
	e.draft.IsPublic = public
	return e.persist(ctx, models.NotePatch{IsPublic: models.Ptr(public)})
}

// persist is called with e.mu held and releases it.
func (e *Editor) persist(ctx context.Context, patch models.NotePatch) bool {
	id := e.noteID
	e.mu.Unlock()
	return e.updater.Update(ctx, id, patch)
}

// Summarize sends the draft content to the summarization function and
// keeps the result locally. Blank content is rejected without a remote
// call.
func (e *Editor) Summarize(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return "", ErrNoSelection
	}
	if e.summarizing {
		e.mu.Unlock()
		return "", ErrSummarizing
	}
	content := e.draft.Content
	if strings.TrimSpace(content) == "" {
		e.mu.Unlock()
		e.notifier.Notify(notify.Notification{
			Title:       "No content",
			Description: "Please add some content to summarize",
			Variant:     notify.VariantDestructive,
		})
		return "", apperr.ErrEmptyContent
	}
	e.summarizing = true
	gen := e.gen
	sctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	summary, err := e.fn.Summarize(sctx, content)
	cancel()

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.logger.Debug("editor: summary dropped after selection change")
		return "", ErrSuperseded
	}
	e.summarizing = false
	e.cancel = nil
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("editor: summarization failed", slog.String("error", err.Error()))
		e.notifier.Notify(notify.Failure("Summarization failed", err))
		return "", err
	}
	if summary == "" {
		e.mu.Unlock()
		return "", nil
	}
	e.summary = summary
	e.mu.Unlock()
	e.notifier.Notify(notify.Info("Summary generated!", "Your note has been summarized by AI"))
	return summary, nil
}
