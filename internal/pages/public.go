package pages

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notelist"
)

// PublicLister fetches the public notes.
type PublicLister interface {
	ListPublicNotes(ctx context.Context) ([]models.Note, error)
}

// PublicNotes is the read-only listing of notes shared by everyone. It
// needs no session.
type PublicNotes struct {
	gw     PublicLister
	logger *slog.Logger

	mu      sync.Mutex
	notes   []models.Note
	loading bool
}

func NewPublicNotes(gw PublicLister, logger *slog.Logger) *PublicNotes {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicNotes{gw: gw, logger: logger, notes: []models.Note{}, loading: true}
}

// Load fetches the list. Failures are logged only.
func (p *PublicNotes) Load(ctx context.Context) {
	notes, err := p.gw.ListPublicNotes(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.logger.Error("pages: fetch public notes failed", slog.String("error", err.Error()))
		return
	}
	p.notes = notes
}

// Notes returns the notes matching query.
func (p *PublicNotes) Notes(query string) []models.Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	return notelist.Filter(p.notes, query, "")
}

// Rows returns display rows for the notes matching query.
func (p *PublicNotes) Rows(query string) []notelist.Row {
	notes := p.Notes(query)
	rows := make([]notelist.Row, len(notes))
	for i := range notes {
		rows[i] = notelist.PublicPreview(&notes[i])
	}
	return rows
}

// EmptyMessage is the placeholder for an empty list.
func (p *PublicNotes) EmptyMessage(query string) string {
	p.mu.Lock()
	loading := p.loading
	p.mu.Unlock()
	if loading {
		return notelist.MsgLoading
	}
	return notelist.PublicEmptyMessage(query)
}
