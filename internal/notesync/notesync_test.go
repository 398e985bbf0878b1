package notesync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notify"
)

type fakeGateway struct {
	mu        sync.Mutex
	notes     []models.Note
	listErr   error
	listCalls int
	gate      chan struct{}
	entered   chan struct{}
	events    chan models.ChangeEvent
	insertErr error
	updateErr error
	deleteErr error
	patches   map[string]models.NotePatch
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events:  make(chan models.ChangeEvent, 8),
		entered: make(chan struct{}, 16),
		patches: map[string]models.NotePatch{},
	}
}

func (g *fakeGateway) ListNotes(ctx context.Context) ([]models.Note, error) {
	g.mu.Lock()
	g.listCalls++
	gate := g.gate
	notes := append([]models.Note(nil), g.notes...)
	err := g.listErr
	g.mu.Unlock()

	g.entered <- struct{}{}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return notes, err
}

func (g *fakeGateway) InsertNote(_ context.Context, in models.NoteInsert) (*models.Note, error) {
	if g.insertErr != nil {
		return nil, g.insertErr
	}
	n := models.Note{ID: "new", Title: in.Title, Content: in.Content, Tags: in.Tags}
	g.mu.Lock()
	g.notes = append(g.notes, n)
	g.mu.Unlock()
	return &n, nil
}

func (g *fakeGateway) UpdateNote(_ context.Context, id string, patch models.NotePatch) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	g.mu.Lock()
	g.patches[id] = patch
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) DeleteNote(_ context.Context, id string) error {
	return g.deleteErr
}

func (g *fakeGateway) Subscribe(context.Context) (<-chan models.ChangeEvent, error) {
	return g.events, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitUpdate(t *testing.T, h *Hook) {
	t.Helper()
	select {
	case <-h.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for list update")
	}
}

func note(id string, updated time.Time) models.Note {
	return models.Note{ID: id, Title: id, Tags: []string{}, UpdatedAt: updated}
}

func TestRefetch_OrdersByUpdatedDesc(t *testing.T) {
	gw := newFakeGateway()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	gw.notes = []models.Note{note("old", base), note("new", base.Add(time.Hour)), note("mid", base.Add(time.Minute))}

	h := New(gw, &notify.Recorder{}, discard())
	assert.True(t, h.Loading())
	assert.Empty(t, h.Notes())

	h.Refetch(context.Background())
	assert.False(t, h.Loading())

	var ids []string
	for _, n := range h.Notes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestRefetch_ErrorKeepsListAndNotifies(t *testing.T) {
	gw := newFakeGateway()
	gw.notes = []models.Note{note("a", time.Now())}
	rec := &notify.Recorder{}
	h := New(gw, rec, discard())

	h.Refetch(context.Background())
	require.Len(t, h.Notes(), 1)

	gw.listErr = errors.New("boom")
	h.Refetch(context.Background())
	assert.Len(t, h.Notes(), 1)
	assert.Equal(t, []string{"Error loading notes"}, rec.Titles())
	assert.Equal(t, notify.VariantDestructive, rec.All()[0].Variant)
}

func TestFirstFetchFailureClearsLoading(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = errors.New("offline")
	h := New(gw, &notify.Recorder{}, discard())
	h.Refetch(context.Background())
	assert.False(t, h.Loading())
	assert.Empty(t, h.Notes())
}

func TestRefetch_CoalescesOverlappingTriggers(t *testing.T) {
	gw := newFakeGateway()
	gw.gate = make(chan struct{})
	h := New(gw, &notify.Recorder{}, discard())
	ctx := context.Background()

	first := make(chan struct{})
	go func() {
		h.Refetch(ctx)
		close(first)
	}()
	<-gw.entered

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Refetch(ctx)
		}()
	}
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.joined == 5
	}, time.Second, 5*time.Millisecond)

	close(gw.gate)
	<-first
	wg.Wait()

	assert.Equal(t, 2, gw.calls(), "one in-flight fetch plus exactly one follow-up")
	h.mu.Lock()
	assert.Equal(t, uint64(2), h.applied)
	assert.Nil(t, h.cycle)
	h.mu.Unlock()
}

func TestFetch_DropsStaleResult(t *testing.T) {
	gw := newFakeGateway()
	gw.notes = []models.Note{note("fresh", time.Now())}
	h := New(gw, &notify.Recorder{}, discard())

	h.mu.Lock()
	h.started = 2
	h.mu.Unlock()
	h.fetch(context.Background(), 2)

	gw.mu.Lock()
	gw.notes = []models.Note{note("stale", time.Now())}
	gw.mu.Unlock()
	h.fetch(context.Background(), 1)

	require.Len(t, h.Notes(), 1)
	assert.Equal(t, "fresh", h.Notes()[0].ID)
}

func TestRun_RefetchesOnEveryEvent(t *testing.T) {
	gw := newFakeGateway()
	h := New(gw, &notify.Recorder{}, discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	waitUpdate(t, h)
	assert.Equal(t, 1, gw.calls())

	gw.mu.Lock()
	gw.notes = []models.Note{note("remote", time.Now())}
	gw.mu.Unlock()
	gw.events <- models.ChangeEvent{Table: models.TableNotes, Type: models.EventInsert}
	waitUpdate(t, h)

	require.Len(t, h.Notes(), 1)
	assert.Equal(t, "remote", h.Notes()[0].ID)

	gw.events <- models.ChangeEvent{Table: models.TableNotes, Type: models.EventDelete, OldRecord: &models.RowRef{ID: "other"}}
	require.Eventually(t, func() bool { return gw.calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_StreamClosedReturns(t *testing.T) {
	gw := newFakeGateway()
	close(gw.events)
	h := New(gw, &notify.Recorder{}, discard())
	assert.NoError(t, h.Run(context.Background()))
}

func TestCreate(t *testing.T) {
	gw := newFakeGateway()
	rec := &notify.Recorder{}
	h := New(gw, rec, discard())

	n := h.Create(context.Background())
	require.NotNil(t, n)
	assert.Equal(t, models.DefaultNoteTitle, n.Title)
	assert.Empty(t, n.Content)
	assert.Empty(t, n.Tags)
	assert.Equal(t, []notify.Notification{notify.Info("Note created", "Your new note is ready")}, rec.All())

	rec.Reset()
	gw.insertErr = errors.New("denied")
	assert.Nil(t, h.Create(context.Background()))
	assert.Equal(t, []string{"Error creating note"}, rec.Titles())
}

func TestCreateAppearsAfterRefetch(t *testing.T) {
	gw := newFakeGateway()
	h := New(gw, &notify.Recorder{}, discard())
	h.Refetch(context.Background())
	require.Empty(t, h.Notes())

	created := h.Create(context.Background())
	require.NotNil(t, created)
	_, found := h.Find(created.ID)
	assert.False(t, found, "list is not patched locally")

	h.Refetch(context.Background())
	got, found := h.Find(created.ID)
	require.True(t, found)
	assert.Equal(t, models.DefaultNoteTitle, got.Title)
	assert.False(t, got.IsFavorite)
	assert.False(t, got.IsPublic)
}

func TestUpdateAndDelete(t *testing.T) {
	gw := newFakeGateway()
	rec := &notify.Recorder{}
	h := New(gw, rec, discard())
	ctx := context.Background()

	assert.True(t, h.Update(ctx, "n1", models.NotePatch{Title: models.Ptr("x")}))
	assert.Equal(t, "x", *gw.patches["n1"].Title)
	assert.Empty(t, rec.All())

	gw.updateErr = errors.New("nope")
	assert.False(t, h.Update(ctx, "n1", models.NotePatch{}))
	assert.Equal(t, []string{"Error updating note"}, rec.Titles())

	rec.Reset()
	assert.True(t, h.Delete(ctx, "n1"))
	assert.Equal(t, []notify.Notification{notify.Info("Note deleted", "Your note has been removed")}, rec.All())

	rec.Reset()
	gw.deleteErr = errors.New("gone")
	assert.False(t, h.Delete(ctx, "n1"))
	assert.Equal(t, []string{"Error deleting note"}, rec.Titles())
}

// liveGateway delivers a change only to subscribers registered when it is
// published, like the server broker.
type liveGateway struct {
	mu     sync.Mutex
	notes  []models.Note
	subs   []chan models.ChangeEvent
	lists  int
	subErr error
}

func (g *liveGateway) ListNotes(context.Context) ([]models.Note, error) {
	g.mu.Lock()
	g.lists++
	first := g.lists == 1
	snapshot := append([]models.Note(nil), g.notes...)
	g.mu.Unlock()

	if first {
		g.publish(note("late", time.Now()))
	}
	return snapshot, nil
}

func (g *liveGateway) publish(n models.Note) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notes = append(g.notes, n)
	for _, ch := range g.subs {
		select {
		case ch <- models.ChangeEvent{Table: models.TableNotes, Type: models.EventInsert}:
		default:
		}
	}
}

func (g *liveGateway) InsertNote(context.Context, models.NoteInsert) (*models.Note, error) {
	return nil, errors.New("not supported")
}

func (g *liveGateway) UpdateNote(context.Context, string, models.NotePatch) error { return nil }

func (g *liveGateway) DeleteNote(context.Context, string) error { return nil }

func (g *liveGateway) Subscribe(context.Context) (<-chan models.ChangeEvent, error) {
	if g.subErr != nil {
		return nil, g.subErr
	}
	ch := make(chan models.ChangeEvent, 4)
	g.mu.Lock()
	g.subs = append(g.subs, ch)
	g.mu.Unlock()
	return ch, nil
}

func TestRun_ChangeDuringFirstFetchConverges(t *testing.T) {
	gw := &liveGateway{}
	h := New(gw, &notify.Recorder{}, discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool { return len(h.Notes()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "late", h.Notes()[0].ID)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_SubscribeFailureStillLoads(t *testing.T) {
	gw := &liveGateway{subErr: errors.New("dial refused")}
	h := New(gw, &notify.Recorder{}, discard())

	err := h.Run(context.Background())
	require.Error(t, err)
	assert.False(t, h.Loading())
	gw.mu.Lock()
	assert.Equal(t, 1, gw.lists)
	gw.mu.Unlock()
}
