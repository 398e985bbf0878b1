package session

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notely/internal/models"
)

func testSession(id string) *models.Session {
	return &models.Session{
		AccessToken: "tok-" + id,
		ExpiresAt:   time.Now().Add(time.Hour).UTC(),
		User:        models.User{ID: id, Email: id + "@example.com"},
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", fileName))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(testSession("u1")))
	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.User.ID)
	assert.True(t, got.Valid(time.Now()))

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), fileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestWatch_Transitions(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), fileName))
	require.NoError(t, s.Save(testSession("u1")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, s, slog.New(slog.NewTextHandler(io.Discard, nil)), func(ev Event) { events <- ev })
	}()
	time.Sleep(100 * time.Millisecond)

	next := func() Event {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(3 * time.Second):
			t.Fatal("timeout waiting for session event")
			return Event{}
		}
	}

	require.NoError(t, s.Clear())
	assert.Equal(t, SignedOut, next().Kind)

	require.NoError(t, s.Save(testSession("u2")))
	ev := next()
	assert.Equal(t, SignedIn, ev.Kind)
	assert.Equal(t, "u2", ev.Session.User.ID)

	cancel()
	require.NoError(t, <-done)
}
