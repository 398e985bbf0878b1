package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/noteservice"
	"github.com/starford/notely/internal/realtime"
	"github.com/starford/notely/internal/summarizer"
	"github.com/starford/notely/internal/testutil"
)

type testEnv struct {
	router http.Handler
	broker *realtime.Broker
}

// newTestEnv sets up a temp SQLite DB, the services and the router.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	broker := realtime.NewBroker()
	t.Cleanup(broker.Close)

	authSvc := auth.NewService(db, "0123456789abcdef", time.Hour, "notely_session")
	router := NewRouter(Deps{
		Auth:       authSvc,
		Notes:      noteservice.NewService(db, db, broker),
		Summarizer: summarizer.NewService(summarizer.Extractive{MaxSentences: 1}, summarizer.NewLimiter(60, 2), nil),
		Broker:     broker,
		Heartbeat:  time.Hour,
	})
	return &testEnv{router: router, broker: broker}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signIn registers email and returns a bearer token.
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	creds := CredentialsRequest{Email: email, Password: "secret-pass"}
	if w := e.do(t, http.MethodPost, "/auth/signup", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodPost, "/auth/signin", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body = %s", w.Code, w.Body.String())
	}
	var sess models.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	return sess.AccessToken
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) models.Note {
	t.Helper()
	var n models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &n); err != nil {
		t.Fatalf("decode note: %v (%s)", err, w.Body.String())
	}
	return n
}

func TestCreateAndGetNote(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")

	w := e.do(t, http.MethodPost, "/notes", token, models.NewNoteInsert())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decodeNote(t, w)
	if created.Title != models.DefaultNoteTitle || created.Tags == nil {
		t.Errorf("created = %+v", created)
	}

	w = e.do(t, http.MethodGet, "/notes/"+created.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	if got := decodeNote(t, w); got.ID != created.ID {
		t.Errorf("got id %q", got.ID)
	}
}

func TestCreateNote_EmptyBody(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	w := e.do(t, http.MethodPost, "/notes", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if n := decodeNote(t, w); n.Title != models.DefaultNoteTitle {
		t.Errorf("title = %q", n.Title)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	w := e.do(t, http.MethodPost, "/notes", token, nil)
	etag := w.Header().Get("ETag")
	id := decodeNote(t, w).ID

	patch := models.NotePatch{Title: models.Ptr("Renamed")}
	req := httptest.NewRequest(http.MethodPatch, "/notes/"+id, strings.NewReader(`{"title":"Renamed"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-Match", `"wrong"`)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale If-Match status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/notes/"+id, strings.NewReader(`{"title":"Renamed"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("If-Match", etag)
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("matching If-Match status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeNote(t, rec); got.Title != *patch.Title {
		t.Errorf("title = %q", got.Title)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	id := decodeNote(t, e.do(t, http.MethodPost, "/notes", token, nil)).ID

	w := e.do(t, http.MethodPatch, "/notes/"+id, token, models.NotePatch{Tags: &[]string{"work"}, IsFavorite: models.Ptr(true)})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeNote(t, w)
	if !got.IsFavorite || len(got.Tags) != 1 || got.Tags[0] != "work" {
		t.Errorf("got %+v", got)
	}
}

func TestUpdate_SlugInUse(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	first := decodeNote(t, e.do(t, http.MethodPost, "/notes", token, nil)).ID
	second := decodeNote(t, e.do(t, http.MethodPost, "/notes", token, nil)).ID

	if w := e.do(t, http.MethodPatch, "/notes/"+first, token, models.NotePatch{Slug: models.Ptr("taken")}); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodPatch, "/notes/"+second, token, models.NotePatch{Slug: models.Ptr("taken")})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestDeleteNote(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	id := decodeNote(t, e.do(t, http.MethodPost, "/notes", token, nil)).ID

	if w := e.do(t, http.MethodDelete, "/notes/"+id, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/notes/"+id, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/notes/"+id, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
}

func TestListNotes_ScopedToCaller(t *testing.T) {
	e := newTestEnv(t)
	alice := e.signIn(t, "alice@example.com")
	bob := e.signIn(t, "bob@example.com")
	e.do(t, http.MethodPost, "/notes", alice, nil)
	e.do(t, http.MethodPost, "/notes", alice, nil)
	e.do(t, http.MethodPost, "/notes", bob, nil)

	w := e.do(t, http.MethodGet, "/notes", alice, nil)
	var resp NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notes) != 2 {
		t.Errorf("alice sees %d notes, want 2", len(resp.Notes))
	}
}

func TestNotes_RequireAuth(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/notes", "/profile", "/auth/user", "/events"} {
		if w := e.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, w.Code)
		}
	}
	if w := e.do(t, http.MethodGet, "/notes", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", w.Code)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, "a@example.com")
	w := e.do(t, http.MethodPost, "/auth/signin", "", CredentialsRequest{Email: "a@example.com", Password: "nope-nope"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSignUp_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, "a@example.com")
	w := e.do(t, http.MethodPost, "/auth/signup", "", CredentialsRequest{Email: "a@example.com", Password: "secret-pass"})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAuthUser(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "me@example.com")
	w := e.do(t, http.MethodGet, "/auth/user", token, nil)
	var resp UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.User.Email != "me@example.com" || resp.User.ID == "" {
		t.Errorf("user = %+v", resp.User)
	}
}

func TestPublicNotes(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	id := decodeNote(t, e.do(t, http.MethodPost, "/notes", token, models.NoteInsert{Title: "Shared"})).ID
	e.do(t, http.MethodPost, "/notes", token, nil)

	w := e.do(t, http.MethodPatch, "/notes/"+id, token, models.NotePatch{IsPublic: models.Ptr(true)})
	published := decodeNote(t, w)
	if published.Slug == nil {
		t.Fatal("publishing should assign a slug")
	}

	w = e.do(t, http.MethodGet, "/public/notes", "", nil)
	var resp NoteListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Notes) != 1 || resp.Notes[0].ID != id {
		t.Errorf("public notes = %+v", resp.Notes)
	}

	w = e.do(t, http.MethodGet, "/public/notes/"+*published.Slug, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public read status = %d", w.Code)
	}
	if got := decodeNote(t, w); got.ViewCount != 1 {
		t.Errorf("view_count = %d", got.ViewCount)
	}
	if w := e.do(t, http.MethodGet, "/public/notes/missing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing slug status = %d", w.Code)
	}
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	w := e.do(t, http.MethodPatch, "/profile", token, UpdateProfileRequest{FullName: "Ada Lovelace"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/profile", token, nil)
	var p models.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Ada Lovelace" {
		t.Errorf("full_name = %q", p.FullName)
	}
}

func TestSummarizeNote(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")

	w := e.do(t, http.MethodPost, "/functions/summarize-note", token, SummarizeRequest{Content: "First point. Second point."})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SummarizeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary != "First point." {
		t.Errorf("summary = %q", resp.Summary)
	}

	if w := e.do(t, http.MethodPost, "/functions/summarize-note", token, SummarizeRequest{Content: "   "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank content status = %d", w.Code)
	}
}

func TestSummarizeNote_RateLimited(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	body := SummarizeRequest{Content: "Text."}

	var last int
	for range 5 {
		last = e.do(t, http.MethodPost, "/functions/summarize-note", token, body).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	if w := e.do(t, http.MethodGet, "/search", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")
	e.do(t, http.MethodPost, "/notes", token, models.NoteInsert{Title: "Kubernetes", Content: "pods and nodes"})

	w := e.do(t, http.MethodGet, "/search?q=pods", token, nil)
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Kubernetes" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSSEEvents_ReceivesOwnChanges(t *testing.T) {
	e := newTestEnv(t)
	token := e.signIn(t, "a@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		e.router.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for e.broker.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	e.do(t, http.MethodPost, "/notes", token, nil)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), "event: INSERT") {
		t.Errorf("stream missing INSERT event: %q", w.Body.String())
	}
}
