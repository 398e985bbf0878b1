package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/noteservice"
	"github.com/starford/notely/internal/summarizer"
	"github.com/starford/notely/internal/testutil"
)

type testEnv struct {
	router http.Handler
	notes  *noteservice.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.TestDB(t)
	notes := noteservice.NewService(db, db, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Deps{
		Auth:       auth.NewService(db, "0123456789abcdef", time.Hour, "notely_session"),
		Notes:      notes,
		Summarizer: summarizer.NewService(summarizer.Extractive{MaxSentences: 1}, summarizer.NewLimiter(60, 5), logger),
		Logger:     logger,
	})
	return &testEnv{router: router, notes: notes}
}

func (e *testEnv) do(t *testing.T, method, path string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signUp creates an account through the form and returns the session cookie.
func (e *testEnv) signUp(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/signup", nil, url.Values{"email": {email}, "password": {"secret1"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("signup: status %d location %q body %s", w.Code, w.Header().Get("Location"), w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "notely_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("signup: no session cookie")
	return nil
}

func TestPrivatePagesRedirectToAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/dashboard", "/profile"} {
		w := env.do(t, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/auth" {
			t.Errorf("%s: status %d location %q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestPublicPagesRender(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/", "/auth", "/public-notes"} {
		w := env.do(t, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}
	w := env.do(t, http.MethodGet, "/public-notes", nil, nil)
	if !strings.Contains(w.Body.String(), "No public notes yet") {
		t.Errorf("empty public list placeholder missing")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "ada@example.com")
	w := env.do(t, http.MethodPost, "/auth/signin", nil, url.Values{"email": {"ada@example.com"}, "password": {"nope123"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Sign in failed") {
		t.Error("failure notice missing")
	}
}

func TestDashboard_ZeroNotesCreateAndSelect(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodGet, "/dashboard", cookie, nil)
	if !strings.Contains(w.Body.String(), "No notes yet. Create your first note!") {
		t.Fatalf("placeholder missing:\n%s", w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/dashboard/notes", cookie, url.Values{})
	loc := w.Header().Get("Location")
	if w.Code != http.StatusSeeOther || !strings.Contains(loc, "note=") || !strings.Contains(loc, "flash=Note+created") {
		t.Fatalf("create: status %d location %q", w.Code, loc)
	}

	w = env.do(t, http.MethodGet, loc, cookie, nil)
	body := w.Body.String()
	if !strings.Contains(body, `value="Untitled Note"`) {
		t.Error("editor not showing the new note")
	}
	if !strings.Contains(body, "Note created") {
		t.Error("flash missing")
	}
}

func TestDashboard_EditTagFilterDelete(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/dashboard/notes", cookie, url.Values{})
	id, _ := url.ParseQuery(strings.SplitN(w.Header().Get("Location"), "?", 2)[1])
	noteID := id.Get("note")

	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID, cookie, url.Values{"title": {"Groceries"}, "content": {"milk and eggs"}})
	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/tags", cookie, url.Values{"tag": {" home "}})
	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/tags", cookie, url.Values{"tag": {"home"}})

	w = env.do(t, http.MethodGet, "/dashboard?tag=home", cookie, nil)
	if !strings.Contains(w.Body.String(), "Groceries") {
		t.Fatal("tag filter dropped the note")
	}
	w = env.do(t, http.MethodGet, "/dashboard?q=pasta", cookie, nil)
	if !strings.Contains(w.Body.String(), "No notes found") {
		t.Fatal("search should match nothing")
	}

	w = env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/delete", cookie, url.Values{})
	if loc := w.Header().Get("Location"); strings.Contains(loc, "note=") || !strings.Contains(loc, "Note+deleted") {
		t.Fatalf("delete location %q", loc)
	}
}

func TestDashboard_Summarize(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/dashboard/notes", cookie, url.Values{})
	q, _ := url.ParseQuery(strings.SplitN(w.Header().Get("Location"), "?", 2)[1])
	noteID := q.Get("note")

	w = env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/summarize", cookie, url.Values{})
	if !strings.Contains(w.Body.String(), "No content") {
		t.Fatal("empty note should be rejected")
	}

	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID, cookie, url.Values{"title": {"T"}, "content": {"First point. Second point."}})
	w = env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/summarize", cookie, url.Values{})
	body := w.Body.String()
	if !strings.Contains(body, "Summary generated!") || !strings.Contains(body, "First point.") {
		t.Fatalf("summary missing:\n%s", body)
	}
}

func TestDashboard_SummarizeUsesDraft(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/dashboard/notes", cookie, url.Values{})
	q, _ := url.ParseQuery(strings.SplitN(w.Header().Get("Location"), "?", 2)[1])
	noteID := q.Get("note")
	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID, cookie, url.Values{"title": {"T"}, "content": {"Stored text."}})

	w = env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/summarize", cookie,
		url.Values{"title": {"Draft title"}, "content": {"Draft text."}})
	body := w.Body.String()
	if !strings.Contains(body, "<h3>AI summary</h3><p>Draft text.</p>") {
		t.Fatalf("summary should come from the draft:\n%s", body)
	}
	if !strings.Contains(body, `<textarea name="content">Draft text.</textarea>`) {
		t.Errorf("draft content not kept in the editor:\n%s", body)
	}
	if !strings.Contains(body, `value="Draft title"`) {
		t.Errorf("draft title not kept in the editor")
	}

	w = env.do(t, http.MethodGet, "/dashboard?note="+noteID, cookie, nil)
	if !strings.Contains(w.Body.String(), `<textarea name="content">Stored text.</textarea>`) {
		t.Errorf("summarize must not save the draft")
	}

	w = env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/summarize", cookie, url.Values{"content": {"   "}})
	if !strings.Contains(w.Body.String(), "No content") {
		t.Errorf("blank draft should be rejected even when the stored note has content")
	}
}

func TestPublicNoteFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodPost, "/dashboard/notes", cookie, url.Values{})
	q, _ := url.ParseQuery(strings.SplitN(w.Header().Get("Location"), "?", 2)[1])
	noteID := q.Get("note")
	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID, cookie, url.Values{"title": {"Shared recipe"}, "content": {"pasta"}})
	env.do(t, http.MethodPost, "/dashboard/notes/"+noteID+"/public", cookie, url.Values{"public": {"true"}})

	w = env.do(t, http.MethodGet, "/public-notes?q=PASTA", nil, nil)
	if !strings.Contains(w.Body.String(), "Shared recipe") {
		t.Fatal("public note not listed")
	}

	public, err := env.notes.ListPublic(t.Context())
	if err != nil || len(public) != 1 || public[0].Slug == nil {
		t.Fatalf("public notes: %v %+v", err, public)
	}
	w = env.do(t, http.MethodGet, "/public-notes/"+*public[0].Slug, nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "1 views") {
		t.Fatalf("public note: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/public-notes/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing slug status = %d", w.Code)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signUp(t, "ada@example.com")

	w := env.do(t, http.MethodGet, "/profile", cookie, nil)
	if !strings.Contains(w.Body.String(), ">A</span>") {
		t.Errorf("initials from email missing")
	}

	w = env.do(t, http.MethodPost, "/profile", cookie, url.Values{"full_name": {"Ada Lovelace"}})
	if !strings.Contains(w.Header().Get("Location"), "Profile+updated") {
		t.Fatalf("location %q", w.Header().Get("Location"))
	}
	w = env.do(t, http.MethodGet, "/profile", cookie, nil)
	if !strings.Contains(w.Body.String(), `value="Ada Lovelace"`) || !strings.Contains(w.Body.String(), ">AL</span>") {
		t.Error("saved profile not shown")
	}
}
