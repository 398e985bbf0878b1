package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/notely/internal/apperr"
)

type countingFunc struct {
	calls atomic.Int32
	out   string
	err   error
}

func (f *countingFunc) Summarize(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.out, f.err
}

func TestExtractive_LeadingSentences(t *testing.T) {
	e := Extractive{MaxSentences: 2}
	got, err := e.Summarize(context.Background(), "# Trip\n\nPack bags. Book hotel! Call mom? Buy snacks.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Trip Pack bags." {
		t.Errorf("got %q", got)
	}
}

func TestExtractive_KeepsDecimals(t *testing.T) {
	got, _ := Extractive{MaxSentences: 1}.Summarize(context.Background(), "Version 1.25 shipped today. More later.")
	if got != "Version 1.25 shipped today." {
		t.Errorf("got %q", got)
	}
}

func TestService_BlankContentSkipsBackend(t *testing.T) {
	fn := &countingFunc{out: "x"}
	svc := NewService(fn, nil, nil)
	if _, err := svc.Summarize(context.Background(), "u1", "  \n\t "); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if fn.calls.Load() != 0 {
		t.Errorf("backend called %d times", fn.calls.Load())
	}
}

func TestService_RateLimitPerUser(t *testing.T) {
	fn := &countingFunc{out: " short "}
	svc := NewService(fn, NewLimiter(0.001, 1), nil)
	ctx := context.Background()

	got, err := svc.Summarize(ctx, "u1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got != "short" {
		t.Errorf("summary = %q", got)
	}
	if _, err := svc.Summarize(ctx, "u1", "hello"); !errors.Is(err, apperr.ErrRateLimited) {
		t.Errorf("second call: expected ErrRateLimited, got %v", err)
	}
	if _, err := svc.Summarize(ctx, "u2", "hello"); err != nil {
		t.Errorf("other user should have own bucket: %v", err)
	}
}

func TestService_BackendError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&countingFunc{err: boom}, nil, nil)
	if _, err := svc.Summarize(context.Background(), "u1", "text"); !errors.Is(err, boom) {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestOpenAI_ChatCompletion(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"A short summary."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL+"/v1", "gpt-4o-mini", 3)
	got, err := o.Summarize(context.Background(), "long note")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "A short summary." {
		t.Errorf("got %q", got)
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("model = %q", gotModel)
	}
}

func TestLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewLimiter(60, 1)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("u1") {
		t.Fatal("first request should pass")
	}
	if l.Allow("u1") {
		t.Fatal("burst exhausted")
	}
	clock = clock.Add(10 * time.Minute)
	if !l.Allow("u2") {
		t.Fatal("u2 first request should pass")
	}
	l.mu.Lock()
	_, kept := l.buckets["u1"]
	size := len(l.buckets)
	l.mu.Unlock()
	if kept || size != 1 {
		t.Errorf("idle bucket not dropped: kept=%v size=%d", kept, size)
	}
	if !l.Allow("u1") {
		t.Error("u1 should start with a full bucket again")
	}
}

func TestLimiter_KeepsActiveBuckets(t *testing.T) {
	l := NewLimiter(0.001, 1)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("u1")
	clock = clock.Add(2 * time.Minute)
	if l.Allow("u1") {
		t.Error("slow bucket must not be reset by a sweep before it refills")
	}
}
