// Package summarizer implements the note summarization function.
package summarizer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/notely/internal/apperr"
)

// Function turns note content into a short summary.
type Function interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Service applies input checks and per-user rate limiting around a Function.
type Service struct {
	fn      Function
	limiter *Limiter
	logger  *slog.Logger
}

// NewService creates a summarization service. limiter may be nil.
func NewService(fn Function, limiter *Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fn: fn, limiter: limiter, logger: logger}
}

// Summarize returns a summary of content on behalf of userID. Blank content
// yields apperr.ErrEmptyContent without calling the backend.
func (s *Service) Summarize(ctx context.Context, userID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.ErrEmptyContent
	}
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return "", apperr.ErrRateLimited
	}
	start := time.Now()
	summary, err := s.fn.Summarize(ctx, content)
	if err != nil {
		s.logger.Error("summarize failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return "", err
	}
	s.logger.Debug("summarized note",
		slog.String("user_id", userID),
		slog.Int("content_len", len(content)),
		slog.Duration("took", time.Since(start)))
	return strings.TrimSpace(summary), nil
}

// Limiter hands out one token bucket per user. Buckets idle long enough to
// have refilled completely are dropped on a periodic sweep, so the map only
// holds recently active users.
type Limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	buckets   map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLimiter allows perMinute requests per user with the given burst.
func NewLimiter(perMinute float64, burst int) *Limiter {
	l := &Limiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idle:    time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if perMinute > 0 {
		if refill := time.Duration(float64(burst) / perMinute * float64(time.Minute)); refill > l.idle {
			l.idle = refill
		}
	}
	return l
}

// Allow reports whether userID may make a request now.
func (l *Limiter) Allow(userID string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.buckets[userID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.seen = now
	l.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// sweep drops buckets unused for longer than the refill time. A dropped
// bucket would have been full, so recreating it later changes nothing.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idle {
		return
	}
	l.lastSweep = now
	for id, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, id)
		}
	}
}
