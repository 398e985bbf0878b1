// Package gateway is the client for the notely server API.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
)

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

// Unwrap maps well-known statuses onto the apperr sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperr.ErrUnauthorized
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusTooManyRequests:
		return apperr.ErrRateLimited
	case http.StatusBadRequest:
		return apperr.ErrInvalidInput
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the server over HTTP and websockets.
type Client struct {
	baseURL string
	http    *resty.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithToken starts the client with an existing access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetBaseURL(c.baseURL)
	}
}

// New creates a client for the server at baseURL (scheme and host, no /api).
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		http:    resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c
}

// Token returns the current access token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the access token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if tok := c.Token(); tok != "" {
		r.SetAuthToken(tok)
	}
	return r
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	gerr := &Error{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		gerr.Message = body.Error
	}
	return gerr
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

type notesEnvelope struct {
	Notes []models.Note `json:"notes"`
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var out userEnvelope
	err := check(c.request(ctx).SetBody(credentials{email, password}).SetResult(&out).Post("/api/auth/signup"))
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// SignIn authenticates and keeps the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var sess models.Session
	err := check(c.request(ctx).SetBody(credentials{email, password}).SetResult(&sess).Post("/api/auth/signin"))
	if err != nil {
		return nil, err
	}
	c.SetToken(sess.AccessToken)
	return &sess, nil
}

// SignOut ends the session and forgets the token.
func (c *Client) SignOut(ctx context.Context) error {
	err := check(c.request(ctx).Post("/api/auth/signout"))
	c.SetToken("")
	return err
}

// User returns the identity behind the current token.
func (c *Client) User(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := check(c.request(ctx).SetResult(&out).Get("/api/auth/user")); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ListNotes returns the caller's notes, most recently updated first.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var out notesEnvelope
	if err := check(c.request(ctx).SetResult(&out).Get("/api/notes")); err != nil {
		return nil, err
	}
	return nonNil(out.Notes), nil
}

// ListPublicNotes returns every public note, newest first.
func (c *Client) ListPublicNotes(ctx context.Context) ([]models.Note, error) {
	var out notesEnvelope
	if err := check(c.request(ctx).SetResult(&out).Get("/api/public/notes")); err != nil {
		return nil, err
	}
	return nonNil(out.Notes), nil
}

// GetNote returns one of the caller's notes.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var n models.Note
	err := check(c.request(ctx).SetPathParam("id", id).SetResult(&n).Get("/api/notes/{id}"))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// InsertNote creates a note and returns the stored row.
func (c *Client) InsertNote(ctx context.Context, in models.NoteInsert) (*models.Note, error) {
	var n models.Note
	if err := check(c.request(ctx).SetBody(in).SetResult(&n).Post("/api/notes")); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote applies a partial update to the note id.
func (c *Client) UpdateNote(ctx context.Context, id string, patch models.NotePatch) error {
	return check(c.request(ctx).SetPathParam("id", id).SetBody(patch).Patch("/api/notes/{id}"))
}

// DeleteNote removes the note id.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return check(c.request(ctx).SetPathParam("id", id).Delete("/api/notes/{id}"))
}

// GetProfile returns the caller's profile.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := check(c.request(ctx).SetResult(&p).Get("/api/profile")); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile sets the caller's display name.
func (c *Client) UpdateProfile(ctx context.Context, fullName string) (*models.Profile, error) {
	var p models.Profile
	err := check(c.request(ctx).
		SetBody(map[string]string{"full_name": fullName}).
		SetResult(&p).
		Patch("/api/profile"))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Summarize invokes the remote summarization function.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	err := check(c.request(ctx).
		SetBody(map[string]string{"content": content}).
		SetResult(&out).
		Post("/api/functions/summarize-note"))
	if err != nil {
		return "", err
	}
	return out.Summary, nil
}

func nonNil(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
