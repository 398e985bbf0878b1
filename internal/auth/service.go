package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notely/internal/apperr"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/store"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Service signs users up and in and resolves request identities.
type Service struct {
	users      store.UserStore
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

// NewService creates an auth service.
func NewService(users store.UserStore, secret string, ttl time.Duration, cookieName string) *Service {
	return &Service{
		users:      users,
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		now:        time.Now,
	}
}

// Credentials is the sign-up/sign-in payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credential shape.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
	)
}

// SignUp registers a user. The profile row is created alongside it.
func (s *Service) SignUp(ctx context.Context, c Credentials) (*models.User, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	u := models.User{ID: uuid.NewString(), Email: c.Email, CreatedAt: s.now().UTC()}
	if err := s.users.CreateUser(ctx, u, string(hash)); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignIn checks the password and issues a session.
func (s *Service) SignIn(ctx context.Context, c Credentials) (*models.Session, error) {
	u, hash, err := s.users.UserByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(c.Password)); err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return s.Issue(*u)
}

// Issue creates a session for u.
func (s *Service) Issue(u models.User) (*models.Session, error) {
	token, expiresAt, err := GenerateToken(u.ID, u.Email, s.secret, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}
	return &models.Session{AccessToken: token, ExpiresAt: expiresAt.UTC(), User: u}, nil
}

// Authenticate resolves the user behind a bearer token.
func (s *Service) Authenticate(token string) (models.User, error) {
	claims, err := ParseToken(token, s.secret)
	if err != nil {
		return models.User{}, apperr.ErrUnauthorized
	}
	return models.User{ID: claims.UserID, Email: claims.Email}, nil
}

// FromRequest authenticates r using the Authorization header, falling back
// to the session cookie.
func (s *Service) FromRequest(r *http.Request) (models.User, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return s.Authenticate(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return s.Authenticate(c.Value)
	}
	return models.User{}, apperr.ErrUnauthorized
}

// SetCookie stores the session token in the session cookie.
func (s *Service) SetCookie(w http.ResponseWriter, sess *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
