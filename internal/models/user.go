package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User is the identity known to the platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is handed to the client after sign-in.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Valid reports whether the session carries a token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// Profile holds the editable account details. ID equals the user ID.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Initials returns avatar letters: the first letter of each word of
// fullName, else the first letter of email, else "U".
func Initials(fullName, email string) string {
	if parts := strings.Fields(fullName); len(parts) > 0 {
		var b strings.Builder
		for _, part := range parts {
			r, _ := utf8.DecodeRuneInString(part)
			b.WriteRune(r)
		}
		return strings.ToUpper(b.String())
	}
	if r, size := utf8.DecodeRuneInString(email); size > 0 {
		return strings.ToUpper(string(r))
	}
	return "U"
}
