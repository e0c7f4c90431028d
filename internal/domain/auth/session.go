package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session validation errors
var (
	ErrNilSession     = errors.New("session is nil")
	ErrNilSessionUser = errors.New("session has no user")
	ErrInvalidUserID  = errors.New("session user id is not a valid UUID")
	ErrInvalidEmail   = errors.New("session user email is invalid")
	ErrInvalidExpiry  = errors.New("session expiry is missing or unparseable")
	ErrSessionExpired = errors.New("session has already expired")
)

// SessionStatus is the upstream identity provider's view of the session.
type SessionStatus string

const (
	StatusLoading         SessionStatus = "loading"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusUnauthenticated SessionStatus = "unauthenticated"
)

// SessionUser is the user record inside an upstream session signal.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is the client-held record of the current authorization window.
// Expires is an ISO-8601 timestamp as delivered by the identity provider.
type Session struct {
	User    *SessionUser `json:"user"`
	Expires string       `json:"expires"`
}

// ExpiryTime parses the session's expiry timestamp.
func (s *Session) ExpiryTime() (time.Time, error) {
	if s == nil || s.Expires == "" {
		return time.Time{}, ErrInvalidExpiry
	}
	t, err := time.Parse(time.RFC3339, s.Expires)
	if err != nil {
		return time.Time{}, ErrInvalidExpiry
	}
	return t, nil
}

// Validate performs structural validation of an upstream session at the given
// instant. External session data is never trusted until it passes this check.
func (s *Session) Validate(now time.Time) error {
	if s == nil {
		return ErrNilSession
	}
	if s.User == nil {
		return ErrNilSessionUser
	}
	if _, err := uuid.Parse(s.User.ID); err != nil {
		return ErrInvalidUserID
	}
	if s.User.Email == "" || !strings.Contains(s.User.Email, "@") {
		return ErrInvalidEmail
	}
	expiry, err := s.ExpiryTime()
	if err != nil {
		return err
	}
	if !expiry.After(now) {
		return ErrSessionExpired
	}
	return nil
}
