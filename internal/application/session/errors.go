package session

import (
	"errors"
	"fmt"
	"time"

	"postforge/internal/domain/auth"
)

// ErrorCode classifies client-side auth failures.
type ErrorCode string

const (
	CodeInvalidSession ErrorCode = "INVALID_SESSION"
	CodeInvalidUserID  ErrorCode = "INVALID_USER_ID"
	CodeInvalidEmail   ErrorCode = "INVALID_EMAIL"
	CodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	CodeRefreshFailed  ErrorCode = "REFRESH_FAILED"
	CodeMalformedData  ErrorCode = "MALFORMED_DATA"
	CodeNetworkError   ErrorCode = "NETWORK_ERROR"
	CodeUnknownError   ErrorCode = "UNKNOWN_ERROR"
)

// AuthError is a classified client-side authentication failure. It is
// captured into session state rather than propagated; ClearError on the
// store is the only sanctioned way to discard one.
type AuthError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether the failure is transient and worth offering a
// retry for. Terminal failures require a fresh sign-in instead.
func (e *AuthError) Retryable() bool {
	return e.Code == CodeRefreshFailed || e.Code == CodeNetworkError
}

// NewAuthError builds a classified error stamped with the current time.
func NewAuthError(code ErrorCode, message, details string) *AuthError {
	return &AuthError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// classifyValidationError maps a session validation failure onto the client
// error taxonomy.
func classifyValidationError(err error) *AuthError {
	switch {
	case errors.Is(err, auth.ErrInvalidUserID):
		return NewAuthError(CodeInvalidUserID, "session user id is not a valid identifier", err.Error())
	case errors.Is(err, auth.ErrInvalidEmail):
		return NewAuthError(CodeInvalidEmail, "session user email is invalid", err.Error())
	case errors.Is(err, auth.ErrSessionExpired):
		return NewAuthError(CodeSessionExpired, "session has expired", err.Error())
	case errors.Is(err, auth.ErrInvalidExpiry):
		return NewAuthError(CodeMalformedData, "session expiry is missing or unparseable", err.Error())
	case errors.Is(err, auth.ErrNilSession), errors.Is(err, auth.ErrNilSessionUser):
		return NewAuthError(CodeInvalidSession, "session data is incomplete", err.Error())
	default:
		return NewAuthError(CodeUnknownError, "session validation failed", err.Error())
	}
}
