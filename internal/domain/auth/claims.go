package auth

import (
	"errors"
	"strings"
)

// Claim shape errors
var (
	ErrMissingSubject    = errors.New("token missing subject claim")
	ErrInvalidEmailClaim = errors.New("token missing or invalid email claim")
	ErrMissingIssuedAt   = errors.New("token missing issued-at claim")
	ErrMissingExpiry     = errors.New("token missing expiry claim")
	ErrExpiryBeforeIssue = errors.New("token expiry is not after issued-at")
)

// IdentityClaims represents the verified claim set carried by a bearer token.
// The JSON field names are the wire contract with the token issuer and must
// not be renamed.
type IdentityClaims struct {
	Subject   string `json:"sub"`   // Stable user identifier
	Email     string `json:"email"` // User email
	IssuedAt  int64  `json:"iat"`   // Issue time, Unix seconds
	ExpiresAt int64  `json:"exp"`   // Expiry time, Unix seconds
}

// Validate checks that the claim set has the required shape. Expiry against
// the wall clock is a separate concern handled during token verification.
func (c *IdentityClaims) Validate() error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return ErrInvalidEmailClaim
	}
	if c.IssuedAt == 0 {
		return ErrMissingIssuedAt
	}
	if c.ExpiresAt == 0 {
		return ErrMissingExpiry
	}
	if c.ExpiresAt <= c.IssuedAt {
		return ErrExpiryBeforeIssue
	}
	return nil
}
