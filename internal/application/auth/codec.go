package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"postforge/internal/domain/auth"
)

// Token codec errors. Expiry is deliberately distinct from generic
// invalidity so callers can prompt for re-authentication instead of
// treating the failure as an attack or a bug.
var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformed        = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token has expired")
)

// Sign encodes the claim set into an HS256-signed token using the shared
// secret. The wire field names (sub, email, iat, exp) are fixed by the
// contract with the token issuer.
func Sign(claims *auth.IdentityClaims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.Subject,
		"email": claims.Email,
		"iat":   claims.IssuedAt,
		"exp":   claims.ExpiresAt,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// SignForDuration mints a token for the subject that expires ttl from now.
// A negative ttl produces an already-expired token.
func SignForDuration(subject, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	return Sign(&auth.IdentityClaims{
		Subject:   subject,
		Email:     email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}, secret)
}

// Verify checks the token's signature and expiry against the shared secret
// and returns the decoded claim set. Failures are classified as
// ErrInvalidSignature, ErrMalformed, or ErrTokenExpired. Verify is
// deterministic given the same inputs and clock reading and has no side
// effects; header extraction is the caller's concern.
func Verify(tokenString, secret string) (*auth.IdentityClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	claims := &auth.IdentityClaims{
		Subject:   getStringClaim(mapClaims, "sub"),
		Email:     getStringClaim(mapClaims, "email"),
		IssuedAt:  getInt64Claim(mapClaims, "iat"),
		ExpiresAt: getInt64Claim(mapClaims, "exp"),
	}
	if err := claims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	return claims, nil
}

// classifyParseError maps golang-jwt parse errors onto the codec taxonomy.
// Signature failure wins over expiry: an expired token signed with the wrong
// key is still an invalid token.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %s", ErrMalformed, err)
	}
}

// getStringClaim safely extracts a string claim
func getStringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return value
	}
	return ""
}

// getInt64Claim safely extracts an int64 claim
func getInt64Claim(claims jwt.MapClaims, key string) int64 {
	switch value := claims[key].(type) {
	case float64:
		return int64(value)
	case int64:
		return value
	}
	return 0
}
