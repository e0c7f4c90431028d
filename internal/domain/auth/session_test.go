package auth

import (
	"errors"
	"testing"
	"time"
)

func futureExpiry() string {
	return time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
}

func TestSessionValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		session *Session
		wantErr error
	}{
		{
			name: "valid session",
			session: &Session{
				User:    &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: "test@example.com"},
				Expires: futureExpiry(),
			},
			wantErr: nil,
		},
		{
			name:    "nil session",
			session: nil,
			wantErr: ErrNilSession,
		},
		{
			name:    "nil user",
			session: &Session{User: nil, Expires: futureExpiry()},
			wantErr: ErrNilSessionUser,
		},
		{
			name: "invalid user id",
			session: &Session{
				User:    &SessionUser{ID: "not-a-uuid", Email: "test@example.com"},
				Expires: futureExpiry(),
			},
			wantErr: ErrInvalidUserID,
		},
		{
			name: "email without at sign",
			session: &Session{
				User:    &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: "bad-email"},
				Expires: futureExpiry(),
			},
			wantErr: ErrInvalidEmail,
		},
		{
			name: "empty email",
			session: &Session{
				User:    &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: ""},
				Expires: futureExpiry(),
			},
			wantErr: ErrInvalidEmail,
		},
		{
			name: "unparseable expiry",
			session: &Session{
				User:    &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: "test@example.com"},
				Expires: "invalid-date",
			},
			wantErr: ErrInvalidExpiry,
		},
		{
			name: "missing expiry",
			session: &Session{
				User: &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: "test@example.com"},
			},
			wantErr: ErrInvalidExpiry,
		},
		{
			name: "expiry in the past",
			session: &Session{
				User:    &SessionUser{ID: "550e8400-e29b-41d4-a716-446655440000", Email: "test@example.com"},
				Expires: now.Add(-time.Minute).UTC().Format(time.RFC3339),
			},
			wantErr: ErrSessionExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate(now)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSessionExpiryTime(t *testing.T) {
	s := &Session{Expires: "2030-12-31T23:59:59.000Z"}
	expiry, err := s.ExpiryTime()
	if err != nil {
		t.Fatalf("ExpiryTime failed: %v", err)
	}

	want := time.Date(2030, 12, 31, 23, 59, 59, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Errorf("Expected %v, got %v", want, expiry)
	}
}

func TestIdentityClaimsValidate(t *testing.T) {
	now := time.Now().Unix()

	valid := IdentityClaims{
		Subject:   "22222222-2222-2222-2222-222222222222",
		Email:     "a@b.com",
		IssuedAt:  now,
		ExpiresAt: now + 3600,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid claims, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *IdentityClaims)
		wantErr error
	}{
		{"empty subject", func(c *IdentityClaims) { c.Subject = "" }, ErrMissingSubject},
		{"bad email", func(c *IdentityClaims) { c.Email = "nope" }, ErrInvalidEmailClaim},
		{"zero issued-at", func(c *IdentityClaims) { c.IssuedAt = 0 }, ErrMissingIssuedAt},
		{"zero expiry", func(c *IdentityClaims) { c.ExpiresAt = 0 }, ErrMissingExpiry},
		{"expiry before issue", func(c *IdentityClaims) { c.ExpiresAt = c.IssuedAt - 1 }, ErrExpiryBeforeIssue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
