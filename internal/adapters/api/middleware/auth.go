package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	appauth "postforge/internal/application/auth"
	"postforge/internal/config"
	domainauth "postforge/internal/domain/auth"
)

const (
	// AuthorizerContextKey is the key used to store the request authorizer
	// in the gin context.
	AuthorizerContextKey = "authorizer"
)

// Error codes carried in the authentication error envelope.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// corsHeaders is the fixed cross-origin policy merged into every response
// the authenticator produces, success or failure, so the policy lives in
// one place instead of per endpoint.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type, Authorization",
	"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
}

func applyCORSHeaders(c *gin.Context) {
	for k, v := range corsHeaders {
		c.Header(k, v)
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	applyCORSHeaders(c)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// RequireAuth authenticates every inbound request before any handler logic
// runs. It extracts the bearer token, verifies it against the configured
// shared secret, and attaches a verified Authenticated identity to the
// request context. Failures terminate the request with a structured error
// envelope; authentication failures are terminal per request, never retried.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("handler panicked")
				abortWithError(c, http.StatusInternalServerError, CodeInternalServerError, "internal server error")
			}
		}()

		// A missing secret is a deployment defect, not a client error.
		if cfg.Secret == "" {
			log.Error().Msg("auth secret is not configured")
			abortWithError(c, http.StatusInternalServerError, CodeInternalServerError, "authentication is not configured")
			return
		}

		authHeader := lookupAuthorization(c.Request)
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
			return
		}

		// Exactly the Bearer scheme: two space-separated tokens, the first
		// literally "Bearer".
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, CodeUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := appauth.Verify(parts[1], cfg.Secret)
		if err != nil {
			if errors.Is(err, appauth.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, CodeTokenExpired, "token has expired")
				return
			}
			abortWithError(c, http.StatusUnauthorized, CodeInvalidToken, "invalid token")
			return
		}

		c.Set(AuthorizerContextKey, domainauth.Authenticated{
			UserID: claims.Subject,
			Email:  claims.Email,
			Metadata: domainauth.RequestMetadata{
				IP:        c.ClientIP(),
				UserAgent: c.GetHeader("User-Agent"),
				Origin:    c.GetHeader("Origin"),
			},
		})

		applyCORSHeaders(c)
		c.Next()

		// The authenticator guarantees every invocation yields a response.
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": CodeInternalServerError, "message": "handler produced no response"},
			})
		}
	}
}

// lookupAuthorization finds the authorization header regardless of the case
// the client sent it with. net/http canonicalizes parsed headers, but
// requests served directly (tests, in-process handlers) may carry any case.
func lookupAuthorization(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		return v
	}
	for k, v := range r.Header {
		if strings.EqualFold(k, "Authorization") && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// AuthorizerFrom returns the identity attached to the request. Handlers
// type-switch on the result; Anonymous means the authenticator did not
// admit the request.
func AuthorizerFrom(c *gin.Context) domainauth.Authorizer {
	if v, exists := c.Get(AuthorizerContextKey); exists {
		if a, ok := v.(domainauth.Authorizer); ok {
			return a
		}
	}
	return domainauth.Anonymous{}
}
