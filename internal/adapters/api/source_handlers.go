package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"postforge/internal/adapters/api/middleware"
	domainauth "postforge/internal/domain/auth"
	"postforge/internal/domain/content"
)

// identityFrom pattern-matches the request authorizer. Handlers behind the
// auth middleware always see an Authenticated identity; the Anonymous arm
// exists so an unwired route can never silently serve another user's data.
func identityFrom(c *gin.Context) (domainauth.Authenticated, bool) {
	switch a := middleware.AuthorizerFrom(c).(type) {
	case domainauth.Authenticated:
		return a, true
	default:
		return domainauth.Authenticated{}, false
	}
}

// CreateSource registers a content source owned by the authenticated user.
func (h *Handler) CreateSource(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	var req content.SourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	now := time.Now()
	source := &content.Source{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		Name:      req.Name,
		URL:       req.URL,
		Kind:      req.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.sources.CreateSource(c.Request.Context(), source); err != nil {
		respondError(c, http.StatusInternalServerError, middleware.CodeInternalServerError, "failed to create source")
		return
	}

	respondData(c, http.StatusCreated, source)
}

// ListSources returns the authenticated user's content sources.
func (h *Handler) ListSources(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	sources, err := h.sources.ListSources(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, middleware.CodeInternalServerError, "failed to list sources")
		return
	}

	respondData(c, http.StatusOK, sources)
}

// GetSource returns one of the authenticated user's sources.
func (h *Handler) GetSource(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	source, err := h.sources.GetSource(c.Request.Context(), identity.UserID, c.Param("sourceId"))
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "source not found")
		return
	}

	respondData(c, http.StatusOK, source)
}

// DeleteSource removes one of the authenticated user's sources.
func (h *Handler) DeleteSource(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	if err := h.sources.DeleteSource(c.Request.Context(), identity.UserID, c.Param("sourceId")); err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "source not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// WhoAmI echoes the verified identity attached to the request.
func (h *Handler) WhoAmI(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"user_id":  identity.UserID,
		"email":    identity.Email,
		"metadata": identity.Metadata,
	})
}
