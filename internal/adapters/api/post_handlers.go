package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"postforge/internal/adapters/api/middleware"
	"postforge/internal/domain/content"
)

// CreatePost stores a generated post for the authenticated user.
func (h *Handler) CreatePost(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	var req content.PostCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	post := &content.Post{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		SourceID:  req.SourceID,
		Body:      req.Body,
		Embedding: req.Embedding,
		CreatedAt: time.Now(),
	}

	if err := h.posts.CreatePost(c.Request.Context(), post); err != nil {
		respondError(c, http.StatusInternalServerError, middleware.CodeInternalServerError, "failed to create post")
		return
	}

	respondData(c, http.StatusCreated, post)
}

// ListPosts returns the authenticated user's generated posts.
func (h *Handler) ListPosts(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, middleware.CodeInternalServerError, "failed to list posts")
		return
	}

	respondData(c, http.StatusOK, posts)
}

// GetPost returns one of the authenticated user's posts.
func (h *Handler) GetPost(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	post, err := h.posts.GetPost(c.Request.Context(), identity.UserID, c.Param("postId"))
	if err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}

	respondData(c, http.StatusOK, post)
}

// DeletePost removes one of the authenticated user's posts.
func (h *Handler) DeletePost(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, middleware.CodeUnauthorized, "no verified identity")
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), identity.UserID, c.Param("postId")); err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "post not found")
		return
	}

	respondData(c, http.StatusOK, gin.H{"deleted": true})
}
