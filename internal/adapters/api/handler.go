package api

import (
	"github.com/gin-gonic/gin"

	"postforge/internal/domain/content"
)

// Handler handles HTTP requests for the content API
type Handler struct {
	sources content.SourceRepository
	posts   content.PostRepository
}

// NewHandler creates a new API handler
func NewHandler(sources content.SourceRepository, posts content.PostRepository) *Handler {
	return &Handler{
		sources: sources,
		posts:   posts,
	}
}

// RegisterRoutes registers all API routes. Every route under the group runs
// behind the authentication middleware passed in by the caller.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.GET("/api/v1/health", h.Health)

	api := r.Group("/api/v1", requireAuth)
	{
		sources := api.Group("/sources")
		{
			sources.POST("", h.CreateSource)
			sources.GET("", h.ListSources)
			sources.GET("/:sourceId", h.GetSource)
			sources.DELETE("/:sourceId", h.DeleteSource)
		}

		posts := api.Group("/posts")
		{
			posts.POST("", h.CreatePost)
			posts.GET("", h.ListPosts)
			posts.GET("/:postId", h.GetPost)
			posts.DELETE("/:postId", h.DeletePost)
		}

		api.GET("/me", h.WhoAmI)
	}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	respondData(c, 200, gin.H{"status": "ok"})
}
