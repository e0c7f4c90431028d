package content

import "time"

// Post is a generated post derived from a user's content sources. Embedding
// holds the vector representation produced by the embedding pipeline; the
// similarity search over it is delegated to the datastore.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SourceID  string    `json:"source_id,omitempty"`
	Body      string    `json:"body"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// PostCreateRequest represents a request to store a generated post.
type PostCreateRequest struct {
	SourceID  string    `json:"source_id"`
	Body      string    `json:"body" binding:"required"`
	Embedding []float32 `json:"embedding,omitempty"`
}
