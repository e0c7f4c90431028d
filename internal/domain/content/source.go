package content

import "time"

// SourceKind identifies how a content source is ingested.
type SourceKind string

const (
	SourceKindRSS     SourceKind = "rss"
	SourceKindWebsite SourceKind = "website"
	SourceKindManual  SourceKind = "manual"
)

// Source is a user-owned origin of content used for post generation.
type Source struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	URL       string     `json:"url,omitempty"`
	Kind      SourceKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SourceCreateRequest represents a request to register a new source.
type SourceCreateRequest struct {
	Name string     `json:"name" binding:"required"`
	URL  string     `json:"url"`
	Kind SourceKind `json:"kind" binding:"required"`
}
