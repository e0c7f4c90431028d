package content

import "context"

// SourceRepository defines the persistence interface for content sources.
// Every operation is scoped by the owning user; implementations must never
// return rows belonging to another user.
type SourceRepository interface {
	CreateSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, userID, sourceID string) (*Source, error)
	ListSources(ctx context.Context, userID string) ([]*Source, error)
	DeleteSource(ctx context.Context, userID, sourceID string) error
}

// PostRepository defines the persistence interface for generated posts,
// scoped by the owning user like SourceRepository.
type PostRepository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, userID, postID string) (*Post, error)
	ListPosts(ctx context.Context, userID string) ([]*Post, error)
	DeletePost(ctx context.Context, userID, postID string) error
}
