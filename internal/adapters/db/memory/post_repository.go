package memory

import (
	"context"
	"sync"

	"postforge/internal/domain/content"
)

// PostRepository is an in-memory implementation of content.PostRepository
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*content.Post
}

// NewPostRepository creates an empty in-memory post repository
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*content.Post)}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *content.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	cp.Embedding = append([]float32(nil), post.Embedding...)
	r.posts[post.ID] = &cp
	return nil
}

func (r *PostRepository) GetPost(ctx context.Context, userID, postID string) (*content.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, exists := r.posts[postID]
	if !exists || post.UserID != userID {
		return nil, content.ErrPostNotFound
	}
	cp := *post
	cp.Embedding = append([]float32(nil), post.Embedding...)
	return &cp, nil
}

func (r *PostRepository) ListPosts(ctx context.Context, userID string) ([]*content.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var posts []*content.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			cp := *post
			cp.Embedding = append([]float32(nil), post.Embedding...)
			posts = append(posts, &cp)
		}
	}
	return posts, nil
}

func (r *PostRepository) DeletePost(ctx context.Context, userID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, exists := r.posts[postID]
	if !exists || post.UserID != userID {
		return content.ErrPostNotFound
	}
	delete(r.posts, postID)
	return nil
}
