package memory

import (
	"context"
	"sync"

	"postforge/internal/domain/content"
)

// SourceRepository is an in-memory implementation of content.SourceRepository
type SourceRepository struct {
	mu      sync.RWMutex
	sources map[string]*content.Source
}

// NewSourceRepository creates an empty in-memory source repository
func NewSourceRepository() *SourceRepository {
	return &SourceRepository{sources: make(map[string]*content.Source)}
}

func (r *SourceRepository) CreateSource(ctx context.Context, source *content.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *source
	r.sources[source.ID] = &cp
	return nil
}

func (r *SourceRepository) GetSource(ctx context.Context, userID, sourceID string) (*content.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, exists := r.sources[sourceID]
	if !exists || source.UserID != userID {
		return nil, content.ErrSourceNotFound
	}
	cp := *source
	return &cp, nil
}

func (r *SourceRepository) ListSources(ctx context.Context, userID string) ([]*content.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sources []*content.Source
	for _, source := range r.sources {
		if source.UserID == userID {
			cp := *source
			sources = append(sources, &cp)
		}
	}
	return sources, nil
}

func (r *SourceRepository) DeleteSource(ctx context.Context, userID, sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, exists := r.sources[sourceID]
	if !exists || source.UserID != userID {
		return content.ErrSourceNotFound
	}
	delete(r.sources, sourceID)
	return nil
}
