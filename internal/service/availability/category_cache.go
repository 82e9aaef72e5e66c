package availability

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
)

// CachedCategoryReader serves category windows from an in-process TTL cache.
// Category configuration changes rarely; a short TTL keeps the generator's
// hot path off the database.
type CachedCategoryReader struct {
	repo  repository.CategoryRepository
	cache *gocache.Cache
}

func NewCachedCategoryReader(repo repository.CategoryRepository, ttl time.Duration) *CachedCategoryReader {
	return &CachedCategoryReader{
		repo:  repo,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (r *CachedCategoryReader) ListWindows(ctx context.Context, categoryID uuid.UUID) ([]*model.CategoryWindow, error) {
	key := categoryID.String()
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]*model.CategoryWindow), nil
	}

	windows, err := r.repo.ListWindows(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	r.cache.SetDefault(key, windows)
	return windows, nil
}
