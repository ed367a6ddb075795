package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/usecase"
)

// CachedResolutionRepository keeps resolved mappings in process memory.
// Misses are not cached since an unknown record may appear at any time.
type CachedResolutionRepository struct {
	inner usecase.ResolutionRepository
	cache *cache.Cache
}

func NewCachedResolutionRepository(inner usecase.ResolutionRepository, ttl time.Duration) *CachedResolutionRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedResolutionRepository{
		inner: inner,
		cache: cache.New(ttl, ttl+5*time.Minute),
	}
}

func resolutionKey(kind domain.ResourceKind, uri string) string {
	return string(kind) + "|" + uri
}

func (r *CachedResolutionRepository) Resolve(ctx context.Context, kind domain.ResourceKind, uri string) (*string, error) {
	key := resolutionKey(kind, uri)
	if cached, found := r.cache.Get(key); found {
		id := cached.(string)
		return &id, nil
	}

	id, err := r.inner.Resolve(ctx, kind, uri)
	if err != nil {
		return nil, err
	}
	if id != nil {
		r.cache.Set(key, *id, cache.DefaultExpiration)
	}
	return id, nil
}

func (r *CachedResolutionRepository) Store(ctx context.Context, kind domain.ResourceKind, uri, localID string) error {
	if err := r.inner.Store(ctx, kind, uri, localID); err != nil {
		r.cache.Delete(resolutionKey(kind, uri))
		return err
	}
	r.cache.Set(resolutionKey(kind, uri), localID, cache.DefaultExpiration)
	return nil
}

func (r *CachedResolutionRepository) Remove(ctx context.Context, kind domain.ResourceKind, uri string) error {
	r.cache.Delete(resolutionKey(kind, uri))
	return r.inner.Remove(ctx, kind, uri)
}

var _ usecase.ResolutionRepository = (*CachedResolutionRepository)(nil)
