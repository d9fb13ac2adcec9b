package services

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ledger/internal/core"
)

// CachedResolver fronts a CategoryStore's tolerant name lookup with a TTL
// cache, so repeated summaries and reports don't hit storage once per
// category. Only hits are cached: a deleted category stops resolving as
// soon as its entry expires, and a recreated one resolves immediately.
type CachedResolver struct {
	store core.CategoryNamer
	cache *gocache.Cache
}

func NewCachedResolver(store core.CategoryNamer, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		store: store,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// CategoryName implements core.CategoryNamer.
func (r *CachedResolver) CategoryName(ctx context.Context, categoryID string) (string, bool) {
	if name, ok := r.cache.Get(categoryID); ok {
		return name.(string), true
	}
	name, ok := r.store.CategoryName(ctx, categoryID)
	if ok {
		r.cache.SetDefault(categoryID, name)
	}
	return name, ok
}

// Invalidate drops a cached name after a rename or delete.
func (r *CachedResolver) Invalidate(categoryID string) {
	r.cache.Delete(categoryID)
}
