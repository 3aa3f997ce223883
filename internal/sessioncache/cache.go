// Package sessioncache keeps a short-lived copy of the backend session
// list so the history pane and CLI listings do not refetch on every open.
package sessioncache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/user/datalenz/internal/types"
)

const listKey = "sessions"

// Lister is the gateway slice the cache wraps.
type Lister interface {
	ListSessions(ctx context.Context) ([]types.Session, error)
}

// Cache serves session lists from memory inside a TTL, refetching after
// expiry or an explicit invalidation.
type Cache struct {
	lister Lister
	store  *cache.Cache
}

// New creates a Cache with the given TTL.
func New(lister Lister, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{
		lister: lister,
		store:  cache.New(ttl, 2*ttl),
	}
}

// List returns the cached session list, fetching from the backend on a
// miss. Fetch failures are not cached.
func (c *Cache) List(ctx context.Context) ([]types.Session, error) {
	if cached, ok := c.store.Get(listKey); ok {
		return cached.([]types.Session), nil
	}

	sessions, err := c.lister.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	c.store.SetDefault(listKey, sessions)
	return sessions, nil
}

// Invalidate drops the cached list. Called after create/delete so the
// next List reflects the change immediately.
func (c *Cache) Invalidate() {
	c.store.Delete(listKey)
}
