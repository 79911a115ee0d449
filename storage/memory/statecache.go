package memorystore

import (
	"context"
	"sync"
	"time"

	oidckit "github.com/open-rails/signon/oidc"
)

type stateItem struct {
	data    oidckit.StateData
	expires time.Time
}

// StateCache is an in-memory oidckit.StateCache with a fixed TTL per entry.
type StateCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]stateItem
}

func NewStateCache(ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateCache{ttl: ttl, items: make(map[string]stateItem)}
}

func (c *StateCache) Put(ctx context.Context, state string, data oidckit.StateData) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[state] = stateItem{data: data, expires: time.Now().Add(c.ttl)}
	return nil
}

func (c *StateCache) Get(ctx context.Context, state string) (oidckit.StateData, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[state]
	if !ok || time.Now().After(it.expires) {
		delete(c.items, state)
		return oidckit.StateData{}, false, nil
	}
	return it.data, true, nil
}

func (c *StateCache) Del(ctx context.Context, state string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, state)
	return nil
}
