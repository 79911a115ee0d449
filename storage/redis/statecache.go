package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	oidckit "github.com/open-rails/signon/oidc"
)

// StateCache is a Redis-backed oidckit.StateCache.
type StateCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewStateCache(rdb *redis.Client, prefix string, ttl time.Duration) *StateCache {
	if prefix == "" {
		prefix = "signon:consent:state:"
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *StateCache) Put(ctx context.Context, state string, data oidckit.StateData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+state, b, c.ttl).Err()
}

func (c *StateCache) Get(ctx context.Context, state string) (oidckit.StateData, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+state).Bytes()
	if err == redis.Nil {
		return oidckit.StateData{}, false, nil
	}
	if err != nil {
		return oidckit.StateData{}, false, err
	}
	var data oidckit.StateData
	if err := json.Unmarshal(b, &data); err != nil {
		return oidckit.StateData{}, false, err
	}
	return data, true, nil
}

func (c *StateCache) Del(ctx context.Context, state string) error {
	return c.rdb.Del(ctx, c.prefix+state).Err()
}
