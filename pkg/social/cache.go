package social

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// PostCache is a Redis read-through cache in front of post lookups
type PostCache struct {
	store *Store
	redis *redis.Client
	ttl   time.Duration
}

// NewPostCache creates a post cache backed by Redis
func NewPostCache(store *Store, client *redis.Client, ttl time.Duration) *PostCache {
	return &PostCache{store: store, redis: client, ttl: ttl}
}

func postKey(id int64) string {
	return fmt.Sprintf("post:%d", id)
}

// GetPost fetches a post, serving from Redis when available. Cache failures
// degrade to a database read.
func (c *PostCache) GetPost(ctx context.Context, id int64) (*Post, error) {
	cached, err := c.redis.Get(ctx, postKey(id)).Result()
	if err == nil {
		var post Post
		if err := json.Unmarshal([]byte(cached), &post); err == nil {
			return &post, nil
		}
	}

	post, err := c.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(post); err == nil {
		c.redis.Set(ctx, postKey(id), data, c.ttl)
	}
	return post, nil
}

// Invalidate drops a post from the cache. Call after updates or deletes.
func (c *PostCache) Invalidate(ctx context.Context, id int64) {
	c.redis.Del(ctx, postKey(id))
}
