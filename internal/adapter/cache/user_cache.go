package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-registry/internal/domain/user"
)

// ListKey is the Redis key holding the serialized user listing.
const ListKey = "users:list"

// UserListCache defines the interface for caching the user listing.
type UserListCache interface {
	// Get returns the cached listing, or nil when nothing is cached.
	Get(ctx context.Context) ([]domain.User, error)

	// Set stores the listing with the configured TTL.
	Set(ctx context.Context, users []domain.User) error

	// Invalidate drops the cached listing.
	Invalidate(ctx context.Context) error
}

// RedisUserListCache implements UserListCache using Redis as the backing store.
type RedisUserListCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserListCache creates a new Redis-backed listing cache.
func NewRedisUserListCache(client *redis.Client, ttl time.Duration, log *zap.Logger) UserListCache {
	return &RedisUserListCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// cachedUser is the JSON shape stored in Redis.
type cachedUser struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Photo *string `json:"photo,omitempty"`
}

// Get retrieves the listing from Redis.
func (c *RedisUserListCache) Get(ctx context.Context) ([]domain.User, error) {
	data, err := c.client.Get(ctx, ListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Cache miss - not an error
		c.log.Debug("cache miss", zap.String("key", ListKey))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", ListKey), zap.Error(err))
		return nil, err
	}

	var stored []cachedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		c.log.Error("failed to unmarshal cached users", zap.Error(err))
		return nil, err
	}

	users := make([]domain.User, len(stored))
	for i, u := range stored {
		users[i] = domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo}
	}

	c.log.Debug("cache hit", zap.Int("count", len(users)))
	return users, nil
}

// Set stores the listing in Redis with TTL.
func (c *RedisUserListCache) Set(ctx context.Context, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}

	stored := make([]cachedUser, len(users))
	for i, u := range users {
		stored[i] = cachedUser{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		c.log.Error("failed to marshal users for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, ListKey, data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.String("key", ListKey), zap.Error(err))
		return err
	}

	c.log.Debug("cached user listing", zap.Int("count", len(users)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate removes the listing from Redis.
func (c *RedisUserListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, ListKey).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.String("key", ListKey), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated user listing")
	return nil
}
