package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	pkgredis "github.com/angelmondragon/kickfinderz-backend/pkg/redis"
)

var ErrCacheMiss = errors.New("cart cache miss")

// Snapshot is the full cart as written to the local cache.
type Snapshot struct {
	Version uint64    `json:"version"`
	Lines   []Line    `json:"lines"`
	SavedAt time.Time `json:"saved_at"`
}

// LocalCache is the persistent key-value mirror of a cart. Keys come from
// KeyFor so every implementation shares one scheme.
type LocalCache interface {
	KeyFor(id identity.Identity) string
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
	Delete(ctx context.Context, key string) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	UserCartKey(userID string) string
	GuestCartKey(guestID string) string
}

// RedisCache stores snapshots as JSON strings.
type RedisCache struct {
	client redisStore
	ttl    time.Duration
}

func NewRedisCache(client *pkgredis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) KeyFor(id identity.Identity) string {
	if id.IsAuthenticated() {
		return c.client.UserCartKey(id.UserID.String())
	}
	return c.client.GuestCartKey(id.GuestID)
}

func (c *RedisCache) Load(ctx context.Context, key string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, key)
	if errors.Is(err, pkgredis.ErrNil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &snap, nil
}

func (c *RedisCache) Save(ctx context.Context, key string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key, string(payload), c.ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// MemoryCache keeps snapshots in process. Used by tests and SQLite demos.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string][]byte{}}
}

func (c *MemoryCache) KeyFor(id identity.Identity) string {
	return "cart:" + id.Key()
}

func (c *MemoryCache) Load(_ context.Context, key string) (*Snapshot, error) {
	c.mu.Lock()
	raw, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *MemoryCache) Save(_ context.Context, key string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}
