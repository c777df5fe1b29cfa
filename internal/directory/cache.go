package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"messaging_go/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the minimal key/value store the profile cache needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to url and verifies the connection.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisCache{client: c}, nil
}

var _ Cache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	res, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return res, err
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// CachedDirectory is a read-through profile cache in front of a Directory.
// Contact lists are not cached. Cache failures fall back to the upstream.
type CachedDirectory struct {
	upstream domain.Directory
	cache    Cache
	ttl      time.Duration
}

func NewCachedDirectory(upstream domain.Directory, cache Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{upstream: upstream, cache: cache, ttl: ttl}
}

var _ domain.Directory = (*CachedDirectory)(nil)

func profileKey(userID int64) string {
	return "directory:profile:" + strconv.FormatInt(userID, 10)
}

func (d *CachedDirectory) ResolveProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	key := profileKey(userID)
	raw, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var p domain.Profile
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			return &p, nil
		}
		log.Printf("directory: dropping corrupt cache entry %s", key)
	case !errors.Is(err, ErrCacheMiss):
		log.Printf("directory: cache get %s: %v", key, err)
	}

	p, err := d.upstream.ResolveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		if err := d.cache.Set(ctx, key, string(data), d.ttl); err != nil {
			log.Printf("directory: cache set %s: %v", key, err)
		}
	}
	return p, nil
}

func (d *CachedDirectory) ListContacts(ctx context.Context, userID int64) ([]*domain.Profile, error) {
	return d.upstream.ListContacts(ctx, userID)
}
