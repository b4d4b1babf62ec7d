package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func InitRedis(addr string, password string, db int) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

const urlCachePrefix = "url:"

// URLCache caches short code -> original URL. A nil client disables caching;
// cache errors are reported to the caller, who treats them as misses.
type URLCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewURLCache(rdb *redis.Client, ttl time.Duration) *URLCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &URLCache{rdb: rdb, ttl: ttl}
}

// ErrCacheMiss is returned by Get when the code is not cached.
var ErrCacheMiss = errors.New("cache miss")

func (c *URLCache) Get(ctx context.Context, code string) (string, error) {
	if c == nil || c.rdb == nil {
		return "", ErrCacheMiss
	}
	val, err := c.rdb.Get(ctx, urlCachePrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (c *URLCache) Set(ctx context.Context, code, originalURL string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, urlCachePrefix+code, originalURL, c.ttl).Err()
}

// Delete evicts the given codes. Deleting nothing is a no-op.
func (c *URLCache) Delete(ctx context.Context, codes ...string) error {
	if c == nil || c.rdb == nil || len(codes) == 0 {
		return nil
	}
	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = urlCachePrefix + code
	}
	return c.rdb.Del(ctx, keys...).Err()
}
