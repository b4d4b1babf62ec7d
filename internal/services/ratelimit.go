package services

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP. Buckets are held in
// a bounded LRU so idle clients are evicted instead of accumulating.
type IPRateLimiter struct {
	ips    *lru.Cache[string, *rate.Limiter]
	mu     sync.Mutex
	r      rate.Limit
	b      int
	logger *slog.Logger
}

func NewIPRateLimiter(r rate.Limit, b int, size int, logger *slog.Logger) (*IPRateLimiter, error) {
	limiter := &IPRateLimiter{
		r:      r,
		b:      b,
		logger: logger,
	}
	cache, err := lru.NewWithEvict[string, *rate.Limiter](size, func(ip string, _ *rate.Limiter) {
		limiter.logger.Debug("Evicted rate limiter", "ip", ip)
	})
	if err != nil {
		return nil, err
	}
	limiter.ips = cache

	return limiter, nil
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips.Get(ip)
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips.Add(ip, limiter)
	}

	return limiter
}

func (i *IPRateLimiter) Len() int {
	return i.ips.Len()
}
