package middleware

import (
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"linkvault/internal/apperr"
	"linkvault/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	lru "github.com/hashicorp/golang-lru/v2"
)

type window struct {
	count int
	start time.Time
}

// FixedWindowLimiter allows max requests per key within each window. Counters
// are held in a bounded LRU, so the least recently seen keys are forgotten
// first once the cache is full.
type FixedWindowLimiter struct {
	name     string
	max      int
	window   time.Duration
	mu       sync.Mutex
	counters *lru.Cache[string, *window]
	now      func() time.Time
	metrics  *observability.Prom
}

func NewFixedWindowLimiter(name string, max int, win time.Duration, size int, metrics *observability.Prom) (*FixedWindowLimiter, error) {
	cache, err := lru.New[string, *window](size)
	if err != nil {
		return nil, err
	}
	return &FixedWindowLimiter{
		name:     name,
		max:      max,
		window:   win,
		counters: cache,
		now:      time.Now,
		metrics:  metrics,
	}, nil
}

// SetClock replaces the time source.
func (l *FixedWindowLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Allow counts a request for key. A rejected request does not touch the
// counter; retryAfter is the time left in the current window.
func (l *FixedWindowLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, found := l.counters.Get(key)
	if !found || now.Sub(w.start) > l.window {
		l.counters.Add(key, &window{count: 1, start: now})
		return true, 0
	}

	if w.count >= l.max {
		return false, w.start.Add(l.window).Sub(now)
	}

	w.count++
	return true, 0
}

// Middleware limits requests by the key keyFn derives. Requests for which no
// key can be derived pass through.
func (l *FixedWindowLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		ok, retryAfter := l.Allow(key)
		if !ok {
			l.metrics.IncRateLimited(l.name)
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abortWithError(c, apperr.New(apperr.KindRateLimited, "Too many requests. Please try again later."))
			return
		}
		c.Next()
	}
}

func KeyByIP(c *gin.Context) string {
	ip := c.ClientIP()
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// KeyByBodyEmail reads the "email" field of a JSON body, lower-cased. The
// body is cached on the context so handlers must bind with
// ShouldBindBodyWith.
func KeyByBodyEmail(c *gin.Context) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}
