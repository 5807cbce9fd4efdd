package middleware

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/tcgwatch/pricewatch/backend/utils"
)

const maxTrackedClients = 4096

// RateLimiter hands out one token bucket per client key. Buckets for the
// least recently seen clients are evicted once maxTrackedClients is reached.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *lru.Cache
	limit   rate.Limit
	burst   int
}

// NewRateLimiter allows perSecond requests per client on average with bursts
// of up to burst requests.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	buckets, _ := lru.New(maxTrackedClients) // only fails on a non-positive size
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: buckets,
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

// Allow reports whether key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	var bucket *rate.Limiter
	if v, ok := rl.buckets.Get(key); ok {
		bucket = v.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets.Add(key, bucket)
	}
	rl.mu.Unlock()

	return bucket.Allow()
}

// RateLimit middleware limits requests per IP address. A non-positive rate
// disables limiting.
func RateLimit(perSecond float64, burst int) fiber.Handler {
	if perSecond <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	limiter := NewRateLimiter(perSecond, burst)

	return func(c *fiber.Ctx) error {
		ip := utils.GetIPAddress(c)
		if !limiter.Allow(ip) {
			slog.Warn("Rate limit exceeded",
				slog.String("type", "http"),
				slog.String("ip", ip),
				slog.String("path", c.Path()),
				slog.String("method", c.Method()))
			return utils.SendTooManyRequests(c)
		}
		return c.Next()
	}
}
