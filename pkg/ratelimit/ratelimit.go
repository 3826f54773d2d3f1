// Package ratelimit implements a fixed-window request limiter used on the
// billing endpoints, where every request costs a round-trip to the payment
// provider. Counters live in a pluggable Store so multiple instances share
// one window via Redis while tests run on the in-memory store.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tallybook/tallybook/pkg/response"
)

// Config describes one limiter: at most Limit requests per Window per key.
type Config struct {
	Limit  int64         `env:"RATE_LIMIT" envDefault:"30"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Store counts hits per key within the current window. Incr returns the
// counter value after the increment; the first hit of a window must also
// arm the window expiry.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter answers whether a key may proceed.
type Limiter struct {
	store Store
	cfg   Config
}

// New creates a Limiter. Panics on a nil store to fail fast at wiring time.
func New(store Store, cfg Config) *Limiter {
	if store == nil {
		panic("ratelimit: store is required")
	}
	return &Limiter{store: store, cfg: cfg}
}

// Allow consumes one hit for the key. On store failure the limiter fails
// open: throttling is protection, not a correctness guarantee, and a dead
// Redis must not take checkout down with it.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		return true, errors.Join(ErrStoreUnavailable, err)
	}
	return count <= l.cfg.Limit, nil
}

// KeyFunc derives the limiter key from a request, typically the owner ID.
type KeyFunc func(r *http.Request) string

// Middleware throttles requests per key, answering 429 once the window
// allowance is consumed. Requests without a key pass through.
func Middleware(l *Limiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, _ := l.Allow(r.Context(), key)
			if !allowed {
				response.Error(w, response.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
