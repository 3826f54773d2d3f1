package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/pkg/ratelimit"
)

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		t.Parallel()
		l := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 3, Window: time.Minute})

		for i := 0; i < 3; i++ {
			allowed, err := l.Allow(ctx, "owner-1")
			require.NoError(t, err)
			assert.True(t, allowed, "hit %d should pass", i+1)
		}

		allowed, err := l.Allow(ctx, "owner-1")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		l := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})

		allowed, _ := l.Allow(ctx, "owner-a")
		assert.True(t, allowed)
		allowed, _ = l.Allow(ctx, "owner-b")
		assert.True(t, allowed)
		allowed, _ = l.Allow(ctx, "owner-a")
		assert.False(t, allowed)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()
		current := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
		store.SetClock(func() time.Time { return current })

		l := ratelimit.New(store, ratelimit.Config{Limit: 1, Window: time.Minute})

		allowed, _ := l.Allow(ctx, "owner-1")
		assert.True(t, allowed)
		allowed, _ = l.Allow(ctx, "owner-1")
		assert.False(t, allowed)

		current = current.Add(61 * time.Second)
		allowed, _ = l.Allow(ctx, "owner-1")
		assert.True(t, allowed)
	})

	t.Run("fails open on store errors", func(t *testing.T) {
		t.Parallel()
		l := ratelimit.New(failingStore{}, ratelimit.Config{Limit: 1, Window: time.Minute})

		allowed, err := l.Allow(ctx, "owner-1")
		assert.True(t, allowed)
		assert.ErrorIs(t, err, ratelimit.ErrStoreUnavailable)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	keyFn := func(r *http.Request) string { return r.Header.Get("X-Key") }

	t.Run("throttles once the allowance is spent", func(t *testing.T) {
		t.Parallel()
		l := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 1, Window: time.Minute})
		handler := ratelimit.Middleware(l, keyFn)(next)

		req := httptest.NewRequest(http.MethodPost, "/billing/checkout", nil)
		req.Header.Set("X-Key", "owner-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("requests without a key pass through", func(t *testing.T) {
		t.Parallel()
		l := ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.Config{Limit: 0, Window: time.Minute})
		handler := ratelimit.Middleware(l, keyFn)(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}
