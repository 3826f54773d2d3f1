package quota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/pkg/plan"
	"github.com/tallybook/tallybook/pkg/quota"
)

func staticTier(tier plan.Tier) quota.TierResolver {
	return func(_ context.Context, _ uuid.UUID) (plan.Tier, error) {
		return tier, nil
	}
}

func staticCounter(count int64) quota.CounterFunc {
	return func(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
		return count, nil
	}
}

func newService(t *testing.T, tier plan.Tier, count int64) quota.Service {
	t.Helper()
	counters := quota.NewRegistry()
	counters.Register(plan.ResourceTransactions, staticCounter(count))
	counters.Register(plan.ResourceClients, staticCounter(count))
	return quota.NewService(plan.DefaultCatalog(), counters, staticTier(tier))
}

func TestService_CanCreate_FreeTier(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	ctx := context.Background()

	t.Run("allowed below the weekly limit", func(t *testing.T) {
		t.Parallel()
		for count := int64(0); count < plan.WeeklyCreateLimit; count++ {
			d, err := newService(t, plan.TierFree, count).CanCreate(ctx, ownerID, plan.ResourceTransactions)
			require.NoError(t, err)
			assert.True(t, d.Allowed, "count=%d must be allowed", count)
			assert.Equal(t, count, d.Count)
			assert.Equal(t, plan.WeeklyCreateLimit, d.Limit)
		}
	})

	t.Run("denied once the window count reaches the limit", func(t *testing.T) {
		t.Parallel()
		d, err := newService(t, plan.TierFree, plan.WeeklyCreateLimit).CanCreate(ctx, ownerID, plan.ResourceTransactions)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, plan.WeeklyCreateLimit, d.Count)
	})

	t.Run("denied when count already exceeds the limit", func(t *testing.T) {
		t.Parallel()
		// Possible after the accepted check-then-act race.
		d, err := newService(t, plan.TierFree, plan.WeeklyCreateLimit+1).CanCreate(ctx, ownerID, plan.ResourceClients)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
	})
}

func TestService_CanCreate_ProTier(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	ctx := context.Background()

	t.Run("always allowed regardless of historical count", func(t *testing.T) {
		t.Parallel()
		d, err := newService(t, plan.TierPro, 100_000).CanCreate(ctx, ownerID, plan.ResourceTransactions)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, plan.Unlimited, d.Limit)
	})

	t.Run("skips the count query entirely", func(t *testing.T) {
		t.Parallel()
		counters := quota.NewRegistry()
		counters.Register(plan.ResourceTransactions, func(context.Context, uuid.UUID, time.Time) (int64, error) {
			t.Fatal("counter must not be called for unlimited plans")
			return 0, nil
		})
		svc := quota.NewService(plan.DefaultCatalog(), counters, staticTier(plan.TierPro))

		d, err := svc.CanCreate(ctx, ownerID, plan.ResourceTransactions)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})
}

func TestService_CanCreate_WindowBounds(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	t.Run("counter receives the 168h window start", func(t *testing.T) {
		t.Parallel()
		var gotSince time.Time
		counters := quota.NewRegistry()
		counters.Register(plan.ResourceClients, func(_ context.Context, _ uuid.UUID, since time.Time) (int64, error) {
			gotSince = since
			return 0, nil
		})
		svc := quota.NewService(plan.DefaultCatalog(), counters, staticTier(plan.TierFree),
			quota.WithClock(func() time.Time { return now }))

		_, err := svc.CanCreate(context.Background(), uuid.New(), plan.ResourceClients)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-7*24*time.Hour), gotSince)
	})

	t.Run("window start helper slides with now", func(t *testing.T) {
		t.Parallel()
		start := quota.WindowStart(now)
		assert.Equal(t, now.Add(-quota.Window), start)

		// A record created exactly one second before the window start is
		// out; one created at the start instant is in (inclusive bound).
		assert.True(t, start.Add(-time.Second).Before(start))
		assert.False(t, start.Before(start))
	})
}

func TestService_CanCreate_Failures(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	ctx := context.Background()

	t.Run("counter error fails closed", func(t *testing.T) {
		t.Parallel()
		storeErr := errors.New("connection refused")
		counters := quota.NewRegistry()
		counters.Register(plan.ResourceTransactions, func(context.Context, uuid.UUID, time.Time) (int64, error) {
			return 0, storeErr
		})
		svc := quota.NewService(plan.DefaultCatalog(), counters, staticTier(plan.TierFree))

		d, err := svc.CanCreate(ctx, ownerID, plan.ResourceTransactions)
		require.Error(t, err)
		assert.ErrorIs(t, err, quota.ErrUsageUnavailable)
		assert.ErrorIs(t, err, storeErr)
		assert.False(t, d.Allowed)
	})

	t.Run("missing counter is a wiring error", func(t *testing.T) {
		t.Parallel()
		svc := quota.NewService(plan.DefaultCatalog(), quota.NewRegistry(), staticTier(plan.TierFree))

		_, err := svc.CanCreate(ctx, ownerID, plan.ResourceTransactions)
		assert.ErrorIs(t, err, quota.ErrNoCounterRegistered)
	})

	t.Run("tier resolver error propagates", func(t *testing.T) {
		t.Parallel()
		resolveErr := errors.New("profile missing")
		svc := quota.NewService(plan.DefaultCatalog(), quota.NewRegistry(),
			func(context.Context, uuid.UUID) (plan.Tier, error) {
				return "", resolveErr
			})

		_, err := svc.CanCreate(ctx, ownerID, plan.ResourceTransactions)
		require.Error(t, err)
		assert.ErrorIs(t, err, quota.ErrTierResolveFailed)
	})
}

func TestService_Usage(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	ctx := context.Background()

	t.Run("counts even for unlimited plans", func(t *testing.T) {
		t.Parallel()
		d, err := newService(t, plan.TierPro, 42).Usage(ctx, ownerID, plan.ResourceTransactions)
		require.NoError(t, err)
		assert.Equal(t, int64(42), d.Count)
		assert.Equal(t, plan.Unlimited, d.Limit)
		assert.True(t, d.Allowed)
	})

	t.Run("reports exhausted allowance", func(t *testing.T) {
		t.Parallel()
		d, err := newService(t, plan.TierFree, 5).Usage(ctx, ownerID, plan.ResourceClients)
		require.NoError(t, err)
		assert.Equal(t, int64(5), d.Count)
		assert.False(t, d.Allowed)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil counter", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			quota.NewRegistry().Register(plan.ResourceClients, nil)
		})
	})

	t.Run("panics on duplicate registration", func(t *testing.T) {
		t.Parallel()
		r := quota.NewRegistry()
		r.Register(plan.ResourceClients, staticCounter(0))
		assert.Panics(t, func() {
			r.Register(plan.ResourceClients, staticCounter(0))
		})
	})
}
