package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/modules/profile"
	"github.com/tallybook/tallybook/modules/subscription"
	"github.com/tallybook/tallybook/pkg/billing"
	"github.com/tallybook/tallybook/pkg/plan"
)

// fakeProvider is an in-memory billing ledger for tests.
type fakeProvider struct {
	mu        sync.Mutex
	customers map[string]billing.Customer       // keyed by email
	subs      map[string][]billing.Subscription // keyed by customer ID
	err       error

	checkoutReq billing.CheckoutRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customers: make(map[string]billing.Customer),
		subs:      make(map[string][]billing.Subscription),
	}
}

func (f *fakeProvider) subscribe(email string, periodEnd time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer := billing.Customer{ID: "ctm_" + email, Email: email}
	f.customers[email] = customer
	f.subs[customer.ID] = []billing.Subscription{{
		ID:               "sub_" + email,
		Status:           "active",
		CurrentPeriodEnd: periodEnd,
	}}
}

func (f *fakeProvider) cancel(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if customer, ok := f.customers[email]; ok {
		f.subs[customer.ID] = nil
	}
}

func (f *fakeProvider) FindCustomerByEmail(_ context.Context, email string) (*billing.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	customer, ok := f.customers[email]
	if !ok {
		return nil, billing.ErrCustomerNotFound
	}
	return &customer, nil
}

func (f *fakeProvider) ListActiveSubscriptions(_ context.Context, customerID string) ([]billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[customerID], nil
}

func (f *fakeProvider) CreateCheckoutLink(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.checkoutReq = req
	return &billing.CheckoutLink{URL: "https://pay.example.com/checkout/txn_1"}, nil
}

func (f *fakeProvider) CreatePortalLink(_ context.Context, customerID string, _ []string) (*billing.PortalLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &billing.PortalLink{URL: "https://pay.example.com/portal/" + customerID}, nil
}

func TestReconciler_Reconcile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ownerID := uuid.New()
	const email = "owner@example.com"
	owner := subscription.Owner{ID: ownerID, Email: email}

	newStore := func(t *testing.T) *profile.MemoryStore {
		t.Helper()
		store := profile.NewMemoryStore()
		_, err := store.Ensure(ctx, ownerID, email)
		require.NoError(t, err)
		return store
	}

	t.Run("owner unknown to the provider stays free", func(t *testing.T) {
		t.Parallel()
		store := newStore(t)
		r := subscription.NewReconciler(newFakeProvider(), store)

		snapshot, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)

		assert.False(t, snapshot.Subscribed)
		assert.Equal(t, plan.TierFree, snapshot.Tier)
		assert.Nil(t, snapshot.ExpiresAt)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, plan.TierFree, p.PlanTier)
	})

	t.Run("active subscription upgrades the cache to pro", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		periodEnd := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		provider.subscribe(email, periodEnd)

		store := newStore(t)
		r := subscription.NewReconciler(provider, store)

		snapshot, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)

		assert.True(t, snapshot.Subscribed)
		assert.Equal(t, plan.TierPro, snapshot.Tier)
		require.NotNil(t, snapshot.ExpiresAt)
		assert.Equal(t, periodEnd, *snapshot.ExpiresAt)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, plan.TierPro, p.PlanTier)
		require.NotNil(t, p.PlanExpiresAt)
		assert.Equal(t, periodEnd, *p.PlanExpiresAt)
	})

	t.Run("cancellation downgrades a cached pro back to free", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.subscribe(email, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

		store := newStore(t)
		r := subscription.NewReconciler(provider, store)

		_, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)

		provider.cancel(email)

		snapshot, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)
		assert.False(t, snapshot.Subscribed)
		assert.Equal(t, plan.TierFree, snapshot.Tier)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, plan.TierFree, p.PlanTier)
		assert.Nil(t, p.PlanExpiresAt)
	})

	t.Run("reconciliation is idempotent", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		periodEnd := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
		provider.subscribe(email, periodEnd)

		store := newStore(t)
		r := subscription.NewReconciler(provider, store)

		first, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)
		second, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, plan.TierPro, p.PlanTier)
	})

	t.Run("provider outage leaves the cached profile untouched", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		provider.subscribe(email, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

		store := newStore(t)
		r := subscription.NewReconciler(provider, store)

		_, err := r.Reconcile(ctx, owner)
		require.NoError(t, err)

		provider.mu.Lock()
		provider.err = errors.New("connection refused")
		provider.mu.Unlock()

		_, err = r.Reconcile(ctx, owner)
		assert.ErrorIs(t, err, subscription.ErrBillingUnavailable)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		assert.Equal(t, plan.TierPro, p.PlanTier, "outage must not demote a paying owner")
	})

	t.Run("requires both dependencies", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { subscription.NewReconciler(nil, profile.NewMemoryStore()) })
		assert.Panics(t, func() { subscription.NewReconciler(newFakeProvider(), nil) })
	})
}
