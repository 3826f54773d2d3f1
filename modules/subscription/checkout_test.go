package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/modules/profile"
	"github.com/tallybook/tallybook/modules/subscription"
	"github.com/tallybook/tallybook/pkg/plan"
)

// testCatalog is the default catalog plus a provider price for pro, the
// way a deployed config would have it.
func testCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	base := plan.DefaultCatalog()
	pro := base.For(plan.TierPro)
	pro.PriceID = "pri_pro_monthly"
	catalog, err := plan.NewCatalog(map[plan.Tier]plan.Plan{
		plan.TierFree: base.For(plan.TierFree),
		plan.TierPro:  pro,
	})
	require.NoError(t, err)
	return catalog
}

func TestCheckoutService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ownerID := uuid.New()
	const email = "owner@example.com"
	owner := subscription.Owner{ID: ownerID, Email: email}
	catalog := testCatalog(t)

	t.Run("checkout link carries the pro price and owner identity", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		store := profile.NewMemoryStore()
		_, err := store.Ensure(ctx, ownerID, email)
		require.NoError(t, err)

		svc := subscription.NewCheckoutService(
			provider,
			subscription.NewReconciler(provider, store),
			catalog,
			subscription.WithSuccessURL("https://app.example.com/billing?checkout=success"),
		)

		url, err := svc.StartCheckout(ctx, owner)
		require.NoError(t, err)
		assert.NotEmpty(t, url)

		assert.Equal(t, catalog.For(plan.TierPro).PriceID, provider.checkoutReq.PriceID)
		assert.Equal(t, ownerID.String(), provider.checkoutReq.OwnerID)
		assert.Equal(t, email, provider.checkoutReq.Email)
		assert.Equal(t, "https://app.example.com/billing?checkout=success", provider.checkoutReq.SuccessURL)
	})

	t.Run("portal requires an existing billing account", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		store := profile.NewMemoryStore()
		svc := subscription.NewCheckoutService(provider, subscription.NewReconciler(provider, store), catalog)

		_, err := svc.BillingPortal(ctx, owner)
		assert.ErrorIs(t, err, subscription.ErrNoBillingAccount)

		provider.subscribe(email, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
		url, err := svc.BillingPortal(ctx, owner)
		require.NoError(t, err)
		assert.NotEmpty(t, url)
	})

	t.Run("checkout round trip lands as pro after reconciliation", func(t *testing.T) {
		t.Parallel()
		provider := newFakeProvider()
		store := profile.NewMemoryStore()
		_, err := store.Ensure(ctx, ownerID, email)
		require.NoError(t, err)

		reconciler := subscription.NewReconciler(provider, store)
		svc := subscription.NewCheckoutService(provider, reconciler, catalog,
			subscription.WithPostCheckoutDelay(time.Millisecond))

		snapshot, err := reconciler.Reconcile(ctx, owner)
		require.NoError(t, err)
		assert.False(t, snapshot.Subscribed)

		_, err = svc.StartCheckout(ctx, owner)
		require.NoError(t, err)

		// The owner pays on the provider's hosted page.
		periodEnd := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		provider.subscribe(email, periodEnd)

		svc.ReconcileAfterCheckout(ctx, owner)

		require.Eventually(t, func() bool {
			p, err := store.Get(ctx, ownerID)
			return err == nil && p.PlanTier == plan.TierPro
		}, time.Second, 5*time.Millisecond)

		p, err := store.Get(ctx, ownerID)
		require.NoError(t, err)
		require.NotNil(t, p.PlanExpiresAt)
		assert.Equal(t, periodEnd, *p.PlanExpiresAt)
	})
}
