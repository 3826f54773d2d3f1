package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tallybook/tallybook/modules/profile"
	"github.com/tallybook/tallybook/pkg/billing"
	"github.com/tallybook/tallybook/pkg/plan"
)

// Owner identifies who is being reconciled. The email is the join key
// into the provider's ledger; the ID is where the result is cached.
type Owner struct {
	ID    uuid.UUID
	Email string
}

// Snapshot is the observed billing state for one owner, as derived from
// the provider's ledger at a single point in time.
type Snapshot struct {
	Subscribed bool       `json:"subscribed"`
	Tier       plan.Tier  `json:"planType"`
	ExpiresAt  *time.Time `json:"planExpiryDate,omitempty"`
}

var freeSnapshot = Snapshot{Subscribed: false, Tier: plan.TierFree}

// Reconciler derives the owner's plan from the billing provider and
// writes it into the profile cache. Writes are unconditional, so the
// last reconciliation always wins and stale local state (including a
// cancelled pro plan) converges back to what the ledger says.
type Reconciler struct {
	provider billing.Provider
	store    profile.Store
	log      *slog.Logger
	timeout  time.Duration
}

// ReconcilerOption configures optional reconciler behavior.
type ReconcilerOption func(*Reconciler)

// WithReconcileTimeout bounds each reconciliation pass, provider calls
// and the profile write included.
func WithReconcileTimeout(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithReconcilerLogger sets the logger used for background passes.
func WithReconcilerLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReconciler creates a Reconciler. Both the provider and the profile
// store are required.
func NewReconciler(provider billing.Provider, store profile.Store, opts ...ReconcilerOption) *Reconciler {
	if provider == nil {
		panic("subscription: billing provider is required")
	}
	if store == nil {
		panic("subscription: profile store is required")
	}

	r := &Reconciler{
		provider: provider,
		store:    store,
		log:      slog.Default(),
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile observes the owner's billing state and persists it. When the
// provider cannot be reached it returns ErrBillingUnavailable and leaves
// the cached profile exactly as it was, so a flaky provider can never
// demote a paying owner.
func (r *Reconciler) Reconcile(ctx context.Context, owner Owner) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	snapshot, err := r.observe(ctx, owner.Email)
	if err != nil {
		return Snapshot{}, err
	}

	if err := r.store.UpdatePlan(ctx, owner.ID, snapshot.Tier, snapshot.ExpiresAt); err != nil {
		return Snapshot{}, errors.Join(ErrReconcileFailed, err)
	}

	return snapshot, nil
}

// observe derives the snapshot from the provider's ledger. No customer
// record and a customer without active subscriptions both mean free; the
// latter is how cancellations and refunds surface.
func (r *Reconciler) observe(ctx context.Context, email string) (Snapshot, error) {
	customer, err := r.provider.FindCustomerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, billing.ErrCustomerNotFound) {
			return freeSnapshot, nil
		}
		return Snapshot{}, errors.Join(ErrBillingUnavailable, err)
	}

	subs, err := r.provider.ListActiveSubscriptions(ctx, customer.ID)
	if err != nil {
		return Snapshot{}, errors.Join(ErrBillingUnavailable, err)
	}
	if len(subs) == 0 {
		return freeSnapshot, nil
	}

	// Multiple active subscriptions should not happen, but if the ledger
	// holds them the one running longest wins.
	expiresAt := subs[0].CurrentPeriodEnd
	for _, s := range subs[1:] {
		if s.CurrentPeriodEnd.After(expiresAt) {
			expiresAt = s.CurrentPeriodEnd
		}
	}

	snapshot := Snapshot{Subscribed: true, Tier: plan.TierPro}
	if !expiresAt.IsZero() {
		snapshot.ExpiresAt = &expiresAt
	}
	return snapshot, nil
}
