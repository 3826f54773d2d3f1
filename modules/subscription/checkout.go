package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tallybook/tallybook/pkg/billing"
	"github.com/tallybook/tallybook/pkg/plan"
)

// CheckoutService creates hosted checkout and portal sessions. It never
// mutates plan state itself: payment happens on the provider's pages,
// and the reconciler picks the result up afterwards.
type CheckoutService struct {
	provider   billing.Provider
	reconciler *Reconciler
	catalog    *plan.Catalog
	log        *slog.Logger
	successURL string
	delay      time.Duration
}

// CheckoutOption configures optional checkout behavior.
type CheckoutOption func(*CheckoutService)

// WithSuccessURL sets where the provider redirects after payment.
func WithSuccessURL(url string) CheckoutOption {
	return func(s *CheckoutService) { s.successURL = url }
}

// WithPostCheckoutDelay sets how long to wait before the post-checkout
// reconciliation. The provider needs a moment to settle the transaction
// into a subscription, so reconciling immediately would observe the old
// state.
func WithPostCheckoutDelay(d time.Duration) CheckoutOption {
	return func(s *CheckoutService) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithCheckoutLogger sets the logger for background reconcile passes.
func WithCheckoutLogger(log *slog.Logger) CheckoutOption {
	return func(s *CheckoutService) {
		if log != nil {
			s.log = log
		}
	}
}

// NewCheckoutService creates a CheckoutService. Provider, reconciler and
// catalog are required.
func NewCheckoutService(provider billing.Provider, reconciler *Reconciler, catalog *plan.Catalog, opts ...CheckoutOption) *CheckoutService {
	if provider == nil {
		panic("subscription: billing provider is required")
	}
	if reconciler == nil {
		panic("subscription: reconciler is required")
	}
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}

	s := &CheckoutService{
		provider:   provider,
		reconciler: reconciler,
		catalog:    catalog,
		log:        slog.Default(),
		delay:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartCheckout creates a hosted checkout session for the pro plan and
// returns its URL.
func (s *CheckoutService) StartCheckout(ctx context.Context, owner Owner) (string, error) {
	pro := s.catalog.For(plan.TierPro)
	if pro.PriceID == "" {
		return "", errors.Join(ErrCheckoutFailed, errors.New("pro plan has no price configured"))
	}

	link, err := s.provider.CreateCheckoutLink(ctx, billing.CheckoutRequest{
		PriceID:    pro.PriceID,
		OwnerID:    owner.ID.String(),
		Email:      owner.Email,
		SuccessURL: s.successURL,
	})
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	return link.URL, nil
}

// BillingPortal returns a link to the provider's hosted portal where the
// owner manages payment methods and cancellation. Owners who never
// subscribed have no customer record and get ErrNoBillingAccount.
func (s *CheckoutService) BillingPortal(ctx context.Context, owner Owner) (string, error) {
	customer, err := s.provider.FindCustomerByEmail(ctx, owner.Email)
	if err != nil {
		if errors.Is(err, billing.ErrCustomerNotFound) {
			return "", ErrNoBillingAccount
		}
		return "", errors.Join(ErrBillingUnavailable, err)
	}

	subs, err := s.provider.ListActiveSubscriptions(ctx, customer.ID)
	if err != nil {
		return "", errors.Join(ErrBillingUnavailable, err)
	}
	subscriptionIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		subscriptionIDs = append(subscriptionIDs, sub.ID)
	}

	link, err := s.provider.CreatePortalLink(ctx, customer.ID, subscriptionIDs)
	if err != nil {
		return "", errors.Join(ErrBillingUnavailable, err)
	}
	return link.URL, nil
}

// ReconcileAfterCheckout schedules a reconciliation shortly after the
// owner returns from the checkout redirect. Detached from the request
// context: the browser has already been answered by the time this runs.
func (s *CheckoutService) ReconcileAfterCheckout(ctx context.Context, owner Owner) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		<-timer.C

		if _, err := s.reconciler.Reconcile(ctx, owner); err != nil {
			s.log.WarnContext(ctx, "post-checkout reconciliation failed",
				slog.String("owner_id", owner.ID.String()),
				slog.Any("error", err))
		}
	}()
}
