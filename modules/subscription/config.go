package subscription

import "time"

// Config holds billing sync settings, populated from the environment.
type Config struct {
	// PollInterval is how often the background poller re-reads the
	// provider's ledger for active owners.
	PollInterval time.Duration `env:"BILLING_POLL_INTERVAL" envDefault:"30s"`

	// ReconcileTimeout bounds a single reconciliation pass.
	ReconcileTimeout time.Duration `env:"BILLING_RECONCILE_TIMEOUT" envDefault:"10s"`

	// CheckoutSettleDelay is how long to wait after the checkout redirect
	// before reconciling, giving the provider time to settle the payment
	// into a subscription.
	CheckoutSettleDelay time.Duration `env:"BILLING_CHECKOUT_SETTLE_DELAY" envDefault:"2s"`

	// CheckoutSuccessURL is where the provider sends the owner after
	// payment.
	CheckoutSuccessURL string `env:"BILLING_CHECKOUT_SUCCESS_URL"`
}
