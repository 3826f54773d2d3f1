package subscription

import "errors"

var (
	// ErrBillingUnavailable means the billing provider could not be
	// reached or answered with an error. The cached profile is left
	// untouched when this is returned.
	ErrBillingUnavailable = errors.New("billing provider unavailable")

	// ErrReconcileFailed means the observed billing state could not be
	// persisted to the profile cache.
	ErrReconcileFailed = errors.New("failed to persist reconciled plan state")

	// ErrNoBillingAccount means the owner has no customer record with the
	// provider yet, so there is no portal to open.
	ErrNoBillingAccount = errors.New("owner has no billing account")

	// ErrCheckoutFailed means the provider refused to create a checkout
	// session.
	ErrCheckoutFailed = errors.New("failed to create checkout session")
)
