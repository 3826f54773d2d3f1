package billing

import "errors"

var (
	ErrMissingAPIKey      = errors.New("billing provider API key is required")
	ErrInvalidEnvironment = errors.New("invalid billing provider environment")

	ErrCustomerNotFound = errors.New("billing customer not found")
	ErrNoCheckoutURL    = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL      = errors.New("no portal URL returned from provider")

	// ErrProviderUnavailable wraps transport and API failures so callers can
	// treat them uniformly as a transient billing outage.
	ErrProviderUnavailable = errors.New("billing provider unavailable")
)
