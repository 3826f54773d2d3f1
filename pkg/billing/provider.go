package billing

import (
	"context"
	"time"
)

// Provider defines the minimal interface to the external payment processor.
// The processor is the source of truth for who pays: the application never
// stores billing state beyond the profile cache the reconciler maintains.
// Hosted checkout and customer portal keep card data entirely on the
// provider's side.
//
// Implementations should use the official provider SDK and absorb
// provider-specific quirks internally.
type Provider interface {
	// FindCustomerByEmail resolves the provider's customer record for an
	// owner email. Returns ErrCustomerNotFound when the email is unknown
	// to the provider (a normal state for never-subscribed owners).
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)

	// ListActiveSubscriptions returns the customer's currently active
	// subscriptions. An empty slice means the owner is not paying.
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	// CreateCheckoutLink creates a hosted checkout session for a price.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// CreatePortalLink returns a temporary link to the hosted customer
	// portal where owners manage payment methods and cancellation.
	CreatePortalLink(ctx context.Context, customerID string, subscriptionIDs []string) (*PortalLink, error)
}

// Customer is the provider's view of a paying (or formerly paying) owner.
type Customer struct {
	ID    string
	Email string
}

// Subscription is the provider's record of a recurring purchase.
type Subscription struct {
	ID               string
	Status           string
	StartedAt        time.Time
	CurrentPeriodEnd time.Time
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier for the plan
	OwnerID    string // internal owner ID, carried through custom data
	Email      string // pre-fill billing email if known
	SuccessURL string // redirect after successful payment
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL       string
	ExpiresAt time.Time
}
