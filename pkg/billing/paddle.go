package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey      string `env:"PADDLE_API_KEY,required"`
	Environment string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider on top of the official Paddle SDK.
type PaddleProvider struct {
	client *paddle.SDK
	config PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidEnvironment, fmt.Errorf("environment %q", config.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{client: client, config: config}, nil
}

// FindCustomerByEmail looks the email up in Paddle's customer list.
func (p *PaddleProvider) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	res, err := p.client.CustomersClient.ListCustomers(ctx, &paddle.ListCustomersRequest{
		Email: []string{email},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	var found *Customer
	err = res.Iter(ctx, func(c *paddle.Customer) (bool, error) {
		// Paddle matches the email filter loosely in some regions, so the
		// exact comparison stays on our side.
		if strings.EqualFold(c.Email, email) {
			found = &Customer{ID: c.ID, Email: c.Email}
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	if found == nil {
		return nil, ErrCustomerNotFound
	}
	return found, nil
}

// ListActiveSubscriptions returns the customer's active subscriptions.
func (p *PaddleProvider) ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	res, err := p.client.SubscriptionsClient.ListSubscriptions(ctx, &paddle.ListSubscriptionsRequest{
		CustomerID: []string{customerID},
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	var active []Subscription
	err = res.Iter(ctx, func(s *paddle.Subscription) (bool, error) {
		if s.Status != paddle.SubscriptionStatusActive {
			return true, nil
		}

		sub := Subscription{
			ID:     s.ID,
			Status: string(s.Status),
		}
		sub.StartedAt = parsePaddleTime(s.StartedAt)
		if s.CurrentBillingPeriod != nil {
			sub.CurrentPeriodEnd = parsePaddleTime(&s.CurrentBillingPeriod.EndsAt)
		}

		active = append(active, sub)
		return true, nil
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	return active, nil
}

// CreateCheckoutLink creates a hosted checkout session in Paddle.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.OwnerID == "" {
		return nil, errors.New("owner ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"owner_id": req.OwnerID,
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links typically expire in 24 hours
	}, nil
}

// CreatePortalLink returns a link to Paddle's customer portal.
func (p *PaddleProvider) CreatePortalLink(ctx context.Context, customerID string, subscriptionIDs []string) (*PortalLink, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}

	portalSession, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID:      customerID,
		SubscriptionIDs: subscriptionIDs,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	if portalSession.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       portalSession.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour), // portal links typically expire in 24 hours
	}, nil
}

// parsePaddleTime converts Paddle's RFC3339 string timestamps, tolerating
// nil and malformed values as zero time.
func parsePaddleTime(s *string) time.Time {
	if s == nil || *s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return time.Time{}
	}
	return t
}
