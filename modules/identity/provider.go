package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Provider verifies a session token with the external identity service.
type Provider interface {
	// Verify resolves the token to a session or returns ErrUnauthorized.
	Verify(ctx context.Context, token string) (Session, error)
}

// Config holds the identity service connection settings.
type Config struct {
	BaseURL string        `env:"IDENTITY_BASE_URL,required"`         // BaseURL of the identity service's REST API.
	APIKey  string        `env:"IDENTITY_API_KEY,required"`          // APIKey authorizes this backend against the service.
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`  // Timeout per verification call.
}

// HTTPProvider verifies tokens against the identity service's user-info
// endpoint. The elevated API key stays on this server; browsers only ever
// hold their own session token.
type HTTPProvider struct {
	config Config
	client *http.Client
}

// NewHTTPProvider creates a Provider over the identity service REST API.
func NewHTTPProvider(config Config) (*HTTPProvider, error) {
	if config.BaseURL == "" {
		return nil, errors.New("identity base URL is required")
	}
	return &HTTPProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type userInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *HTTPProvider) Verify(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/user", nil)
	if err != nil {
		return Session{}, errors.Join(ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Session{}, errors.Join(ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Session{}, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return Session{}, errors.Join(ErrProviderUnavailable,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Session{}, errors.Join(ErrProviderUnavailable, err)
	}

	ownerID, err := uuid.Parse(info.ID)
	if err != nil {
		return Session{}, errors.Join(ErrProviderUnavailable,
			fmt.Errorf("invalid owner ID in user info: %w", err))
	}

	return Session{OwnerID: ownerID, Email: info.Email}, nil
}

var _ Provider = (*HTTPProvider)(nil)
