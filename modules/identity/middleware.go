package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tallybook/tallybook/pkg/response"
)

// ProvisionFunc runs after a token verifies, before the handler. It is the
// first-touch hook that makes sure the owner's profile row exists.
type ProvisionFunc func(ctx context.Context, session Session) error

// Middleware verifies the bearer token on every request and stores the
// resulting session in the request context. Requests without a valid
// session never reach the handlers behind it.
func Middleware(provider Provider, provision ProvisionFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if provider == nil {
		panic("identity: provider is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			session, err := provider.Verify(ctx, bearerToken(r))
			if err != nil {
				if errors.Is(err, ErrProviderUnavailable) {
					log.ErrorContext(ctx, "identity provider unavailable", slog.Any("error", err))
					response.Error(w, response.ErrServiceUnavailable)
					return
				}
				response.Error(w, response.ErrUnauthorized)
				return
			}

			if provision != nil {
				if err := provision(ctx, session); err != nil {
					log.ErrorContext(ctx, "failed to provision profile",
						slog.String("owner_id", session.OwnerID.String()),
						slog.Any("error", err))
					response.Error(w, response.ErrServiceUnavailable)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetSessionToContext(ctx, session)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}
