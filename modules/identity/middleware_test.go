package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/modules/identity"
)

type stubProvider struct {
	session identity.Session
	err     error
	token   string
}

func (s *stubProvider) Verify(_ context.Context, token string) (identity.Session, error) {
	s.token = token
	if s.err != nil {
		return identity.Session{}, s.err
	}
	return s.session, nil
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	session := identity.Session{OwnerID: ownerID, Email: "owner@example.com"}

	t.Run("valid token reaches the handler with a session", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{session: session}
		var got identity.Session
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := identity.GetSessionFromContext(r.Context())
			require.True(t, ok)
			got = s
			w.WriteHeader(http.StatusOK)
		})

		handler := identity.Middleware(provider, nil, nil)(next)

		req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		req.Header.Set("Authorization", "Bearer tok-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "tok-123", provider.token)
		assert.Equal(t, session, got)
	})

	t.Run("invalid token answers 401 without reaching the handler", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{err: identity.ErrUnauthorized}
		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

		handler := identity.Middleware(provider, nil, nil)(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("provider outage answers 503, not 401", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{err: identity.ErrProviderUnavailable}
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

		handler := identity.Middleware(provider, nil, nil)(next)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		req.Header.Set("Authorization", "Bearer tok-123")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("provision hook runs before the handler", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{session: session}
		provisioned := false
		provision := func(_ context.Context, s identity.Session) error {
			provisioned = true
			assert.Equal(t, ownerID, s.OwnerID)
			return nil
		}
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			assert.True(t, provisioned)
		})

		handler := identity.Middleware(provider, provision, nil)(next)

		req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		req.Header.Set("Authorization", "Bearer tok-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("provision failure blocks the request", func(t *testing.T) {
		t.Parallel()

		provider := &stubProvider{session: session}
		provision := func(context.Context, identity.Session) error {
			return errors.New("database down")
		}
		called := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

		handler := identity.Middleware(provider, provision, nil)(next)

		req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
		req.Header.Set("Authorization", "Bearer tok-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, called)
	})
}

func TestHTTPProvider_Verify(t *testing.T) {
	t.Parallel()

	t.Run("resolves a valid token", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user", r.URL.Path)
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			assert.Equal(t, "svc-key", r.Header.Get("apikey"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + ownerID.String() + `","email":"owner@example.com"}`))
		}))
		defer srv.Close()

		provider, err := identity.NewHTTPProvider(identity.Config{BaseURL: srv.URL, APIKey: "svc-key"})
		require.NoError(t, err)

		session, err := provider.Verify(context.Background(), "tok-123")
		require.NoError(t, err)
		assert.Equal(t, ownerID, session.OwnerID)
		assert.Equal(t, "owner@example.com", session.Email)
	})

	t.Run("401 from the service maps to ErrUnauthorized", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		provider, err := identity.NewHTTPProvider(identity.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = provider.Verify(context.Background(), "expired")
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
	})

	t.Run("5xx from the service maps to ErrProviderUnavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		provider, err := identity.NewHTTPProvider(identity.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = provider.Verify(context.Background(), "tok-123")
		assert.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})

	t.Run("empty token short-circuits", func(t *testing.T) {
		t.Parallel()

		provider, err := identity.NewHTTPProvider(identity.Config{BaseURL: "http://identity.internal"})
		require.NoError(t, err)

		_, err = provider.Verify(context.Background(), "")
		assert.ErrorIs(t, err, identity.ErrUnauthorized)
	})
}
