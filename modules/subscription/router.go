package subscription

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallybook/tallybook/modules/identity"
	"github.com/tallybook/tallybook/pkg/response"
)

// NewRouter wires the billing endpoints. All routes require a verified
// session in the request context; mount behind identity.Middleware.
func NewRouter(reconciler *Reconciler, checkout *CheckoutService, log *slog.Logger) http.Handler {
	if reconciler == nil {
		panic("subscription: reconciler is required")
	}
	if checkout == nil {
		panic("subscription: checkout service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handler{reconciler: reconciler, checkout: checkout, log: log}

	r := chi.NewRouter()
	r.Get("/subscription", h.getSubscription)
	r.Post("/checkout", h.startCheckout)
	r.Post("/portal", h.billingPortal)
	return r
}

type handler struct {
	reconciler *Reconciler
	checkout   *CheckoutService
	log        *slog.Logger
}

type linkResponse struct {
	URL string `json:"url"`
}

// getSubscription reconciles on demand and returns the fresh snapshot.
// A `checkout=success` marker on the query string means the owner just
// came back from the provider's checkout; a delayed second pass is
// scheduled because the provider may not have settled the subscription
// yet by the time this request runs.
func (h *handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	owner := Owner{ID: session.OwnerID, Email: session.Email}

	if r.URL.Query().Get("checkout") == "success" {
		h.checkout.ReconcileAfterCheckout(r.Context(), owner)
	}

	snapshot, err := h.reconciler.Reconcile(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, snapshot)
}

func (h *handler) startCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	url, err := h.checkout.StartCheckout(r.Context(), Owner{ID: session.OwnerID, Email: session.Email})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, linkResponse{URL: url})
}

func (h *handler) billingPortal(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	url, err := h.checkout.BillingPortal(r.Context(), Owner{ID: session.OwnerID, Email: session.Email})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, linkResponse{URL: url})
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, ErrNoBillingAccount):
		response.Error(w, response.ErrNotFound)
	case errors.Is(err, ErrBillingUnavailable), errors.Is(err, ErrCheckoutFailed):
		h.log.ErrorContext(ctx, "billing provider error", slog.Any("error", err))
		response.Error(w, response.ErrBadGateway)
	case errors.Is(err, ErrReconcileFailed):
		h.log.ErrorContext(ctx, "failed to persist plan state", slog.Any("error", err))
		response.Error(w, response.ErrServiceUnavailable)
	default:
		h.log.ErrorContext(ctx, "unexpected billing error", slog.Any("error", err))
		response.Error(w, err)
	}
}
