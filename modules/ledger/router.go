package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tallybook/tallybook/modules/identity"
	"github.com/tallybook/tallybook/pkg/quota"
	"github.com/tallybook/tallybook/pkg/response"
	"github.com/tallybook/tallybook/pkg/validator"
)

// NewRouter wires the ledger endpoints. All routes require a verified
// session in the request context; mount behind identity.Middleware.
func NewRouter(svc *Service, log *slog.Logger) http.Handler {
	if svc == nil {
		panic("ledger: service is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.listTransactions)
		r.Post("/", h.createTransaction)
		r.Get("/categories", h.categories)
		r.Get("/{id}", h.getTransaction)
		r.Put("/{id}", h.updateTransaction)
		r.Delete("/{id}", h.deleteTransaction)
	})
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", h.listClients)
		r.Post("/", h.createClient)
		r.Get("/{id}", h.getClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
	})
	r.Get("/usage", h.usage)
	r.Get("/summary", h.summary)
	return r
}

type handler struct {
	svc *Service
	log *slog.Logger
}

func (h *handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	var in TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	t, err := h.svc.CreateTransaction(r.Context(), session.OwnerID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, t)
}

func (h *handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	t, err := h.svc.GetTransaction(r.Context(), session.OwnerID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	filter, err := parseTransactionFilter(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	list, err := h.svc.ListTransactions(r.Context(), session.OwnerID, filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []Transaction{}
	}
	response.JSON(w, http.StatusOK, list)
}

func (h *handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	var in TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	t, err := h.svc.UpdateTransaction(r.Context(), session.OwnerID, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	if err := h.svc.DeleteTransaction(r.Context(), session.OwnerID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	kind := Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		response.Error(w, validator.ValidationErrors{{
			Field:   "kind",
			Message: "must be income or expense",
		}})
		return
	}
	response.JSON(w, http.StatusOK, CategorySuggestions(kind))
}

func (h *handler) createClient(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	var in ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	c, err := h.svc.CreateClient(r.Context(), session.OwnerID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, c)
}

func (h *handler) getClient(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	c, err := h.svc.GetClient(r.Context(), session.OwnerID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func (h *handler) listClients(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	list, err := h.svc.ListClients(r.Context(), session.OwnerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []Client{}
	}
	response.JSON(w, http.StatusOK, list)
}

func (h *handler) updateClient(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	var in ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	c, err := h.svc.UpdateClient(r.Context(), session.OwnerID, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

func (h *handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, response.ErrNotFound)
		return
	}

	if err := h.svc.DeleteClient(r.Context(), session.OwnerID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	usage, err := h.svc.Usage(r.Context(), session.OwnerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, usage)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(w, validator.ValidationErrors{{Field: "from", Message: "must be an RFC 3339 timestamp"}})
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(w, validator.ValidationErrors{{Field: "to", Message: "must be an RFC 3339 timestamp"}})
			return
		}
		to = parsed
	}

	s, err := h.svc.Summarize(r.Context(), session.OwnerID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

// writeError maps service errors onto the response taxonomy. A spent
// quota answers 402 with the count and limit in the meta block so the
// UI can render the upgrade prompt without a second request.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		response.ErrorMeta(w, response.ErrPaymentRequired, map[string]any{
			"resource": quotaErr.Resource,
			"count":    quotaErr.Count,
			"limit":    quotaErr.Limit,
		})
	case validator.IsValidationError(err):
		response.Error(w, err)
	case errors.Is(err, ErrTransactionNotFound), errors.Is(err, ErrClientNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.Is(err, quota.ErrUsageUnavailable), errors.Is(err, quota.ErrTierResolveFailed), errors.Is(err, ErrStoreFailed):
		h.log.ErrorContext(r.Context(), "ledger store unavailable", slog.Any("error", err))
		response.Error(w, response.ErrServiceUnavailable)
	default:
		h.log.ErrorContext(r.Context(), "unexpected ledger error", slog.Any("error", err))
		response.Error(w, err)
	}
}

func parseTransactionFilter(r *http.Request) (TransactionFilter, error) {
	var filter TransactionFilter
	q := r.URL.Query()

	if v := q.Get("kind"); v != "" {
		kind := Kind(v)
		if !kind.Valid() {
			return filter, validator.ValidationErrors{{Field: "kind", Message: "must be income or expense"}}
		}
		filter.Kind = &kind
	}
	if v := q.Get("clientId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, validator.ValidationErrors{{Field: "clientId", Message: "must be a valid UUID"}}
		}
		filter.ClientID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, validator.ValidationErrors{{Field: "from", Message: "must be an RFC 3339 timestamp"}}
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, validator.ValidationErrors{{Field: "to", Message: "must be an RFC 3339 timestamp"}}
		}
		filter.To = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, validator.ValidationErrors{{Field: "limit", Message: "must be a non-negative integer"}}
		}
		filter.Limit = n
	}
	return filter, nil
}
