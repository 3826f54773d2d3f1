package profile

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tallybook/tallybook/modules/identity"
	"github.com/tallybook/tallybook/pkg/plan"
	"github.com/tallybook/tallybook/pkg/response"
	"github.com/tallybook/tallybook/pkg/validator"
)

// NewRouter wires the profile endpoints. All routes require a verified
// session in the request context; mount behind identity.Middleware.
func NewRouter(store Store, log *slog.Logger) http.Handler {
	if store == nil {
		panic("profile: store is required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handler{store: store, log: log}

	r := chi.NewRouter()
	r.Get("/", h.get)
	r.Put("/", h.updateContact)
	r.Delete("/", h.delete)
	return r
}

type handler struct {
	store Store
	log   *slog.Logger
}

// profileView is the JSON shape of a profile. Plan fields come from the
// reconciler-maintained cache and are read-only here.
type profileView struct {
	Email         string     `json:"email"`
	FullName      string     `json:"fullName,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	PlanTier      plan.Tier  `json:"planType"`
	PlanStartedAt time.Time  `json:"planStartedAt"`
	PlanExpiresAt *time.Time `json:"planExpiryDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func viewOf(p *Profile) profileView {
	return profileView{
		Email:         p.Email,
		FullName:      p.FullName,
		Phone:         p.Phone,
		PlanTier:      p.PlanTier,
		PlanStartedAt: p.PlanStartedAt,
		PlanExpiresAt: p.PlanExpiresAt,
		CreatedAt:     p.CreatedAt,
	}
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	p, err := h.store.Get(r.Context(), session.OwnerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, viewOf(p))
}

type contactRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

func (h *handler) updateContact(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	if err := validator.Apply(
		validator.MaxLength("fullName", req.FullName, 200),
		validator.MaxLength("phone", req.Phone, 50),
	); err != nil {
		response.Error(w, err)
		return
	}

	upd := ContactUpdate{FullName: req.FullName, Phone: req.Phone}
	if err := h.store.UpdateContact(r.Context(), session.OwnerID, upd); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.store.Get(r.Context(), session.OwnerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, viewOf(p))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	session, ok := identity.GetSessionFromContext(r.Context())
	if !ok {
		response.Error(w, response.ErrUnauthorized)
		return
	}

	if err := h.store.Delete(r.Context(), session.OwnerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		response.Error(w, response.ErrNotFound)
	case errors.Is(err, ErrStoreFailed):
		h.log.ErrorContext(r.Context(), "profile store unavailable", slog.Any("error", err))
		response.Error(w, response.ErrServiceUnavailable)
	default:
		h.log.ErrorContext(r.Context(), "unexpected profile error", slog.Any("error", err))
		response.Error(w, err)
	}
}
