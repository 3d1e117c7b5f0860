package principals

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/platform/httpx"
	"github.com/tessera-hq/tessera/internal/shared"
)

// Handler wires HTTP endpoints for account administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers principal routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Post("/{id}/role", h.handleSetRole)
	r.Post("/{id}/permissions", h.handleGrant)
	r.Delete("/{id}/permissions/{tag}", h.handleRevoke)
	r.Post("/{id}/deactivate", h.handleDeactivate)
}

type createPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

type rolePayload struct {
	Role string `json:"role" validate:"required"`
}

type permissionPayload struct {
	Permission string `json:"permission" validate:"required"`
}

type accountResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Permissions   []string  `json:"permissions"`
	Active        bool      `json:"active"`
	StakeholderID string    `json:"stakeholder_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(acc Account) accountResponse {
	perms := acc.PermissionList()
	if perms == nil {
		perms = []string{}
	}
	return accountResponse{
		ID:            acc.ID,
		Email:         acc.Email,
		Role:          acc.Role.String(),
		Permissions:   perms,
		Active:        acc.Active,
		StakeholderID: acc.StakeholderID,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	accounts, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toResponse(acc))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"principals": out})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.Create(r.Context(), actor, CreateInput{
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(acc))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var payload rolePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.SetRole(r.Context(), actor, chi.URLParam(r, "id"), payload.Role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	var payload permissionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.Grant(r.Context(), actor, chi.URLParam(r, "id"), payload.Permission)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.Revoke(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "tag"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	acc, err := h.service.Deactivate(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(acc))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		err = fmt.Errorf("%w: principal", httpx.ErrNotFound)
	case errors.Is(err, ErrEmailTaken):
		err = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	case errors.Is(err, shared.ErrPermissionDenied):
		err = httpx.ErrForbidden
	case errors.Is(err, ErrRule):
		err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		h.logger.Error("principals handler", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
