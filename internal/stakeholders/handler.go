package stakeholders

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

// Handler wires HTTP endpoints for stakeholders.
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

// MountRoutes registers stakeholder routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/participation", h.handleParticipation)
	r.Post("/{id}/invite", h.handleInvite)
	r.Delete("/{id}", h.handleDelete)
}

type stakeholderPayload struct {
	DisplayName  string `json:"display_name" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
}

type participationPayload struct {
	Participation string `json:"participation" validate:"required"`
}

type stakeholderResponse struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Organization  string    `json:"organization,omitempty"`
	Participation string    `json:"participation"`
	EventIDs      []string  `json:"event_ids"`
	PrincipalID   string    `json:"principal_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(st Stakeholder) stakeholderResponse {
	ids := st.EventIDs
	if ids == nil {
		ids = []string{}
	}
	return stakeholderResponse{
		ID:            st.ID,
		DisplayName:   st.DisplayName,
		Email:         st.Email,
		Phone:         st.Phone,
		Organization:  st.Organization,
		Participation: string(st.Participation),
		EventIDs:      ids,
		PrincipalID:   st.PrincipalID,
		CreatedAt:     st.CreatedAt,
		UpdatedAt:     st.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload stakeholderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Create(r.Context(), actor, CreateInput{
		DisplayName:  payload.DisplayName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		Organization: payload.Organization,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(st))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor, r.URL.Query().Get("event_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]stakeholderResponse, 0, len(list))
	for _, st := range list {
		out = append(out, toResponse(st))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"stakeholders": out,
		"pagination":   shared.NewPagination(1, len(out), len(out)),
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload stakeholderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), UpdateInput{
		DisplayName:  payload.DisplayName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		Organization: payload.Organization,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) handleParticipation(w http.ResponseWriter, r *http.Request) {
	var payload participationPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.SetParticipation(r.Context(), actor, chi.URLParam(r, "id"), Participation(payload.Participation))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) handleInvite(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Invite(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, toResponse(st))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		err = fmt.Errorf("%w: stakeholder", httpx.ErrNotFound)
	case errors.Is(err, shared.ErrPermissionDenied):
		err = httpx.ErrForbidden
	case errors.Is(err, ErrAlreadyLinked):
		err = fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	case errors.Is(err, ErrRule):
		err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	default:
		h.logger.Error("stakeholders handler", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
