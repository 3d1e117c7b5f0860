package events

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/lifecycle"
	"github.com/tessera-hq/tessera/internal/platform/httpx"
	"github.com/tessera-hq/tessera/internal/shared"
)

// Handler wires HTTP endpoints for events.
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

// MountRoutes registers event routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Post("/{id}/status", h.handleChangeStatus)
	r.Delete("/{id}", h.handleDelete)
}

type eventPayload struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	LocationName string    `json:"location_name"`
	VirtualLink  string    `json:"virtual_link"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	Priority     string    `json:"priority"`
}

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

type eventResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	LocationName   string    `json:"location_name,omitempty"`
	VirtualLink    string    `json:"virtual_link,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	OwnerID        string    `json:"owner_id"`
	StakeholderIDs []string  `json:"stakeholder_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(event Event) eventResponse {
	ids := event.StakeholderIDs
	if ids == nil {
		ids = []string{}
	}
	return eventResponse{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		LocationName:   event.LocationName,
		VirtualLink:    event.VirtualLink,
		Start:          event.Start,
		End:            event.End,
		Status:         string(event.Status),
		Priority:       string(event.Priority),
		OwnerID:        event.OwnerID,
		StakeholderIDs: ids,
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	event, err := h.service.Create(r.Context(), actor, CreateInput{
		Title:          payload.Title,
		Description:    payload.Description,
		LocationName:   payload.LocationName,
		VirtualLink:    payload.VirtualLink,
		Start:          payload.Start,
		End:            payload.End,
		Priority:       lifecycle.Priority(payload.Priority),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(event))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	event, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{OwnerID: r.URL.Query().Get("owner_id")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
			return
		}
		filter.Status = status
	}
	actor := access.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(list))
	for _, event := range list {
		out = append(out, toResponse(event))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"events":     out,
		"pagination": shared.NewPagination(1, len(out), len(out)),
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	event, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), UpdateInput{
		Title:        payload.Title,
		Description:  payload.Description,
		LocationName: payload.LocationName,
		VirtualLink:  payload.VirtualLink,
		Start:        payload.Start,
		End:          payload.End,
		Priority:     lifecycle.Priority(payload.Priority),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	target, err := lifecycle.ParseStatus(payload.Status)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status")
		return
	}
	actor := access.PrincipalFromContext(r.Context())
	event, err := h.service.ChangeStatus(r.Context(), actor, chi.URLParam(r, "id"), target)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(event))
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
		err = fmt.Errorf("%w: event", httpx.ErrNotFound)
	case errors.Is(err, shared.ErrPermissionDenied):
		err = httpx.ErrForbidden
	case errors.Is(err, ErrRule):
		err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		err = fmt.Errorf("%w: %v", httpx.ErrDuplicate, err)
	default:
		h.logger.Error("events handler", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
