package assignment

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/events"
	"github.com/tessera-hq/tessera/internal/platform/httpx"
	"github.com/tessera-hq/tessera/internal/shared"
	"github.com/tessera-hq/tessera/internal/stakeholders"
)

// Handler wires HTTP endpoints for event-stakeholder assignment. Routes
// are mounted under /events/{id}/stakeholders.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers assignment routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleLinks)
	r.Put("/{stakeholderID}", h.handleAssign)
	r.Delete("/{stakeholderID}", h.handleUnassign)
}

type linkResponse struct {
	EventID       string    `json:"event_id"`
	StakeholderID string    `json:"stakeholder_id"`
	AssignedAt    time.Time `json:"assigned_at"`
}

type assignmentResponse struct {
	StakeholderID string   `json:"stakeholder_id"`
	EventIDs      []string `json:"event_ids"`
}

func toResponse(st stakeholders.Stakeholder) assignmentResponse {
	ids := st.EventIDs
	if ids == nil {
		ids = []string{}
	}
	return assignmentResponse{StakeholderID: st.ID, EventIDs: ids}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Assign(r.Context(), actor, chi.URLParam(r, "stakeholderID"), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	st, err := h.service.Unassign(r.Context(), actor, chi.URLParam(r, "stakeholderID"), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(st))
}

func (h *Handler) handleLinks(w http.ResponseWriter, r *http.Request) {
	actor := access.PrincipalFromContext(r.Context())
	links, err := h.service.Links(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]linkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, linkResponse{
			EventID:       link.EventID,
			StakeholderID: link.StakeholderID,
			AssignedAt:    link.AssignedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"links": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stakeholders.ErrNotFound):
		err = fmt.Errorf("%w: stakeholder", httpx.ErrNotFound)
	case errors.Is(err, events.ErrNotFound):
		err = fmt.Errorf("%w: event", httpx.ErrNotFound)
	case errors.Is(err, shared.ErrPermissionDenied):
		err = httpx.ErrForbidden
	default:
		h.logger.Error("assignment handler", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
