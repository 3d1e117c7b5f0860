package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/lifecycle"
	"github.com/tessera-hq/tessera/internal/notify"
	"github.com/tessera-hq/tessera/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (Event, error)
	List(ctx context.Context) ([]Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Event, error)
	ListByStatus(ctx context.Context, status lifecycle.Status) ([]Event, error)
	Put(ctx context.Context, event Event) error
	Delete(ctx context.Context, id string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// ReminderPort schedules a notification ahead of the event start.
type ReminderPort interface {
	ScheduleReminder(ctx context.Context, event Event) error
}

// Service coordinates event operations. Every mutation re-checks access
// here regardless of what the HTTP layer already enforced.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	bus         *notify.Bus
	idempotency *shared.IdempotencyStore
	reminders   ReminderPort
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. Audit, bus and idempotency are optional.
func NewService(repo RepositoryPort, auditor AuditPort, bus *notify.Bus, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		audit:       auditor,
		bus:         bus,
		idempotency: idem,
		logger:      logger,
		now:         time.Now,
	}
}

// WithReminders enables reminder scheduling on create.
func (s *Service) WithReminders(port ReminderPort) *Service {
	s.reminders = port
	return s
}

// Create validates and stores a new draft event owned by the actor.
func (s *Service) Create(ctx context.Context, actor *access.Principal, input CreateInput) (Event, error) {
	if !access.CanPerform(actor, access.ActionCreateEvent) {
		return Event{}, shared.ErrPermissionDenied
	}
	if res := validateFields(input.Title, input.Description, input.LocationName, input.VirtualLink); !res.Valid {
		return Event{}, ruleError(res)
	}
	if res := lifecycle.ValidateTimeRange(input.Start, input.End); !res.Valid {
		return Event{}, ruleError(res)
	}
	priority := input.Priority
	if priority == "" {
		priority = lifecycle.PriorityMedium
	}
	if _, err := lifecycle.ParsePriority(string(priority)); err != nil {
		return Event{}, fmt.Errorf("%w: unknown priority", ErrRule)
	}
	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "events"); err != nil {
			return Event{}, err
		}
	}

	now := s.now()
	event := Event{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		LocationName: input.LocationName,
		VirtualLink:  input.VirtualLink,
		Start:        input.Start,
		End:          input.End,
		Status:       lifecycle.StatusDraft,
		Priority:     priority,
		OwnerID:      actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, event); err != nil {
		return Event{}, err
	}
	s.record(ctx, actor.ID, "event.create", event.ID, nil)
	s.publish(notify.Change{Entity: "event", ID: event.ID, Action: notify.ActionCreated})
	if s.reminders != nil {
		if err := s.reminders.ScheduleReminder(ctx, event); err != nil {
			s.logger.Warn("schedule reminder failed", slog.String("event_id", event.ID), slog.Any("error", err))
		}
	}
	return event, nil
}

// Get fetches one event.
func (s *Service) Get(ctx context.Context, actor *access.Principal, id string) (Event, error) {
	if !access.CanPerform(actor, access.ActionViewEvent) {
		return Event{}, shared.ErrPermissionDenied
	}
	return s.repo.Get(ctx, id)
}

// ListFilter narrows event listings.
type ListFilter struct {
	OwnerID string
	Status  lifecycle.Status
}

// List returns events, optionally filtered by owner or status.
func (s *Service) List(ctx context.Context, actor *access.Principal, filter ListFilter) ([]Event, error) {
	if !access.CanPerform(actor, access.ActionViewEvent) {
		return nil, shared.ErrPermissionDenied
	}
	switch {
	case filter.OwnerID != "":
		return s.repo.ListByOwner(ctx, filter.OwnerID)
	case filter.Status != "":
		return s.repo.ListByStatus(ctx, filter.Status)
	default:
		return s.repo.List(ctx)
	}
}

// Update edits event fields. Managers may edit any event; members only
// their own. Finished events are immutable.
func (s *Service) Update(ctx context.Context, actor *access.Principal, id string, input UpdateInput) (Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !access.CanEditEvent(actor, event.OwnerID) {
		return Event{}, shared.ErrPermissionDenied
	}
	if res := lifecycle.CanEdit(event.Status); !res.Valid {
		return Event{}, ruleError(res)
	}
	if res := validateFields(input.Title, input.Description, input.LocationName, input.VirtualLink); !res.Valid {
		return Event{}, ruleError(res)
	}
	if res := lifecycle.ValidateTimeRange(input.Start, input.End); !res.Valid {
		return Event{}, ruleError(res)
	}
	if input.Priority != "" {
		if _, err := lifecycle.ParsePriority(string(input.Priority)); err != nil {
			return Event{}, fmt.Errorf("%w: unknown priority", ErrRule)
		}
		event.Priority = input.Priority
	}

	event.Title = input.Title
	event.Description = input.Description
	event.LocationName = input.LocationName
	event.VirtualLink = input.VirtualLink
	event.Start = input.Start
	event.End = input.End
	event.UpdatedAt = s.now()

	if err := s.repo.Put(ctx, event); err != nil {
		return Event{}, err
	}
	s.record(ctx, actor.ID, "event.update", event.ID, nil)
	s.publish(notify.Change{Entity: "event", ID: event.ID, Action: notify.ActionUpdated})
	return event, nil
}

// ChangeStatus moves the event through its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, actor *access.Principal, id string, target lifecycle.Status) (Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if !access.CanEditEvent(actor, event.OwnerID) {
		return Event{}, shared.ErrPermissionDenied
	}
	if res := lifecycle.ValidateTransition(event.Status, target); !res.Valid {
		return Event{}, ruleError(res)
	}

	event.Status = target
	event.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, event); err != nil {
		return Event{}, err
	}
	s.record(ctx, actor.ID, "event.status", event.ID, map[string]any{"status": string(target)})
	s.publish(notify.Change{Entity: "event", ID: event.ID, Action: notify.ActionUpdated})
	return event, nil
}

// Delete removes an event. Live events cannot be deleted, and deletion
// always requires a management rank.
func (s *Service) Delete(ctx context.Context, actor *access.Principal, id string) error {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDeleteEvent(actor) {
		return shared.ErrPermissionDenied
	}
	if res := lifecycle.CanDelete(event.Status); !res.Valid {
		return ruleError(res)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "event.delete", id, nil)
	s.publish(notify.Change{Entity: "event", ID: id, Action: notify.ActionDeleted})
	return nil
}

func validateFields(title, description, location, link string) lifecycle.Result {
	if res := lifecycle.ValidateTitle(title); !res.Valid {
		return res
	}
	if res := lifecycle.ValidateDescription(description); !res.Valid {
		return res
	}
	if location != "" {
		if res := lifecycle.ValidateLocationName(location); !res.Valid {
			return res
		}
	}
	return lifecycle.ValidateVirtualLink(link)
}

func ruleError(res lifecycle.Result) error {
	return fmt.Errorf("%w: %s", ErrRule, res.Message)
}

// record writes an audit entry. Audit is a non-critical path: failures
// are logged and do not fail the mutation.
func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{ActorID: actorID, Action: action, Entity: "event", EntityID: entityID, Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) publish(change notify.Change) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(change)
}
