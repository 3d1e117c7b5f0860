// Package assignment maintains the bidirectional link between events and
// stakeholders. Both sides of the many-to-many relationship plus the
// junction index are written in one atomic batch, so the symmetric
// invariant holds even when a write fails mid-flight.
package assignment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/docstore"
	"github.com/tessera-hq/tessera/internal/events"
	"github.com/tessera-hq/tessera/internal/notify"
	"github.com/tessera-hq/tessera/internal/shared"
	"github.com/tessera-hq/tessera/internal/stakeholders"
)

// Link is one materialized event-stakeholder association.
type Link struct {
	EventID       string
	StakeholderID string
	AssignedAt    time.Time
}

// LinkID derives the deterministic junction document key.
func LinkID(eventID, stakeholderID string) string {
	return eventID + "_" + stakeholderID
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service performs the synchronized multi-collection writes.
type Service struct {
	store  docstore.Store
	audit  AuditPort
	bus    *notify.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service. Audit and bus are optional.
func NewService(store docstore.Store, auditor AuditPort, bus *notify.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		audit:  auditor,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// Assign links a stakeholder to an event. The operation is idempotent:
// assigning an existing link returns the stakeholder unchanged. A new
// link is written as a single batch of exactly three operations, all of
// which succeed or none of which apply.
func (s *Service) Assign(ctx context.Context, actor *access.Principal, stakeholderID, eventID string) (stakeholders.Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionAssignStakeholder) {
		return stakeholders.Stakeholder{}, shared.ErrPermissionDenied
	}

	st, err := s.getStakeholder(ctx, stakeholderID)
	if err != nil {
		return stakeholders.Stakeholder{}, err
	}
	if contains(st.EventIDs, eventID) {
		return st, nil
	}
	if err := s.ensureEvent(ctx, eventID); err != nil {
		return stakeholders.Stakeholder{}, err
	}

	assignedAt := s.now()
	ops := []docstore.Op{
		{
			Kind:       docstore.OpUpdate,
			Collection: docstore.CollectionStakeholders,
			ID:         stakeholderID,
			Fields: map[string]any{
				"event_ids":  docstore.ArrayUnion{Values: []string{eventID}},
				"updated_at": docstore.EncodeTime(assignedAt),
			},
		},
		{
			Kind:       docstore.OpUpdate,
			Collection: docstore.CollectionEvents,
			ID:         eventID,
			Fields: map[string]any{
				"stakeholder_ids": docstore.ArrayUnion{Values: []string{stakeholderID}},
				"updated_at":      docstore.EncodeTime(assignedAt),
			},
		},
		{
			Kind:       docstore.OpSet,
			Collection: docstore.CollectionLinks,
			ID:         LinkID(eventID, stakeholderID),
			Fields: map[string]any{
				"event_id":       eventID,
				"stakeholder_id": stakeholderID,
				"assigned_at":    docstore.EncodeTime(assignedAt),
			},
		},
	}
	if err := s.store.BatchWrite(ctx, ops); err != nil {
		return stakeholders.Stakeholder{}, err
	}

	st.EventIDs = append(st.EventIDs, eventID)
	st.UpdatedAt = assignedAt
	s.record(ctx, actor.ID, "assignment.assign", eventID, stakeholderID)
	s.publish(notify.Change{Entity: "event", ID: eventID, Action: notify.ActionAssigned})
	return st, nil
}

// Unassign removes the link. Unassigning an absent link is a no-op
// success, mirroring Assign's idempotency.
func (s *Service) Unassign(ctx context.Context, actor *access.Principal, stakeholderID, eventID string) (stakeholders.Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionAssignStakeholder) {
		return stakeholders.Stakeholder{}, shared.ErrPermissionDenied
	}

	st, err := s.getStakeholder(ctx, stakeholderID)
	if err != nil {
		return stakeholders.Stakeholder{}, err
	}
	if !contains(st.EventIDs, eventID) {
		return st, nil
	}

	removedAt := s.now()
	ops := []docstore.Op{
		{
			Kind:       docstore.OpUpdate,
			Collection: docstore.CollectionStakeholders,
			ID:         stakeholderID,
			Fields: map[string]any{
				"event_ids":  docstore.ArrayRemove{Values: []string{eventID}},
				"updated_at": docstore.EncodeTime(removedAt),
			},
		},
		{
			Kind:       docstore.OpUpdate,
			Collection: docstore.CollectionEvents,
			ID:         eventID,
			Fields: map[string]any{
				"stakeholder_ids": docstore.ArrayRemove{Values: []string{stakeholderID}},
				"updated_at":      docstore.EncodeTime(removedAt),
			},
		},
		{
			Kind:       docstore.OpDelete,
			Collection: docstore.CollectionLinks,
			ID:         LinkID(eventID, stakeholderID),
		},
	}
	if err := s.store.BatchWrite(ctx, ops); err != nil {
		return stakeholders.Stakeholder{}, err
	}

	st.EventIDs = remove(st.EventIDs, eventID)
	st.UpdatedAt = removedAt
	s.record(ctx, actor.ID, "assignment.unassign", eventID, stakeholderID)
	s.publish(notify.Change{Entity: "event", ID: eventID, Action: notify.ActionUnassigned})
	return st, nil
}

// Links returns the junction records for an event.
func (s *Service) Links(ctx context.Context, actor *access.Principal, eventID string) ([]Link, error) {
	if !access.CanPerform(actor, access.ActionViewEvent) {
		return nil, shared.ErrPermissionDenied
	}
	docs, err := s.store.Query(ctx, docstore.CollectionLinks, "event_id", docstore.OpEqual, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]Link, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Link{
			EventID:       docstore.String(doc.Fields["event_id"]),
			StakeholderID: docstore.String(doc.Fields["stakeholder_id"]),
			AssignedAt:    docstore.Time(doc.Fields["assigned_at"]),
		})
	}
	return out, nil
}

func (s *Service) getStakeholder(ctx context.Context, id string) (stakeholders.Stakeholder, error) {
	doc, err := s.store.GetByID(ctx, docstore.CollectionStakeholders, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return stakeholders.Stakeholder{}, stakeholders.ErrNotFound
		}
		return stakeholders.Stakeholder{}, err
	}
	return stakeholders.FromDocument(doc)
}

func (s *Service) ensureEvent(ctx context.Context, id string) error {
	if _, err := s.store.GetByID(ctx, docstore.CollectionEvents, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return events.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID, action, eventID, stakeholderID string) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "assignment",
		EntityID: LinkID(eventID, stakeholderID),
		Meta:     map[string]any{"event_id": eventID, "stakeholder_id": stakeholderID},
	}
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

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing == id {
			continue
		}
		out = append(out, existing)
	}
	return out
}
