package events

import (
	"context"
	"errors"

	"github.com/tessera-hq/tessera/internal/docstore"
	"github.com/tessera-hq/tessera/internal/lifecycle"
)

// Repository persists events in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository constructs Repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches an event by ID.
func (r *Repository) Get(ctx context.Context, id string) (Event, error) {
	doc, err := r.store.GetByID(ctx, docstore.CollectionEvents, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return fromDocument(doc)
}

// List returns all events.
func (r *Repository) List(ctx context.Context) ([]Event, error) {
	docs, err := r.store.List(ctx, docstore.CollectionEvents)
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs)
}

// ListByOwner returns events owned by the given principal.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Event, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionEvents, "owner_id", docstore.OpEqual, ownerID)
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs)
}

// ListByStatus returns events in the given status.
func (r *Repository) ListByStatus(ctx context.Context, status lifecycle.Status) ([]Event, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionEvents, "status", docstore.OpEqual, string(status))
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs)
}

// Put writes the full event document.
func (r *Repository) Put(ctx context.Context, event Event) error {
	return r.store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpSet,
		Collection: docstore.CollectionEvents,
		ID:         event.ID,
		Fields:     toFields(event),
	}})
}

// Delete removes the event document.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpDelete,
		Collection: docstore.CollectionEvents,
		ID:         id,
	}})
}

func toFields(event Event) map[string]any {
	return map[string]any{
		"title":           event.Title,
		"description":     event.Description,
		"location_name":   event.LocationName,
		"virtual_link":    event.VirtualLink,
		"start_time":      docstore.EncodeTime(event.Start),
		"end_time":        docstore.EncodeTime(event.End),
		"status":          string(event.Status),
		"priority":        string(event.Priority),
		"owner_id":        event.OwnerID,
		"stakeholder_ids": event.StakeholderIDs,
		"created_at":      docstore.EncodeTime(event.CreatedAt),
		"updated_at":      docstore.EncodeTime(event.UpdatedAt),
	}
}

func fromDocument(doc docstore.Document) (Event, error) {
	status, err := lifecycle.ParseStatus(docstore.String(doc.Fields["status"]))
	if err != nil {
		return Event{}, err
	}
	priority, err := lifecycle.ParsePriority(docstore.String(doc.Fields["priority"]))
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:             doc.ID,
		Title:          docstore.String(doc.Fields["title"]),
		Description:    docstore.String(doc.Fields["description"]),
		LocationName:   docstore.String(doc.Fields["location_name"]),
		VirtualLink:    docstore.String(doc.Fields["virtual_link"]),
		Start:          docstore.Time(doc.Fields["start_time"]),
		End:            docstore.Time(doc.Fields["end_time"]),
		Status:         status,
		Priority:       priority,
		OwnerID:        docstore.String(doc.Fields["owner_id"]),
		StakeholderIDs: docstore.StringSlice(doc.Fields["stakeholder_ids"]),
		CreatedAt:      docstore.Time(doc.Fields["created_at"]),
		UpdatedAt:      docstore.Time(doc.Fields["updated_at"]),
	}, nil
}

func fromDocuments(docs []docstore.Document) ([]Event, error) {
	out := make([]Event, 0, len(docs))
	for _, doc := range docs {
		event, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}
