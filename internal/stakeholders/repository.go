package stakeholders

import (
	"context"
	"errors"

	"github.com/tessera-hq/tessera/internal/docstore"
)

// Repository persists stakeholders in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository constructs Repository.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get fetches a stakeholder by ID.
func (r *Repository) Get(ctx context.Context, id string) (Stakeholder, error) {
	doc, err := r.store.GetByID(ctx, docstore.CollectionStakeholders, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Stakeholder{}, ErrNotFound
		}
		return Stakeholder{}, err
	}
	return FromDocument(doc)
}

// List returns all stakeholders.
func (r *Repository) List(ctx context.Context) ([]Stakeholder, error) {
	docs, err := r.store.List(ctx, docstore.CollectionStakeholders)
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs)
}

// ListByEvent returns stakeholders assigned to the given event.
func (r *Repository) ListByEvent(ctx context.Context, eventID string) ([]Stakeholder, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionStakeholders, "event_ids", docstore.OpArrayContains, eventID)
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs)
}

// Put writes the full stakeholder document.
func (r *Repository) Put(ctx context.Context, st Stakeholder) error {
	return r.store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpSet,
		Collection: docstore.CollectionStakeholders,
		ID:         st.ID,
		Fields:     toFields(st),
	}})
}

// Delete removes the stakeholder document.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpDelete,
		Collection: docstore.CollectionStakeholders,
		ID:         id,
	}})
}

func toFields(st Stakeholder) map[string]any {
	return map[string]any{
		"display_name":  st.DisplayName,
		"email":         st.Email,
		"phone":         st.Phone,
		"organization":  st.Organization,
		"participation": string(st.Participation),
		"event_ids":     st.EventIDs,
		"principal_id":  st.PrincipalID,
		"created_at":    docstore.EncodeTime(st.CreatedAt),
		"updated_at":    docstore.EncodeTime(st.UpdatedAt),
	}
}

// FromDocument maps a stored document onto a Stakeholder.
func FromDocument(doc docstore.Document) (Stakeholder, error) {
	participation, err := ParseParticipation(docstore.String(doc.Fields["participation"]))
	if err != nil {
		return Stakeholder{}, err
	}
	return Stakeholder{
		ID:            doc.ID,
		DisplayName:   docstore.String(doc.Fields["display_name"]),
		Email:         docstore.String(doc.Fields["email"]),
		Phone:         docstore.String(doc.Fields["phone"]),
		Organization:  docstore.String(doc.Fields["organization"]),
		Participation: participation,
		EventIDs:      docstore.StringSlice(doc.Fields["event_ids"]),
		PrincipalID:   docstore.String(doc.Fields["principal_id"]),
		CreatedAt:     docstore.Time(doc.Fields["created_at"]),
		UpdatedAt:     docstore.Time(doc.Fields["updated_at"]),
	}, nil
}

func fromDocuments(docs []docstore.Document) ([]Stakeholder, error) {
	out := make([]Stakeholder, 0, len(docs))
	for _, doc := range docs {
		st, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
