package principals

import (
	"context"
	"errors"
	"strings"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/docstore"
)

// Repository persists accounts in the document store.
type Repository struct {
	store docstore.Store
}

// NewRepository builds Repository instance.
func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// Get loads a single account by ID.
func (r *Repository) Get(ctx context.Context, id string) (Account, error) {
	doc, err := r.store.GetByID(ctx, docstore.CollectionPrincipals, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return fromDocument(doc)
}

// List returns every stored account.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	docs, err := r.store.List(ctx, docstore.CollectionPrincipals)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(docs))
	for _, doc := range docs {
		acc, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, nil
}

// FindByEmail locates the account registered under an email address.
// Emails are stored lowercased.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	docs, err := r.store.Query(ctx, docstore.CollectionPrincipals, "email", docstore.OpEqual, strings.ToLower(email))
	if err != nil {
		return Account{}, err
	}
	if len(docs) == 0 {
		return Account{}, ErrNotFound
	}
	return fromDocument(docs[0])
}

// Put writes the full account document.
func (r *Repository) Put(ctx context.Context, acc Account) error {
	return r.store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpSet,
		Collection: docstore.CollectionPrincipals,
		ID:         acc.ID,
		Fields:     toFields(acc),
	}})
}

func toFields(acc Account) map[string]any {
	return map[string]any{
		"email":          acc.Email,
		"role":           acc.Role.String(),
		"permissions":    acc.PermissionList(),
		"active":         acc.Active,
		"stakeholder_id": acc.StakeholderID,
		"password_hash":  acc.PasswordHash,
		"created_at":     docstore.EncodeTime(acc.CreatedAt),
		"updated_at":     docstore.EncodeTime(acc.UpdatedAt),
	}
}

func fromDocument(doc docstore.Document) (Account, error) {
	role, err := access.ParseRole(docstore.String(doc.Fields["role"]))
	if err != nil {
		return Account{}, err
	}
	acc := Account{
		Principal: access.Principal{
			ID:            doc.ID,
			Email:         docstore.String(doc.Fields["email"]),
			Role:          role,
			Active:        docstore.Bool(doc.Fields["active"]),
			StakeholderID: docstore.String(doc.Fields["stakeholder_id"]),
		},
		PasswordHash: docstore.String(doc.Fields["password_hash"]),
		CreatedAt:    docstore.Time(doc.Fields["created_at"]),
		UpdatedAt:    docstore.Time(doc.Fields["updated_at"]),
	}
	for _, tag := range docstore.StringSlice(doc.Fields["permissions"]) {
		perm, err := access.ParsePermission(tag)
		if err != nil {
			return Account{}, err
		}
		acc.Grant(perm)
	}
	return acc, nil
}
