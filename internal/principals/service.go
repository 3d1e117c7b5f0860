package principals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	Put(ctx context.Context, acc Account) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service handles account administration. Mutations are gated on the
// user-management action; accounts are deactivated, never deleted.
type Service struct {
	repo    RepositoryPort
	cache   *Cache
	audit   AuditPort
	logger  *slog.Logger
	resolve singleflight.Group
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache *Cache, auditor AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: auditor, logger: logger, now: time.Now}
}

// ResolvePrincipal loads the authorization view behind a session user
// ID. Concurrent resolutions for the same ID collapse into one store
// read; results are cached in Redis until the next mutation.
func (s *Service) ResolvePrincipal(ctx context.Context, id string) (*access.Principal, error) {
	val, err, _ := s.resolve.Do(id, func() (any, error) {
		return s.cache.Fetch(ctx, id, func(ctx context.Context) (Account, error) {
			return s.repo.Get(ctx, id)
		})
	})
	if err != nil {
		return nil, err
	}
	acc := val.(Account)
	principal := acc.Principal
	return &principal, nil
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, actor *access.Principal, in CreateInput) (Account, error) {
	if !access.CanPerform(actor, access.ActionManageUsers) {
		return Account{}, shared.ErrPermissionDenied
	}
	role, err := access.ParseRole(in.Role)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrRule, err)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return Account{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	now := s.now().UTC()
	acc := Account{
		Principal: access.Principal{
			ID:     uuid.NewString(),
			Email:  email,
			Role:   role,
			Active: true,
		},
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, acc); err != nil {
		return Account{}, err
	}
	s.record(ctx, actor, "principal.create", acc.ID, map[string]any{"role": role.String()})
	return acc, nil
}

// Get loads a single account.
func (s *Service) Get(ctx context.Context, actor *access.Principal, id string) (Account, error) {
	if !access.CanPerform(actor, access.ActionManageUsers) {
		return Account{}, shared.ErrPermissionDenied
	}
	return s.repo.Get(ctx, id)
}

// List returns every account.
func (s *Service) List(ctx context.Context, actor *access.Principal) ([]Account, error) {
	if !access.CanPerform(actor, access.ActionManageUsers) {
		return nil, shared.ErrPermissionDenied
	}
	return s.repo.List(ctx)
}

// SetRole changes the account's rank.
func (s *Service) SetRole(ctx context.Context, actor *access.Principal, id, roleName string) (Account, error) {
	role, err := access.ParseRole(roleName)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrRule, err)
	}
	return s.mutate(ctx, actor, id, "principal.set_role", map[string]any{"role": role.String()}, func(acc *Account) error {
		acc.Role = role
		return nil
	})
}

// Grant adds a permission tag to the account.
func (s *Service) Grant(ctx context.Context, actor *access.Principal, id, tag string) (Account, error) {
	perm, err := access.ParsePermission(tag)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrRule, err)
	}
	return s.mutate(ctx, actor, id, "principal.grant", map[string]any{"permission": tag}, func(acc *Account) error {
		acc.Grant(perm)
		return nil
	})
}

// Revoke removes a permission tag from the account.
func (s *Service) Revoke(ctx context.Context, actor *access.Principal, id, tag string) (Account, error) {
	perm, err := access.ParsePermission(tag)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrRule, err)
	}
	return s.mutate(ctx, actor, id, "principal.revoke", map[string]any{"permission": tag}, func(acc *Account) error {
		acc.Revoke(perm)
		return nil
	})
}

// Deactivate disables the account. Deactivated principals fail every
// access check but their history stays intact.
func (s *Service) Deactivate(ctx context.Context, actor *access.Principal, id string) (Account, error) {
	return s.mutate(ctx, actor, id, "principal.deactivate", nil, func(acc *Account) error {
		acc.Active = false
		return nil
	})
}

// LinkStakeholder records the stakeholder profile attached to the
// account. The link is set once.
func (s *Service) LinkStakeholder(ctx context.Context, actor *access.Principal, id, stakeholderID string) (Account, error) {
	return s.mutate(ctx, actor, id, "principal.link_stakeholder", map[string]any{"stakeholder_id": stakeholderID}, func(acc *Account) error {
		if acc.StakeholderID != "" && acc.StakeholderID != stakeholderID {
			return fmt.Errorf("%w: account already linked to a stakeholder", ErrRule)
		}
		acc.StakeholderID = stakeholderID
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, actor *access.Principal, id, action string, meta map[string]any, apply func(*Account) error) (Account, error) {
	if !access.CanPerform(actor, access.ActionManageUsers) {
		return Account{}, shared.ErrPermissionDenied
	}
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if err := apply(&acc); err != nil {
		return Account{}, err
	}
	acc.UpdatedAt = s.now().UTC()
	if err := s.repo.Put(ctx, acc); err != nil {
		return Account{}, err
	}
	s.cache.Invalidate(ctx, id)
	s.record(ctx, actor, action, id, meta)
	return acc, nil
}

func (s *Service) record(ctx context.Context, actor *access.Principal, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	entry := audit.Entry{ActorID: actorID, Action: action, Entity: "principal", EntityID: entityID, Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit append failed", slog.String("action", action), slog.Any("error", err))
	}
}
