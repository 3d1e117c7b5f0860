package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tessera-hq/tessera/internal/principals"
	"github.com/tessera-hq/tessera/internal/shared"
)

// Accounts exposes the credential lookup needed for login.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (principals.Account, error)
}

// SessionRepo persists session metadata in postgres for auditing and
// revocation. A nil repo skips the bookkeeping.
type SessionRepo interface {
	CreateSession(ctx context.Context, id, principalID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	accounts Accounts
	sessions SessionRepo
}

// NewService constructs a new Service.
func NewService(accounts Accounts, sessions SessionRepo) *Service {
	return &Service{accounts: accounts, sessions: sessions}
}

// Authenticate validates email/password credentials. Deactivated
// accounts are rejected the same way as bad credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (principals.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, principals.ErrNotFound) {
			return principals.Account{}, shared.ErrInvalidCredentials
		}
		return principals.Account{}, err
	}
	if !acc.Active {
		return principals.Account{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return principals.Account{}, shared.ErrInvalidCredentials
	}
	return acc, nil
}

// RegisterSession persists the session metadata.
func (s *Service) RegisterSession(ctx context.Context, id, principalID string, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.CreateSession(ctx, id, principalID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.DeleteSession(ctx, id)
}
