package principals

import (
	"errors"
	"time"

	"github.com/tessera-hq/tessera/internal/access"
)

// Account couples the authorization view of a principal with its stored
// credentials and bookkeeping timestamps.
type Account struct {
	access.Principal
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput carries the fields for registering a new account.
type CreateInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"required"`
}

// Errors surfaced by the principals module.
var (
	ErrNotFound   = errors.New("principals: not found")
	ErrEmailTaken = errors.New("principals: email already registered")
	ErrRule       = errors.New("principals: rule violation")
)
