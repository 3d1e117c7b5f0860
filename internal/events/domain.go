package events

import (
	"errors"
	"time"

	"github.com/tessera-hq/tessera/internal/lifecycle"
)

// Event is a scheduled item that stakeholders are assigned to.
type Event struct {
	ID             string
	Title          string
	Description    string
	LocationName   string
	VirtualLink    string
	Start          time.Time
	End            time.Time
	Status         lifecycle.Status
	Priority       lifecycle.Priority
	OwnerID        string
	StakeholderIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateInput describes a new event.
type CreateInput struct {
	Title          string
	Description    string
	LocationName   string
	VirtualLink    string
	Start          time.Time
	End            time.Time
	Priority       lifecycle.Priority
	IdempotencyKey string
}

// UpdateInput carries editable fields. Status changes go through
// ChangeStatus instead.
type UpdateInput struct {
	Title        string
	Description  string
	LocationName string
	VirtualLink  string
	Start        time.Time
	End          time.Time
	Priority     lifecycle.Priority
}

// ErrNotFound indicates the event does not exist.
var ErrNotFound = errors.New("events: not found")

// ErrRule indicates a business-rule violation. The wrapped message is
// safe to show to the end user.
var ErrRule = errors.New("events: rule violation")
