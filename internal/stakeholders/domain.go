package stakeholders

import (
	"errors"
	"fmt"
	"time"
)

// Participation enumerates a stakeholder's reply to their invitation.
type Participation string

const (
	ParticipationInvited   Participation = "invited"
	ParticipationConfirmed Participation = "confirmed"
	ParticipationDeclined  Participation = "declined"
	ParticipationTentative Participation = "tentative"
)

var allParticipations = map[Participation]struct{}{
	ParticipationInvited:   {},
	ParticipationConfirmed: {},
	ParticipationDeclined:  {},
	ParticipationTentative: {},
}

// ParseParticipation maps a store encoding back to a Participation,
// rejecting unknown strings.
func ParseParticipation(s string) (Participation, error) {
	p := Participation(s)
	if _, ok := allParticipations[p]; !ok {
		return "", fmt.Errorf("stakeholders: unknown participation %q", s)
	}
	return p, nil
}

// Stakeholder is a contact that can be assigned to events.
type Stakeholder struct {
	ID            string
	DisplayName   string
	Email         string
	Phone         string
	Organization  string
	Participation Participation
	EventIDs      []string
	PrincipalID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput describes a new stakeholder.
type CreateInput struct {
	DisplayName  string
	Email        string
	Phone        string
	Organization string
}

// UpdateInput carries editable contact fields.
type UpdateInput struct {
	DisplayName  string
	Email        string
	Phone        string
	Organization string
}

var (
	// ErrNotFound indicates the stakeholder does not exist.
	ErrNotFound = errors.New("stakeholders: not found")
	// ErrRule indicates a business-rule violation.
	ErrRule = errors.New("stakeholders: rule violation")
	// ErrAlreadyLinked indicates the stakeholder is already tied to a principal.
	ErrAlreadyLinked = errors.New("stakeholders: principal already linked")
)
