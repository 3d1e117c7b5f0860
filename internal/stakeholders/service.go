package stakeholders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/audit"
	"github.com/tessera-hq/tessera/internal/notify"
	"github.com/tessera-hq/tessera/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (Stakeholder, error)
	List(ctx context.Context) ([]Stakeholder, error)
	ListByEvent(ctx context.Context, eventID string) ([]Stakeholder, error)
	Put(ctx context.Context, st Stakeholder) error
	Delete(ctx context.Context, id string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Inviter enqueues an invitation for asynchronous delivery.
type Inviter interface {
	EnqueueInvite(ctx context.Context, email, displayName string) error
}

// Service coordinates stakeholder operations.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	bus     *notify.Bus
	inviter Inviter
	logger  *slog.Logger
	caser   cases.Caser
	now     func() time.Time
}

// NewService builds Service. Audit, bus and inviter are optional.
func NewService(repo RepositoryPort, auditor AuditPort, bus *notify.Bus, inviter Inviter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		audit:   auditor,
		bus:     bus,
		inviter: inviter,
		logger:  logger,
		caser:   cases.Title(language.Und),
		now:     time.Now,
	}
}

// Create stores a new stakeholder record.
func (s *Service) Create(ctx context.Context, actor *access.Principal, input CreateInput) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionCreateStakeholder) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	name := s.normalizeName(input.DisplayName)
	if err := validateDisplayName(name); err != nil {
		return Stakeholder{}, err
	}

	now := s.now()
	st := Stakeholder{
		ID:            uuid.NewString(),
		DisplayName:   name,
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		Organization:  strings.TrimSpace(input.Organization),
		Participation: ParticipationInvited,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, st); err != nil {
		return Stakeholder{}, err
	}
	s.record(ctx, actor.ID, "stakeholder.create", st.ID, nil)
	s.publish(notify.Change{Entity: "stakeholder", ID: st.ID, Action: notify.ActionCreated})
	return st, nil
}

// Get fetches one stakeholder.
func (s *Service) Get(ctx context.Context, actor *access.Principal, id string) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionViewStakeholder) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	return s.repo.Get(ctx, id)
}

// List returns stakeholders, optionally restricted to one event.
func (s *Service) List(ctx context.Context, actor *access.Principal, eventID string) ([]Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionViewStakeholder) {
		return nil, shared.ErrPermissionDenied
	}
	if eventID != "" {
		return s.repo.ListByEvent(ctx, eventID)
	}
	return s.repo.List(ctx)
}

// Update edits stakeholder contact fields.
func (s *Service) Update(ctx context.Context, actor *access.Principal, id string, input UpdateInput) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionEditStakeholder) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Stakeholder{}, err
	}
	name := s.normalizeName(input.DisplayName)
	if err := validateDisplayName(name); err != nil {
		return Stakeholder{}, err
	}

	st.DisplayName = name
	st.Email = strings.ToLower(strings.TrimSpace(input.Email))
	st.Phone = strings.TrimSpace(input.Phone)
	st.Organization = strings.TrimSpace(input.Organization)
	st.UpdatedAt = s.now()

	if err := s.repo.Put(ctx, st); err != nil {
		return Stakeholder{}, err
	}
	s.record(ctx, actor.ID, "stakeholder.update", st.ID, nil)
	s.publish(notify.Change{Entity: "stakeholder", ID: st.ID, Action: notify.ActionUpdated})
	return st, nil
}

// SetParticipation records the stakeholder's reply.
func (s *Service) SetParticipation(ctx context.Context, actor *access.Principal, id string, participation Participation) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionEditStakeholder) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	if _, err := ParseParticipation(string(participation)); err != nil {
		return Stakeholder{}, fmt.Errorf("%w: unknown participation status", ErrRule)
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Stakeholder{}, err
	}
	st.Participation = participation
	st.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, st); err != nil {
		return Stakeholder{}, err
	}
	s.record(ctx, actor.ID, "stakeholder.participation", st.ID, map[string]any{"participation": string(participation)})
	s.publish(notify.Change{Entity: "stakeholder", ID: st.ID, Action: notify.ActionUpdated})
	return st, nil
}

// Invite sends the stakeholder an invitation to join as a principal.
// Delivery is asynchronous; enqueue failures are non-critical.
func (s *Service) Invite(ctx context.Context, actor *access.Principal, id string) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionInviteStakeholder) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Stakeholder{}, err
	}
	if st.Email == "" {
		return Stakeholder{}, fmt.Errorf("%w: stakeholder has no email address", ErrRule)
	}
	if s.inviter != nil {
		if err := s.inviter.EnqueueInvite(ctx, st.Email, st.DisplayName); err != nil {
			s.logger.Warn("enqueue invite", slog.String("stakeholder", id), slog.Any("error", err))
		}
	}
	s.record(ctx, actor.ID, "stakeholder.invite", st.ID, nil)
	return st, nil
}

// LinkPrincipal ties the stakeholder to an accepted principal account.
// The link is set once and never overwritten.
func (s *Service) LinkPrincipal(ctx context.Context, actor *access.Principal, id, principalID string) (Stakeholder, error) {
	if !access.CanPerform(actor, access.ActionManageUsers) {
		return Stakeholder{}, shared.ErrPermissionDenied
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Stakeholder{}, err
	}
	if st.PrincipalID != "" {
		return Stakeholder{}, ErrAlreadyLinked
	}
	st.PrincipalID = principalID
	st.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, st); err != nil {
		return Stakeholder{}, err
	}
	s.record(ctx, actor.ID, "stakeholder.link", st.ID, map[string]any{"principal_id": principalID})
	return st, nil
}

// Delete removes a stakeholder. A stakeholder still assigned to events
// must be unassigned first so the symmetric link never dangles.
func (s *Service) Delete(ctx context.Context, actor *access.Principal, id string) error {
	if !access.CanPerform(actor, access.ActionDeleteStakeholder) {
		return shared.ErrPermissionDenied
	}
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(st.EventIDs) > 0 {
		return fmt.Errorf("%w: stakeholder is still assigned to events", ErrRule)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor.ID, "stakeholder.delete", id, nil)
	s.publish(notify.Change{Entity: "stakeholder", ID: id, Action: notify.ActionDeleted})
	return nil
}

func validateDisplayName(name string) error {
	if n := len([]rune(name)); n < 2 || n > 200 {
		return fmt.Errorf("%w: display name must be 2 to 200 characters", ErrRule)
	}
	return nil
}

func (s *Service) normalizeName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return s.caser.String(collapsed)
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{ActorID: actorID, Action: action, Entity: "stakeholder", EntityID: entityID, Meta: meta}
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
