package stakeholders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/shared"
)

type mockRepository struct {
	stakeholders map[string]Stakeholder
}

func newMockRepository() *mockRepository {
	return &mockRepository{stakeholders: make(map[string]Stakeholder)}
}

func (m *mockRepository) Get(ctx context.Context, id string) (Stakeholder, error) {
	st, ok := m.stakeholders[id]
	if !ok {
		return Stakeholder{}, ErrNotFound
	}
	return st, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Stakeholder, error) {
	out := make([]Stakeholder, 0, len(m.stakeholders))
	for _, st := range m.stakeholders {
		out = append(out, st)
	}
	return out, nil
}

func (m *mockRepository) ListByEvent(ctx context.Context, eventID string) ([]Stakeholder, error) {
	var out []Stakeholder
	for _, st := range m.stakeholders {
		for _, id := range st.EventIDs {
			if id == eventID {
				out = append(out, st)
				break
			}
		}
	}
	return out, nil
}

func (m *mockRepository) Put(ctx context.Context, st Stakeholder) error {
	m.stakeholders[st.ID] = st
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	delete(m.stakeholders, id)
	return nil
}

type stubInviter struct {
	invites []string
	err     error
}

func (s *stubInviter) EnqueueInvite(ctx context.Context, email, displayName string) error {
	if s.err != nil {
		return s.err
	}
	s.invites = append(s.invites, email)
	return nil
}

func managerActor() *access.Principal {
	return &access.Principal{ID: "mgr-1", Role: access.RoleManager, Active: true}
}

func memberActor() *access.Principal {
	return &access.Principal{ID: "mem-1", Role: access.RoleMember, Active: true}
}

func TestCreateNormalizesFields(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)

	st, err := svc.Create(context.Background(), managerActor(), CreateInput{
		DisplayName:  "  ada   lovelace ",
		Email:        " Ada@Example.COM ",
		Organization: " Analytical Engines ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", st.DisplayName)
	assert.Equal(t, "ada@example.com", st.Email)
	assert.Equal(t, "Analytical Engines", st.Organization)
	assert.Equal(t, ParticipationInvited, st.Participation)
	assert.Contains(t, repo.stakeholders, st.ID)
}

func TestCreateRejectsShortName(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), managerActor(), CreateInput{DisplayName: "A"})
	require.ErrorIs(t, err, ErrRule)
}

func TestCreateRequiresPermission(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil, nil)

	viewer := &access.Principal{ID: "v-1", Role: access.RoleViewer, Active: true}
	_, err := svc.Create(context.Background(), viewer, CreateInput{DisplayName: "Ada Lovelace"})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestSetParticipation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)

	updated, err := svc.SetParticipation(ctx, managerActor(), st.ID, ParticipationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, ParticipationConfirmed, updated.Participation)

	_, err = svc.SetParticipation(ctx, managerActor(), st.ID, Participation("maybe"))
	require.ErrorIs(t, err, ErrRule)
}

func TestInvite(t *testing.T) {
	repo := newMockRepository()
	inviter := &stubInviter{}
	svc := NewService(repo, nil, nil, inviter, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{
		DisplayName: "Ada Lovelace",
		Email:       "ada@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Invite(ctx, managerActor(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, inviter.invites)
}

func TestInviteWithoutEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, &stubInviter{}, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)

	_, err = svc.Invite(ctx, managerActor(), st.ID)
	require.ErrorIs(t, err, ErrRule)
}

func TestInviteEnqueueFailureIsNonCritical(t *testing.T) {
	repo := newMockRepository()
	inviter := &stubInviter{err: errors.New("queue down")}
	svc := NewService(repo, nil, nil, inviter, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{
		DisplayName: "Ada Lovelace",
		Email:       "ada@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Invite(ctx, managerActor(), st.ID)
	require.NoError(t, err)
}

func TestLinkPrincipalSetOnce(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)

	linked, err := svc.LinkPrincipal(ctx, managerActor(), st.ID, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", linked.PrincipalID)

	_, err = svc.LinkPrincipal(ctx, managerActor(), st.ID, "p-2")
	require.ErrorIs(t, err, ErrAlreadyLinked)

	// Members need the user-management permission to link accounts.
	_, err = svc.LinkPrincipal(ctx, memberActor(), st.ID, "p-3")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestDeleteRefusedWhileAssigned(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	st, err := svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)

	st.EventIDs = []string{"e-1"}
	require.NoError(t, repo.Put(ctx, st))

	err = svc.Delete(ctx, managerActor(), st.ID)
	require.ErrorIs(t, err, ErrRule)
	assert.Contains(t, repo.stakeholders, st.ID)

	st.EventIDs = nil
	require.NoError(t, repo.Put(ctx, st))
	require.NoError(t, svc.Delete(ctx, managerActor(), st.ID))
	assert.NotContains(t, repo.stakeholders, st.ID)
}

func TestListByEvent(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Ada Lovelace"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, managerActor(), CreateInput{DisplayName: "Charles Babbage"})
	require.NoError(t, err)

	first.EventIDs = []string{"e-1"}
	require.NoError(t, repo.Put(ctx, first))

	listed, err := svc.List(ctx, managerActor(), "e-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first.ID, listed[0].ID)

	all, err := svc.List(ctx, managerActor(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
