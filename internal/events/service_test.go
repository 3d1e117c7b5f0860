package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/lifecycle"
	"github.com/tessera-hq/tessera/internal/notify"
	"github.com/tessera-hq/tessera/internal/shared"
)

type mockRepository struct {
	events map[string]Event

	putError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{events: make(map[string]Event)}
}

func (m *mockRepository) Get(ctx context.Context, id string) (Event, error) {
	event, ok := m.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (m *mockRepository) List(ctx context.Context) ([]Event, error) {
	out := make([]Event, 0, len(m.events))
	for _, event := range m.events {
		out = append(out, event)
	}
	return out, nil
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID string) ([]Event, error) {
	var out []Event
	for _, event := range m.events {
		if event.OwnerID == ownerID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByStatus(ctx context.Context, status lifecycle.Status) ([]Event, error) {
	var out []Event
	for _, event := range m.events {
		if event.Status == status {
			out = append(out, event)
		}
	}
	return out, nil
}

func (m *mockRepository) Put(ctx context.Context, event Event) error {
	if m.putError != nil {
		return m.putError
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	delete(m.events, id)
	return nil
}

func managerPrincipal() *access.Principal {
	return &access.Principal{ID: "mgr-1", Role: access.RoleManager, Active: true}
}

func memberPrincipal(id string) *access.Principal {
	p := &access.Principal{ID: id, Role: access.RoleMember, Active: true}
	p.Grant(access.PermCreateEvent)
	p.Grant(access.PermEditEvent)
	return p
}

func validInput() CreateInput {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return CreateInput{
		Title:       "Quarterly review",
		Description: "Numbers and narratives",
		Start:       start,
		End:         start.Add(2 * time.Hour),
	}
}

func TestCreate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)

	event, err := svc.Create(context.Background(), managerPrincipal(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, lifecycle.StatusDraft, event.Status)
	assert.Equal(t, lifecycle.PriorityMedium, event.Priority)
	assert.Equal(t, "mgr-1", event.OwnerID)
	assert.Contains(t, repo.events, event.ID)
}

func TestCreateRequiresPermission(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil, nil)

	viewer := &access.Principal{ID: "v-1", Role: access.RoleViewer, Active: true}
	_, err := svc.Create(context.Background(), viewer, validInput())
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil, nil)
	ctx := context.Background()
	actor := managerPrincipal()

	short := validInput()
	short.End = short.Start.Add(4 * time.Minute)
	_, err := svc.Create(ctx, actor, short)
	require.ErrorIs(t, err, ErrRule)

	badTitle := validInput()
	badTitle.Title = "ab"
	_, err = svc.Create(ctx, actor, badTitle)
	require.ErrorIs(t, err, ErrRule)

	badLink := validInput()
	badLink.VirtualLink = "gopher://old.example.com"
	_, err = svc.Create(ctx, actor, badLink)
	require.ErrorIs(t, err, ErrRule)

	badPriority := validInput()
	badPriority.Priority = lifecycle.Priority("ludicrous")
	_, err = svc.Create(ctx, actor, badPriority)
	require.ErrorIs(t, err, ErrRule)
}

func TestCreatePublishesChange(t *testing.T) {
	bus := notify.NewBus()
	ch, cancel := bus.Subscribe(4)
	defer cancel()

	svc := NewService(newMockRepository(), nil, bus, nil, nil)
	event, err := svc.Create(context.Background(), managerPrincipal(), validInput())
	require.NoError(t, err)

	select {
	case change := <-ch:
		assert.Equal(t, "event", change.Entity)
		assert.Equal(t, event.ID, change.ID)
		assert.Equal(t, notify.ActionCreated, change.Action)
	default:
		t.Fatal("expected a change notification")
	}
}

func TestUpdateOwnership(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	owner := memberPrincipal("owner-1")
	event, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	update := UpdateInput{
		Title: "Quarterly review (moved)",
		Start: event.Start.Add(time.Hour),
		End:   event.End.Add(time.Hour),
	}

	// The owner edits their own event.
	updated, err := svc.Update(ctx, owner, event.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly review (moved)", updated.Title)

	// Another member, even with the edit permission, may not.
	_, err = svc.Update(ctx, memberPrincipal("other-1"), event.ID, update)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	// A manager may edit anyone's event.
	_, err = svc.Update(ctx, managerPrincipal(), event.ID, update)
	require.NoError(t, err)
}

func TestUpdateRefusesFinishedEvents(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()
	actor := managerPrincipal()

	event, err := svc.Create(ctx, actor, validInput())
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusCompleted)
	require.NoError(t, err)

	_, err = svc.Update(ctx, actor, event.ID, UpdateInput{
		Title: "Too late",
		Start: event.Start,
		End:   event.End,
	})
	require.ErrorIs(t, err, ErrRule)
}

func TestChangeStatusForbiddenTransitions(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()
	actor := managerPrincipal()

	event, err := svc.Create(ctx, actor, validInput())
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusCompleted)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusDraft)
	require.ErrorIs(t, err, ErrRule)

	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusCancelled)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusInProgress)
	require.ErrorIs(t, err, ErrRule)
}

func TestDeleteRequiresManagementRank(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	owner := memberPrincipal("owner-1")
	owner.Grant(access.PermDeleteEvent)
	event, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	// Ownership plus the delete permission is still not enough.
	err = svc.Delete(ctx, owner, event.ID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	err = svc.Delete(ctx, managerPrincipal(), event.ID)
	require.NoError(t, err)
	assert.NotContains(t, repo.events, event.ID)
}

func TestDeleteRefusesLiveEvents(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()
	actor := managerPrincipal()

	event, err := svc.Create(ctx, actor, validInput())
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, actor, event.ID, lifecycle.StatusInProgress)
	require.NoError(t, err)

	err = svc.Delete(ctx, actor, event.ID)
	require.ErrorIs(t, err, ErrRule)
	assert.Contains(t, repo.events, event.ID)
}

func TestListFilters(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil, nil)
	ctx := context.Background()

	owner := memberPrincipal("owner-1")
	first, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, managerPrincipal(), validInput())
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, managerPrincipal(), second.ID, lifecycle.StatusScheduled)
	require.NoError(t, err)

	byOwner, err := svc.List(ctx, managerPrincipal(), ListFilter{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, first.ID, byOwner[0].ID)

	byStatus, err := svc.List(ctx, managerPrincipal(), ListFilter{Status: lifecycle.StatusScheduled})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, second.ID, byStatus[0].ID)

	all, err := svc.List(ctx, managerPrincipal(), ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetUnknownEvent(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), managerPrincipal(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}
