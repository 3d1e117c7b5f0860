package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/docstore"
	"github.com/tessera-hq/tessera/internal/docstore/memory"
	"github.com/tessera-hq/tessera/internal/events"
	"github.com/tessera-hq/tessera/internal/shared"
	"github.com/tessera-hq/tessera/internal/stakeholders"
)

func manager() *access.Principal {
	return &access.Principal{ID: "actor-1", Role: access.RoleManager, Active: true}
}

func seed(t *testing.T, store docstore.Store) {
	t.Helper()
	now := docstore.EncodeTime(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.BatchWrite(context.Background(), []docstore.Op{
		{Kind: docstore.OpSet, Collection: docstore.CollectionEvents, ID: "e-1", Fields: map[string]any{
			"title": "Kickoff", "status": "draft", "stakeholder_ids": []string{},
			"created_at": now, "updated_at": now,
		}},
		{Kind: docstore.OpSet, Collection: docstore.CollectionStakeholders, ID: "s-1", Fields: map[string]any{
			"display_name": "Ada Example", "email": "ada@example.com",
			"participation": "invited", "event_ids": []string{},
			"created_at": now, "updated_at": now,
		}},
	}))
}

func TestAssignWritesBothSidesAndJunction(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	st, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e-1"}, st.EventIDs)

	eventDoc, err := store.GetByID(ctx, docstore.CollectionEvents, "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, docstore.StringSlice(eventDoc.Fields["stakeholder_ids"]))

	stDoc, err := store.GetByID(ctx, docstore.CollectionStakeholders, "s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e-1"}, docstore.StringSlice(stDoc.Fields["event_ids"]))

	linkDoc, err := store.GetByID(ctx, docstore.CollectionLinks, LinkID("e-1", "s-1"))
	require.NoError(t, err)
	assert.Equal(t, "e-1", docstore.String(linkDoc.Fields["event_id"]))
	assert.Equal(t, "s-1", docstore.String(linkDoc.Fields["stakeholder_id"]))
}

func TestAssignIsIdempotent(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)
	second, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)
	assert.Equal(t, first.EventIDs, second.EventIDs)

	eventDoc, err := store.GetByID(ctx, docstore.CollectionEvents, "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, docstore.StringSlice(eventDoc.Fields["stakeholder_ids"]))
}

func TestAssignUnknownTargets(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, manager(), "s-404", "e-1")
	require.ErrorIs(t, err, stakeholders.ErrNotFound)

	_, err = svc.Assign(ctx, manager(), "s-1", "e-404")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestAssignRequiresPermission(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)

	member := &access.Principal{ID: "m-1", Role: access.RoleMember, Active: true}
	_, err := svc.Assign(context.Background(), member, "s-1", "e-1")
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestUnassignRoundTrip(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)

	st, err := svc.Unassign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)
	assert.Empty(t, st.EventIDs)

	eventDoc, err := store.GetByID(ctx, docstore.CollectionEvents, "e-1")
	require.NoError(t, err)
	assert.Empty(t, docstore.StringSlice(eventDoc.Fields["stakeholder_ids"]))

	_, err = store.GetByID(ctx, docstore.CollectionLinks, LinkID("e-1", "s-1"))
	require.ErrorIs(t, err, docstore.ErrNotFound)

	violations, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestUnassignAbsentLinkIsNoOp(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)

	st, err := svc.Unassign(context.Background(), manager(), "s-1", "e-1")
	require.NoError(t, err)
	assert.Empty(t, st.EventIDs)
}

// failingStore aborts every batch, simulating a backend outage.
type failingStore struct {
	docstore.Store
}

var errBackend = errors.New("backend unavailable")

func (f failingStore) BatchWrite(ctx context.Context, ops []docstore.Op) error {
	return errBackend
}

func TestAssignFailureLeavesNoPartialState(t *testing.T) {
	inner := memory.New()
	seed(t, inner)
	ctx := context.Background()

	svc := NewService(failingStore{Store: inner}, nil, nil, nil)
	_, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.ErrorIs(t, err, errBackend)

	eventDoc, err := inner.GetByID(ctx, docstore.CollectionEvents, "e-1")
	require.NoError(t, err)
	assert.Empty(t, docstore.StringSlice(eventDoc.Fields["stakeholder_ids"]))

	stDoc, err := inner.GetByID(ctx, docstore.CollectionStakeholders, "s-1")
	require.NoError(t, err)
	assert.Empty(t, docstore.StringSlice(stDoc.Fields["event_ids"]))

	_, err = inner.GetByID(ctx, docstore.CollectionLinks, LinkID("e-1", "s-1"))
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestLinksListsJunctionRecords(t *testing.T) {
	store := memory.New()
	seed(t, store)
	svc := NewService(store, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Assign(ctx, manager(), "s-1", "e-1")
	require.NoError(t, err)

	links, err := svc.Links(ctx, manager(), "e-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "e-1", links[0].EventID)
	assert.Equal(t, "s-1", links[0].StakeholderID)
	assert.False(t, links[0].AssignedAt.IsZero())
}

func TestSweepFlagsAsymmetry(t *testing.T) {
	store := memory.New()
	seed(t, store)
	ctx := context.Background()

	// Write only one side, bypassing Assign.
	require.NoError(t, store.BatchWrite(ctx, []docstore.Op{{
		Kind:       docstore.OpUpdate,
		Collection: docstore.CollectionEvents,
		ID:         "e-1",
		Fields:     map[string]any{"stakeholder_ids": docstore.ArrayUnion{Values: []string{"s-1"}}},
	}}))

	svc := NewService(store, nil, nil, nil)
	violations, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, violations)

	// The broken half-link is flagged but never repaired.
	eventDoc, err := store.GetByID(ctx, docstore.CollectionEvents, "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, docstore.StringSlice(eventDoc.Fields["stakeholder_ids"]))
}
