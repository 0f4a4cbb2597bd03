package hooks_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/labelcase/internal/hooks"
)

func TestRegistry_ApplyLabelPrePersist_ChainsInOrder(t *testing.T) {
	reg := hooks.New()
	reg.OnLabelPrePersist(func(_ context.Context, p any) any { return p.(string) + "-a" })
	reg.OnLabelPrePersist(func(_ context.Context, p any) any { return p.(string) + "-b" })

	got := reg.ApplyLabelPrePersist(context.Background(), "x")

	assert.Equal(t, "x-a-b", got)
}

func TestRegistry_ApplyLabelPrePersist_NoFilters(t *testing.T) {
	reg := hooks.New()
	assert.Equal(t, "Red", reg.ApplyLabelPrePersist(context.Background(), "Red"))
}

func TestRegistry_FireLabelEvents(t *testing.T) {
	reg := hooks.New()
	var created, updated []int64
	reg.OnLabelCreated(func(_ context.Context, id int64) { created = append(created, id) })
	reg.OnLabelUpdated(func(_ context.Context, id int64) { updated = append(updated, id) })

	reg.FireLabelCreated(context.Background(), 1)
	reg.FireLabelUpdated(context.Background(), 2)
	reg.FireLabelUpdated(context.Background(), 3)

	assert.Equal(t, []int64{1}, created)
	assert.Equal(t, []int64{2, 3}, updated)
}

// TestRegistry_ListenerMayRegisterAndFire verifies that a listener can call
// back into the registry without deadlocking, which is what a corrective
// write inside an update hook does.
func TestRegistry_ListenerMayRegisterAndFire(t *testing.T) {
	reg := hooks.New()
	depth := 0
	reg.OnLabelUpdated(func(ctx context.Context, id int64) {
		depth++
		if depth < 3 {
			reg.FireLabelUpdated(ctx, id)
		}
	})

	reg.FireLabelUpdated(context.Background(), 9)

	assert.Equal(t, 3, depth)
}

func TestRegistry_FireItemSaved(t *testing.T) {
	reg := hooks.New()
	id := uuid.New()
	var got uuid.UUID
	reg.OnItemSaved(func(_ context.Context, itemID uuid.UUID) { got = itemID })

	reg.FireItemSaved(context.Background(), id)

	assert.Equal(t, id, got)
}

func TestRegistry_ApplyFormField(t *testing.T) {
	reg := hooks.New()
	reg.OnFormField(func(field, value string) string {
		if field == "name" {
			return strings.ToLower(value)
		}
		return value
	})

	assert.Equal(t, "red", reg.ApplyFormField("name", "RED"))
	assert.Equal(t, "RED", reg.ApplyFormField("description", "RED"))
}

// ---- bulk actions ------------------------------------------------------------

func TestRegistry_RegisterBulkAction(t *testing.T) {
	reg := hooks.New()
	run := func(_ context.Context, ids []int64) (int, error) { return len(ids), nil }

	require.NoError(t, reg.RegisterBulkAction(hooks.BulkAction{Name: "b", Title: "B", Run: run}))
	require.NoError(t, reg.RegisterBulkAction(hooks.BulkAction{Name: "a", Title: "A", Run: run}))

	actions := reg.BulkActions()
	require.Len(t, actions, 2)
	assert.Equal(t, "b", actions[0].Name, "registration order is preserved")
	assert.Equal(t, "a", actions[1].Name)

	a, ok := reg.BulkAction("a")
	require.True(t, ok)
	n, err := a.Run(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok = reg.BulkAction("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterBulkAction_Duplicate(t *testing.T) {
	reg := hooks.New()
	run := func(_ context.Context, _ []int64) (int, error) { return 0, nil }

	require.NoError(t, reg.RegisterBulkAction(hooks.BulkAction{Name: "x", Run: run}))
	err := reg.RegisterBulkAction(hooks.BulkAction{Name: "x", Run: run})

	assert.ErrorIs(t, err, hooks.ErrDuplicateBulkAction)
}

func TestRegistry_RegisterBulkAction_Invalid(t *testing.T) {
	reg := hooks.New()
	assert.Error(t, reg.RegisterBulkAction(hooks.BulkAction{Name: "x"}))
	assert.Error(t, reg.RegisterBulkAction(hooks.BulkAction{Run: func(context.Context, []int64) (int, error) { return 0, nil }}))
}
