package plans

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/taskcal/pkg/payload"
	"tableflip.dev/taskcal/pkg/planner"
	"tableflip.dev/taskcal/pkg/printers"
	"tableflip.dev/taskcal/pkg/store"
)

func TestListShowRemove(t *testing.T) {
	s, err := store.LoadPlans(store.StaticConfig(t.TempDir(), payload.DefaultConfig()))
	require.NoError(t, err)
	plan := &store.Plan{Name: "focus", Transform: "stack", Overrides: planner.Overrides{"u1": {StartMs: 0, DueMs: 3600000}}}
	require.NoError(t, s.Save(plan))
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, (&List{Plans: s, Result: printers.Result{Out: &out}}).Do(ctx))
	assert.Contains(t, out.String(), plan.ID)
	assert.Contains(t, out.String(), "focus")

	out.Reset()
	require.NoError(t, (&Show{ID: plan.ID, Plans: s, Result: printers.Result{Out: &out, Format: printers.FormatYAML}}).Do(ctx))
	assert.Contains(t, out.String(), "name: focus")
	assert.Contains(t, out.String(), "due_ms: 3600000")

	require.NoError(t, (&Remove{IDs: []string{plan.ID}, Plans: s}).Do(ctx))
	assert.ErrorIs(t, (&Show{ID: plan.ID, Plans: s}).Do(ctx), store.ErrPlanNotFound)
	assert.Error(t, (&List{}).Do(ctx))
}
