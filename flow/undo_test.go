package flow_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook/flow-engine/flow"
)

// =============================================================================
// ADD / UPDATE
// =============================================================================

func TestUndoAdd_RemovesCreatedFlow(t *testing.T) {
	// GIVEN: A flow the client just created
	// WHEN: The add is undone with the created snapshot
	// THEN: The flow is gone; undoing again stays a no-op

	store := newTestStore(t)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	created := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 25)

	op := flow.UndoOperation{Tag: flow.UndoAdd, Flows: []flow.Flow{created}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	got, err := store.GetFlow(ctx, testBook, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Double submit
	require.NoError(t, undo.Undo(ctx, testBook, op))
}

func TestUndoUpdate_RestoresPreviousState(t *testing.T) {
	// GIVEN: A flow updated from 25 to 80
	// WHEN: The update is undone with the pre-update snapshot
	// THEN: The stored flow is 25 again

	store := newTestStore(t)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	before := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 25)

	newMoney := decimal.NewFromInt(80)
	_, err := svc.UpdateFlow(ctx, testBook, before.ID, flow.FlowUpdate{Money: &newMoney})
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoUpdate, Flows: []flow.Flow{before}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	got, err := store.GetFlow(ctx, testBook, before.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Money.Equal(decimal.NewFromInt(25)))

	// Running it twice converges to the same state
	require.NoError(t, undo.Undo(ctx, testBook, op))
	got, err = store.GetFlow(ctx, testBook, before.ID)
	require.NoError(t, err)
	assert.True(t, got.Money.Equal(decimal.NewFromInt(25)))
}

func TestUndoUpdate_GroupedMember_RefreshesSummary(t *testing.T) {
	// GIVEN: A grouped member was updated from 30 to 90
	// WHEN: The update is undone
	// THEN: The group summary reflects the restored 30

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	before, err := store.GetFlow(ctx, testBook, a.ID)
	require.NoError(t, err)

	newMoney := decimal.NewFromInt(90)
	_, err = svc.UpdateFlow(ctx, testBook, a.ID, flow.FlowUpdate{Money: &newMoney})
	require.NoError(t, err)
	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(110)))

	op := flow.UndoOperation{Tag: flow.UndoUpdate, Flows: []flow.Flow{*before}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(50)))
}

func TestUndoBatchUpdate_RestoresEveryRow(t *testing.T) {
	store := newTestStore(t)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 10)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)

	bump := decimal.NewFromInt(999)
	for _, id := range []int64{a.ID, b.ID} {
		_, err := svc.UpdateFlow(ctx, testBook, id, flow.FlowUpdate{Money: &bump})
		require.NoError(t, err)
	}

	moneyA, moneyB := decimal.NewFromInt(10), decimal.NewFromInt(20)
	op := flow.UndoOperation{Tag: flow.UndoBatchUpdate, Patches: []flow.FlowPatch{
		{ID: a.ID, Fields: flow.FlowUpdate{Money: &moneyA}},
		{ID: b.ID, Fields: flow.FlowUpdate{Money: &moneyB}},
	}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	for _, want := range []flow.Flow{a, b} {
		got, err := store.GetFlow(ctx, testBook, want.ID)
		require.NoError(t, err)
		assert.True(t, got.Money.Equal(want.Money))
	}
}

func TestUndoBatchUpdate_SparseRow_LeavesOtherFieldsAlone(t *testing.T) {
	// GIVEN: A flow whose money and name were both changed after the snapshot
	// WHEN: The batch update is undone with a row carrying only the old money
	// THEN: Money is restored while the newer name survives

	store := newTestStore(t)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	f := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 10)

	bump := decimal.NewFromInt(999)
	renamed := "groceries, relabeled"
	_, err := svc.UpdateFlow(ctx, testBook, f.ID, flow.FlowUpdate{Money: &bump, Name: &renamed})
	require.NoError(t, err)

	oldMoney := decimal.NewFromInt(10)
	op := flow.UndoOperation{Tag: flow.UndoBatchUpdate, Patches: []flow.FlowPatch{
		{ID: f.ID, Fields: flow.FlowUpdate{Money: &oldMoney}},
	}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	got, err := store.GetFlow(ctx, testBook, f.ID)
	require.NoError(t, err)
	assert.True(t, got.Money.Equal(oldMoney))
	assert.Equal(t, renamed, got.Name, "fields absent from the row stay untouched")

	// Double submit converges on the same state
	require.NoError(t, undo.Undo(ctx, testBook, op))
	again, err := store.GetFlow(ctx, testBook, f.ID)
	require.NoError(t, err)
	assert.True(t, again.Money.Equal(oldMoney))
}

func TestUndoBatchUpdate_GroupedMember_RefreshesSummary(t *testing.T) {
	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	bump := decimal.NewFromInt(999)
	_, err = svc.UpdateFlow(ctx, testBook, a.ID, flow.FlowUpdate{Money: &bump})
	require.NoError(t, err)
	require.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(1019)))

	oldMoney := decimal.NewFromInt(30)
	op := flow.UndoOperation{Tag: flow.UndoBatchUpdate, Patches: []flow.FlowPatch{
		{ID: a.ID, Fields: flow.FlowUpdate{Money: &oldMoney}},
	}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(50)))
}

// =============================================================================
// DELETE
// =============================================================================

func TestUndoDelete_RecreatesFlows(t *testing.T) {
	// GIVEN: Two deleted flows
	// WHEN: The delete is undone with their snapshots
	// THEN: Both rows exist again with their old ids

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 10)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	_, err := grouping.DeleteBatch(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoDelete, Flows: []flow.Flow{a, b}}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	for _, want := range []flow.Flow{a, b} {
		got, err := store.GetFlow(ctx, testBook, want.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Money.Equal(want.Money))
	}

	// Double submit overwrites with identical values instead of failing
	require.NoError(t, undo.Undo(ctx, testBook, op))
}

func TestUndoDelete_GroupMembers_RestoresSummary(t *testing.T) {
	// GIVEN: A whole group was deleted together with its summary
	// WHEN: The delete is undone with member and summary snapshots
	// THEN: The group and its summary are back

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	summary := mustSummary(t, store, merged.GroupID)
	members, err := store.FlowsByGroup(ctx, testBook, merged.GroupID)
	require.NoError(t, err)

	_, err = grouping.DeleteOne(ctx, testBook, 0, true, merged.GroupID)
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoDelete, Flows: members, Summary: &summary}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	restored, err := store.FlowsByGroup(ctx, testBook, merged.GroupID)
	require.NoError(t, err)
	assert.Len(t, restored, 2)
	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(50)))
}

// =============================================================================
// MERGE / UNMERGE
// =============================================================================

func TestUndoMerge_RestoresIndependenceAndDropsSummary(t *testing.T) {
	// GIVEN: Two flows merged into a group
	// WHEN: The merge is undone with pre-merge snapshots
	// THEN: Both are independent again and the summary is gone

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoMerge, Flows: []flow.Flow{a, b}, GroupID: merged.GroupID}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	for _, id := range []int64{a.ID, b.ID} {
		got, err := store.GetFlow(ctx, testBook, id)
		require.NoError(t, err)
		assert.False(t, got.Grouped())
	}
	sm, err := store.GetSummary(ctx, merged.GroupID)
	require.NoError(t, err)
	assert.Nil(t, sm)

	// Double submit
	require.NoError(t, undo.Undo(ctx, testBook, op))
}

func TestUndoUnmerge_ReattachesMembersAndSummary(t *testing.T) {
	// GIVEN: A dissolved group
	// WHEN: The unmerge is undone with grouped snapshots and the summary
	// THEN: Membership and summary are back as before

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	summary := mustSummary(t, store, merged.GroupID)
	members, err := store.FlowsByGroup(ctx, testBook, merged.GroupID)
	require.NoError(t, err)

	_, err = grouping.Unmerge(ctx, testBook, merged.GroupID, nil)
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoUnmerge, Flows: members, Summary: &summary}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	restored, err := store.FlowsByGroup(ctx, testBook, merged.GroupID)
	require.NoError(t, err)
	assert.Len(t, restored, 2)
	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(50)))
}

func TestUndoUnmerge_WithoutSummarySnapshot_Derives(t *testing.T) {
	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	members, err := store.FlowsByGroup(ctx, testBook, merged.GroupID)
	require.NoError(t, err)

	_, err = grouping.Unmerge(ctx, testBook, merged.GroupID, nil)
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoUnmerge, Flows: members}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	assert.True(t, mustSummary(t, store, merged.GroupID).Money.Equal(decimal.NewFromInt(50)))
}

// =============================================================================
// SUMMARY EDITS AND REJECTIONS
// =============================================================================

func TestUndoUpdateMain_RestoresSummary(t *testing.T) {
	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	svc := flow.NewService(store)
	undo := flow.NewUndoEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-03-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-03-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	before := mustSummary(t, store, merged.GroupID)

	newName := "Renamed"
	_, err = svc.UpdateSummary(ctx, testBook, merged.GroupID, flow.SummaryUpdate{Name: &newName})
	require.NoError(t, err)

	op := flow.UndoOperation{Tag: flow.UndoUpdateMain, Summary: &before}
	require.NoError(t, undo.Undo(ctx, testBook, op))

	assert.Equal(t, before.Name, mustSummary(t, store, merged.GroupID).Name)
}

func TestUndo_UnknownTag_Rejected(t *testing.T) {
	store := newTestStore(t)
	undo := flow.NewUndoEngine(store)

	err := undo.Undo(context.Background(), testBook, flow.UndoOperation{Tag: "rename"})
	assert.ErrorIs(t, err, flow.ErrUnsupported)
	var unsupported *flow.UnsupportedOperationError
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "rename", unsupported.Tag)
}

func TestUndo_SnapshotFromOtherBook_Rejected(t *testing.T) {
	store := newTestStore(t)
	undo := flow.NewUndoEngine(store)

	foreign := flow.Flow{ID: 1, BookID: "other-book", Day: "2026-03-01",
		FlowType: flow.TypeExpense, Money: decimal.NewFromInt(5)}
	err := undo.Undo(context.Background(), testBook,
		flow.UndoOperation{Tag: flow.UndoUpdate, Flows: []flow.Flow{foreign}})
	assert.ErrorIs(t, err, flow.ErrValidation)
}
