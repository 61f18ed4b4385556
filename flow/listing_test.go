package flow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook/flow-engine/flow"
)

// =============================================================================
// PAGINATION
// =============================================================================

func TestPage_GroupOccupiesOneSlot(t *testing.T) {
	// GIVEN: A group of three flows and two independents, page size 3
	// WHEN: The first page is listed
	// THEN: The display total is 3 (group + 2) on a single page, and the
	//       page carries all 5 raw rows

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 10)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	c := seedFlow(t, store, "2026-02-03", flow.TypeExpense, 30)
	_, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID, c.ID})
	require.NoError(t, err)

	seedFlow(t, store, "2026-02-04", flow.TypeIncome, 100)
	seedFlow(t, store, "2026-02-05", flow.TypeExpense, 5)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{PageNum: 1, PageSize: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, int64(1), res.Pages)
	assert.Len(t, res.Data, 5, "the page should expand the group back to its members")
}

func TestPage_SecondPage_ContainsRemainingSlots(t *testing.T) {
	// GIVEN: 4 independent flows, page size 3
	// WHEN: Page 2 is listed
	// THEN: It holds the single remaining flow and pages is 2

	store := newTestStore(t)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedFlow(t, store, fmt.Sprintf("2026-02-0%d", i+1), flow.TypeExpense, int64(10*(i+1)))
	}

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{PageNum: 2, PageSize: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.Total)
	assert.Equal(t, int64(2), res.Pages)
	assert.Len(t, res.Data, 1)
}

func TestPage_PageSizeAll_ReturnsEveryRawRow(t *testing.T) {
	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 10)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	_, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)
	seedFlow(t, store, "2026-02-03", flow.TypeIncome, 100)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{PageNum: 1, PageSize: flow.PageSizeAll})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Pages)
	assert.Len(t, res.Data, 3)
}

func TestPage_GroupedRowsCarrySummary(t *testing.T) {
	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 10)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	res0, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)

	for _, row := range res.Data {
		require.NotNil(t, row.GroupSummary, "grouped row must carry its summary")
		assert.Equal(t, res0.GroupID, row.GroupSummary.GroupID)
		assert.True(t, row.GroupSummary.Money.Equal(decimal.NewFromInt(30)))
	}
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestPage_TotalsCountGroupOnce(t *testing.T) {
	// GIVEN: A merged pair of expenses (30+20) and an independent income 100
	// WHEN: The listing is aggregated
	// THEN: TotalOut is the group's 50 once, not 50 twice

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	_, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	seedFlow(t, store, "2026-02-03", flow.TypeIncome, 100)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)

	assert.True(t, res.TotalIn.Equal(decimal.NewFromInt(100)), "totalIn = %s", res.TotalIn)
	assert.True(t, res.TotalOut.Equal(decimal.NewFromInt(50)), "totalOut = %s", res.TotalOut)
	assert.True(t, res.NotInOut.IsZero())
}

func TestPage_TotalsUseSummaryDirection(t *testing.T) {
	// GIVEN: A group netting to an income of 70 (100 in, 30 out)
	// WHEN: The listing is aggregated
	// THEN: The whole group contributes 70 to TotalIn and nothing to TotalOut

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeIncome, 100)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 30)
	_, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)

	assert.True(t, res.TotalIn.Equal(decimal.NewFromInt(70)))
	assert.True(t, res.TotalOut.IsZero())
}

func TestPage_NotCountedFlowsExcludedFromInOut(t *testing.T) {
	store := newTestStore(t)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	seedFlow(t, store, "2026-02-01", flow.TypeNotCounted, 500)
	seedFlow(t, store, "2026-02-02", flow.TypeIncome, 100)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)

	assert.True(t, res.TotalIn.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.TotalOut.IsZero())
	assert.True(t, res.NotInOut.Equal(decimal.NewFromInt(500)))
}

// =============================================================================
// INVARIANT REPAIR AND DEGRADATION
// =============================================================================

func TestPage_MissingSummary_RepairedOnRead(t *testing.T) {
	// GIVEN: A group whose summary row was lost
	// WHEN: The listing runs
	// THEN: The summary is re-derived, persisted and attached

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	merged, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)
	require.NoError(t, store.DeleteSummary(ctx, merged.GroupID))

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Data)
	require.NotNil(t, res.Data[0].GroupSummary)
	assert.True(t, res.Data[0].GroupSummary.Money.Equal(decimal.NewFromInt(50)))

	repaired, err := store.GetSummary(ctx, merged.GroupID)
	require.NoError(t, err)
	require.NotNil(t, repaired, "repair must persist the summary")
	assert.True(t, repaired.Money.Equal(decimal.NewFromInt(50)))
}

func TestPage_DegradedSummaryStore_DerivesSubstitute(t *testing.T) {
	// GIVEN: A merged group, then the summary store goes away
	// WHEN: The listing runs
	// THEN: Rows and totals are served from a derived substitute

	store := newTestStore(t)
	grouping := flow.NewGroupingEngine(store)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	a := seedFlow(t, store, "2026-02-01", flow.TypeExpense, 30)
	b := seedFlow(t, store, "2026-02-02", flow.TypeExpense, 20)
	_, err := grouping.Merge(ctx, testBook, []int64{a.ID, b.ID})
	require.NoError(t, err)

	store.SetSummaryAvailable(false)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Data)
	require.NotNil(t, res.Data[0].GroupSummary)
	assert.True(t, res.TotalOut.Equal(decimal.NewFromInt(50)))
}

// =============================================================================
// FILTERS AND SORTING
// =============================================================================

func TestPage_DayRangeFilter(t *testing.T) {
	store := newTestStore(t)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	seedFlow(t, store, "2026-01-15", flow.TypeExpense, 10)
	seedFlow(t, store, "2026-02-15", flow.TypeExpense, 20)
	seedFlow(t, store, "2026-03-15", flow.TypeExpense, 30)

	res, err := listing.Page(ctx, flow.Filter{
		BookID:   testBook,
		StartDay: "2026-02-01",
		EndDay:   "2026-02-28",
	}, flow.Sort{}, flow.PageSpec{})
	require.NoError(t, err)

	require.Len(t, res.Data, 1)
	assert.Equal(t, "2026-02-15", res.Data[0].Day)
}

func TestPage_MoneySortAscending(t *testing.T) {
	store := newTestStore(t)
	listing := flow.NewListingEngine(store)
	ctx := context.Background()

	seedFlow(t, store, "2026-02-01", flow.TypeExpense, 30)
	seedFlow(t, store, "2026-02-02", flow.TypeExpense, 10)
	seedFlow(t, store, "2026-02-03", flow.TypeExpense, 20)

	res, err := listing.Page(ctx, flow.Filter{BookID: testBook},
		flow.Sort{MoneySort: flow.SortAsc}, flow.PageSpec{})
	require.NoError(t, err)

	require.Len(t, res.Data, 3)
	assert.True(t, res.Data[0].Money.Equal(decimal.NewFromInt(10)))
	assert.True(t, res.Data[2].Money.Equal(decimal.NewFromInt(30)))
}

func TestPage_MissingBook_Rejected(t *testing.T) {
	store := newTestStore(t)
	listing := flow.NewListingEngine(store)

	_, err := listing.Page(context.Background(), flow.Filter{}, flow.Sort{}, flow.PageSpec{})
	assert.ErrorIs(t, err, flow.ErrValidation)
}
