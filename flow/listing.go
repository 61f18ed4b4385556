/*
listing.go - Group-aware pagination and aggregation

PURPOSE:
  Turns a filtered set of flows into pages where a merge group occupies a
  single display slot regardless of how many members matched, and into
  income/expense totals that count each group exactly once through its
  summary.

PAGINATION MODEL:
  1. Query and sort the raw flows.
  2. Collapse to a display set: independents stay as-is, the first member
     seen for each group stands in for the whole group.
  3. Page counts and slicing operate on the display set.
  4. The chosen slice is expanded back to every raw member of the groups it
     contains, so one page can carry more rows than its page size.

SEE ALSO:
  - grouping.go: Write-side maintenance of the summaries attached here
  - summary.go: Derivation used for read-side repair
*/
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// ListingEngine serves paginated, group-aware flow listings.
type ListingEngine struct {
	store Store
}

// NewListingEngine creates a listing engine over the given store.
func NewListingEngine(store Store) *ListingEngine {
	return &ListingEngine{store: store}
}

// PageRow is one listed flow, carrying its group's summary when it has one.
type PageRow struct {
	Flow
	GroupSummary *GroupSummary `json:"groupSummary,omitempty"`
}

// PageResult is one page of the listing plus aggregates over the whole
// filtered set.
type PageResult struct {
	// Total counts display slots: each group is one, each independent
	// flow is one.
	Total int64     `json:"total"`
	Pages int64     `json:"pages"`
	Data  []PageRow `json:"data"`

	// Aggregates over the entire filtered set, not just this page. Groups
	// contribute once through their summary.
	TotalIn  decimal.Decimal `json:"totalIn"`
	TotalOut decimal.Decimal `json:"totalOut"`
	NotInOut decimal.Decimal `json:"notInOut"`
}

// Page lists one page of flows for the filter. Grouped flows count as a
// single row toward the page size; the returned page contains every member
// of each group whose representative fell on the page.
func (l *ListingEngine) Page(ctx context.Context, filter Filter, s Sort, page PageSpec) (PageResult, error) {
	if err := filter.Validate(); err != nil {
		return PageResult{}, err
	}
	if err := s.Validate(); err != nil {
		return PageResult{}, err
	}
	page, err := page.Normalize()
	if err != nil {
		return PageResult{}, err
	}

	flows, err := l.store.FindFlows(ctx, filter, s)
	if err != nil {
		return PageResult{}, fmt.Errorf("query flows: %w", err)
	}

	display := collapseToDisplay(flows)

	var pageFlows []Flow
	var pages int64
	if page.PageSize == PageSizeAll {
		pageFlows = flows
		pages = 1
	} else {
		lo := (page.PageNum - 1) * page.PageSize
		hi := lo + page.PageSize
		if lo > len(display) {
			lo = len(display)
		}
		if hi > len(display) {
			hi = len(display)
		}
		pageFlows = expandToMembers(flows, display[lo:hi])
		pages = int64((len(display) + page.PageSize - 1) / page.PageSize)
	}

	summaries := l.loadSummaries(ctx, filter.BookID, flows)

	rows := make([]PageRow, 0, len(pageFlows))
	for _, f := range pageFlows {
		row := PageRow{Flow: f}
		if f.Grouped() {
			if sm, ok := summaries[f.GroupID]; ok {
				row.GroupSummary = &sm
			}
		}
		rows = append(rows, row)
	}

	res := PageResult{
		Total: int64(len(display)),
		Pages: pages,
		Data:  rows,
	}
	res.TotalIn, res.TotalOut, res.NotInOut = totals(flows, summaries)
	return res, nil
}

// collapseToDisplay reduces sorted flows to display slots: the first member
// encountered represents its whole group.
func collapseToDisplay(flows []Flow) []Flow {
	seen := make(map[string]bool)
	display := make([]Flow, 0, len(flows))
	for _, f := range flows {
		if f.Grouped() {
			if seen[f.GroupID] {
				continue
			}
			seen[f.GroupID] = true
		}
		display = append(display, f)
	}
	return display
}

// expandToMembers widens a display slice back to raw rows: every member of a
// represented group is included, in the raw sort order.
func expandToMembers(flows, displaySlice []Flow) []Flow {
	wantGroup := make(map[string]bool)
	wantID := make(map[int64]bool)
	for _, f := range displaySlice {
		if f.Grouped() {
			wantGroup[f.GroupID] = true
		} else {
			wantID[f.ID] = true
		}
	}
	out := make([]Flow, 0, len(displaySlice))
	for _, f := range flows {
		if (f.Grouped() && wantGroup[f.GroupID]) || wantID[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// loadSummaries fetches the summaries for every distinct group in the
// filtered set. Missing summaries are repaired in place when the summary
// store is available; while it is degraded, a substitute is derived from the
// visible members so listings and totals keep working.
func (l *ListingEngine) loadSummaries(ctx context.Context, bookID string, flows []Flow) map[string]GroupSummary {
	groupIDs := distinctGroups(flows)
	out := make(map[string]GroupSummary, len(groupIDs))
	if len(groupIDs) == 0 {
		return out
	}

	if l.store.SummaryAvailable() {
		stored, err := l.store.SummariesByGroupIDs(ctx, bookID, groupIDs)
		if err != nil {
			slog.WarnContext(ctx, "group summary read failed, deriving from members", "error", err)
		}
		for _, s := range stored {
			out[s.GroupID] = s
		}
	}

	for _, gid := range groupIDs {
		if _, ok := out[gid]; ok {
			continue
		}
		members := membersOf(flows, gid)
		derived := DeriveSummary(gid, members)
		out[gid] = derived
		if l.store.SummaryAvailable() {
			// Members exist without a summary: repair the invariant now.
			if err := l.store.UpsertSummary(ctx, derived); err != nil {
				slog.WarnContext(ctx, "group summary repair failed", "group_id", gid, "error", err)
			}
		}
	}
	return out
}

func membersOf(flows []Flow, groupID string) []Flow {
	var out []Flow
	for _, f := range flows {
		if f.GroupID == groupID {
			out = append(out, f)
		}
	}
	return out
}

// totals aggregates the filtered set: independent flows contribute their own
// amount, each group contributes its summary amount exactly once.
func totals(flows []Flow, summaries map[string]GroupSummary) (in, out, notCounted decimal.Decimal) {
	counted := make(map[string]bool)
	add := func(t FlowType, money decimal.Decimal) {
		switch t {
		case TypeIncome:
			in = in.Add(money)
		case TypeExpense:
			out = out.Add(money)
		default:
			notCounted = notCounted.Add(money)
		}
	}

	for _, f := range flows {
		if !f.Grouped() {
			add(f.FlowType, f.Money)
			continue
		}
		if counted[f.GroupID] {
			continue
		}
		counted[f.GroupID] = true
		if s, ok := summaries[f.GroupID]; ok {
			add(s.FlowType, s.Money)
		}
	}
	return in, out, notCounted
}
