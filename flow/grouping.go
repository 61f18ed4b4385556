/*
grouping.go - Merge, unmerge and group-aware delete

PURPOSE:
  Implements the grouping rules over the Store:

  - A flow belongs to at most one merge group.
  - A group's summary exists iff the group currently has at least one member.
  - Flows are authoritative: when the summary store is degraded, summary
    writes are logged and skipped while the flow mutation still succeeds.

INVARIANT REPAIR:
  Crashes between the flow write and the summary write can leave a group with
  members but no summary, or a summary with no members. Repair happens
  opportunistically whenever a group is next read or mutated; stores with
  transactional support additionally wrap each two-step mutation in WithTx to
  shrink the window.

SEE ALSO:
  - summary.go: Pure derivation of a summary from members
  - listing.go: Read-side repair while attaching summaries
  - undo.go: Compensating actions for these mutations
*/
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// GroupingEngine enforces group membership and summary lifecycle rules.
type GroupingEngine struct {
	store Store
}

// NewGroupingEngine creates a grouping engine over the given store.
func NewGroupingEngine(store Store) *GroupingEngine {
	return &GroupingEngine{store: store}
}

// MergeResult reports the group created by a merge.
type MergeResult struct {
	GroupID string `json:"groupId"`
	Count   int64  `json:"count"`
}

// DeleteResult reports what a single delete removed.
type DeleteResult struct {
	Flow         *Flow `json:"flow,omitempty"`
	GroupDeleted bool  `json:"groupDeleted"`
	Count        int64 `json:"count"`
}

// =============================================================================
// MERGE
// =============================================================================

// Merge links the given flows into a fresh group and creates its derived
// summary. Flows already belonging to any group are rejected: re-merging the
// same set fails with "already merged" rather than silently repeating.
func (g *GroupingEngine) Merge(ctx context.Context, bookID string, ids []int64) (MergeResult, error) {
	if bookID == "" {
		return MergeResult{}, Validation("book id is required")
	}
	if len(ids) < 2 {
		return MergeResult{}, Validation("at least 2 records are required to merge")
	}

	flows, err := g.store.FlowsByIDs(ctx, bookID, ids)
	if err != nil {
		return MergeResult{}, fmt.Errorf("load merge targets: %w", err)
	}
	if len(flows) != len(ids) {
		return MergeResult{}, Validation("some records do not exist or do not belong to this book")
	}

	groups := make(map[string]bool)
	for _, f := range flows {
		if f.Grouped() {
			groups[f.GroupID] = true
		}
	}
	// Every grouped target sharing one group reads as a repeat of that
	// merge, even when the selection adds independent rows on top.
	switch {
	case len(groups) == 1:
		return MergeResult{}, Conflict("these records are already merged")
	case len(groups) > 1:
		return MergeResult{}, Conflict("some records already belong to other groups, unmerge them first")
	}

	groupID := uuid.NewString()
	var count int64
	err = g.store.WithTx(ctx, func(s Store) error {
		n, err := s.SetGroupID(ctx, bookID, ids, groupID)
		if err != nil {
			return fmt.Errorf("assign group: %w", err)
		}
		count = n

		for i := range flows {
			flows[i].GroupID = groupID
		}
		g.writeSummary(ctx, s, DeriveSummary(groupID, flows))
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	return MergeResult{GroupID: groupID, Count: count}, nil
}

// =============================================================================
// UNMERGE
// =============================================================================

// Unmerge restores flows to independence. Exactly one selector is accepted:
// a groupID dissolves the whole group, a non-empty id list detaches only
// those members. A group whose last member was detached loses its summary;
// a group that shrank keeps its summary with the amount recomputed from the
// remaining members.
func (g *GroupingEngine) Unmerge(ctx context.Context, bookID, groupID string, ids []int64) (int64, error) {
	if bookID == "" {
		return 0, Validation("book id is required")
	}
	if groupID == "" && len(ids) == 0 {
		return 0, Validation("either a group id or a list of flow ids is required")
	}

	if groupID != "" {
		var count int64
		err := g.store.WithTx(ctx, func(s Store) error {
			n, err := s.ClearGroup(ctx, bookID, groupID)
			if err != nil {
				return fmt.Errorf("clear group: %w", err)
			}
			count = n
			g.removeSummary(ctx, s, groupID)
			return nil
		})
		return count, err
	}

	// Subset unmerge: record which groups the detached members came from,
	// then re-check each group for remaining members.
	members, err := g.store.FlowsByIDs(ctx, bookID, ids)
	if err != nil {
		return 0, fmt.Errorf("load unmerge targets: %w", err)
	}
	affected := distinctGroups(members)

	var count int64
	err = g.store.WithTx(ctx, func(s Store) error {
		n, err := s.ClearGroupID(ctx, bookID, ids)
		if err != nil {
			return fmt.Errorf("clear group membership: %w", err)
		}
		count = n
		for _, gid := range affected {
			if err := g.reconcileGroup(ctx, s, bookID, gid); err != nil {
				return err
			}
		}
		return nil
	})
	return count, err
}

// =============================================================================
// GROUP-AWARE DELETE
// =============================================================================

// DeleteOne removes a single flow, or a whole group when wholeGroup is set
// together with its group id. Deleting the last member of a group removes
// the group's summary as a follow-up step.
func (g *GroupingEngine) DeleteOne(ctx context.Context, bookID string, id int64, wholeGroup bool, groupID string) (DeleteResult, error) {
	if bookID == "" || (id == 0 && !wholeGroup) {
		return DeleteResult{}, Validation("flow id and book id are required")
	}

	if wholeGroup && groupID != "" {
		var count int64
		err := g.store.WithTx(ctx, func(s Store) error {
			n, err := s.DeleteGroupFlows(ctx, bookID, groupID)
			if err != nil {
				return fmt.Errorf("delete group members: %w", err)
			}
			count = n
			g.removeSummary(ctx, s, groupID)
			return nil
		})
		if err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{GroupDeleted: true, Count: count}, nil
	}

	var deleted *Flow
	err := g.store.WithTx(ctx, func(s Store) error {
		f, err := s.DeleteFlow(ctx, bookID, id)
		if err != nil {
			return fmt.Errorf("delete flow: %w", err)
		}
		if f == nil {
			return NotFound("flow does not exist")
		}
		deleted = f
		if f.Grouped() {
			return g.reconcileGroup(ctx, s, bookID, f.GroupID)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Flow: deleted, Count: 1}, nil
}

// DeleteBatch removes several flows at once, performing the orphan-summary
// check once per distinct group touched by the batch.
func (g *GroupingEngine) DeleteBatch(ctx context.Context, bookID string, ids []int64) (int64, error) {
	if bookID == "" || len(ids) == 0 {
		return 0, Validation("flow ids and book id are required")
	}

	targets, err := g.store.FlowsByIDs(ctx, bookID, ids)
	if err != nil {
		return 0, fmt.Errorf("load delete targets: %w", err)
	}
	affected := distinctGroups(targets)

	var count int64
	err = g.store.WithTx(ctx, func(s Store) error {
		n, err := s.DeleteFlows(ctx, bookID, ids)
		if err != nil {
			return fmt.Errorf("delete flows: %w", err)
		}
		count = n
		for _, gid := range affected {
			if err := g.reconcileGroup(ctx, s, bookID, gid); err != nil {
				return err
			}
		}
		return nil
	})
	return count, err
}

// =============================================================================
// SUMMARY LIFECYCLE
// =============================================================================

// reconcileGroup re-establishes the summary invariant for one group after
// members were removed or detached: no members means no summary, remaining
// members mean a summary with a freshly computed amount.
func (g *GroupingEngine) reconcileGroup(ctx context.Context, s Store, bookID, groupID string) error {
	remaining, err := s.FlowsByGroup(ctx, bookID, groupID)
	if err != nil {
		return fmt.Errorf("check remaining members: %w", err)
	}
	if len(remaining) == 0 {
		g.removeSummary(ctx, s, groupID)
		return nil
	}

	existing, err := s.GetSummary(ctx, groupID)
	if err != nil {
		g.logDegraded(ctx, "read", groupID, err)
		return nil
	}
	if existing == nil {
		// Members without a summary: repair by deriving one.
		g.writeSummary(ctx, s, DeriveSummary(groupID, remaining))
		return nil
	}
	g.writeSummary(ctx, s, RecomputeSummary(*existing, remaining))
	return nil
}

// writeSummary upserts a summary, treating a degraded summary store as a
// logged no-op.
func (g *GroupingEngine) writeSummary(ctx context.Context, s Store, summary GroupSummary) {
	if err := s.UpsertSummary(ctx, summary); err != nil {
		g.logDegraded(ctx, "write", summary.GroupID, err)
	}
}

// removeSummary deletes a summary, treating a degraded summary store as a
// logged no-op.
func (g *GroupingEngine) removeSummary(ctx context.Context, s Store, groupID string) {
	if err := s.DeleteSummary(ctx, groupID); err != nil {
		g.logDegraded(ctx, "delete", groupID, err)
	}
}

func (g *GroupingEngine) logDegraded(ctx context.Context, op, groupID string, err error) {
	slog.WarnContext(ctx, "group summary store degraded, flow mutation unaffected",
		"op", op, "group_id", groupID, "error", err)
}

func distinctGroups(flows []Flow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range flows {
		if f.Grouped() && !seen[f.GroupID] {
			seen[f.GroupID] = true
			out = append(out, f.GroupID)
		}
	}
	return out
}
