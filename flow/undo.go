/*
undo.go - Stateless compensation for flow mutations

PURPOSE:
  Reverses a previous mutation using only the snapshot the client captured
  before performing it. The server keeps no undo history: every branch is a
  compensating write derived from the request body alone.

IDEMPOTENCY:
  Undo requests may be retried or double-submitted. Every branch therefore
  converges: restores are upserts keyed by flow id, deletes tolerate rows
  that are already gone, and summary writes replace whatever is present.
  Running the same undo twice leaves the store in the same state as running
  it once.

OPERATIONS:
  add         - remove the flows the original request created
  update      - write back the single pre-update flow snapshot
  updateMain  - write back the pre-update group summary snapshot
  delete      - recreate the deleted flows (and their group summary)
  merge       - restore pre-merge membership and drop the created summary
  unmerge     - restore pre-unmerge membership and the group summary
  batchUpdate - reapply the changed fields from each sparse row snapshot

SEE ALSO:
  - grouping.go: The forward mutations these branches compensate
  - store.go: RestoreFlow, the upsert primitive undo depends on
*/
package flow

import (
	"context"
	"fmt"
	"log/slog"
)

// Undo operation tags, matching the mutation each one compensates.
const (
	UndoAdd         = "add"
	UndoUpdate      = "update"
	UndoUpdateMain  = "updateMain"
	UndoDelete      = "delete"
	UndoMerge       = "merge"
	UndoUnmerge     = "unmerge"
	UndoBatchUpdate = "batchUpdate"
)

// UndoOperation is the client-captured snapshot of the state before the
// mutation being reversed. Which fields are required depends on the tag.
type UndoOperation struct {
	// Tag names the mutation to compensate.
	Tag string `json:"tag"`

	// Flows holds pre-mutation snapshots for update/delete/merge/unmerge,
	// and identifies the created rows for add.
	Flows []Flow `json:"flows,omitempty"`

	// Patches holds the sparse pre-mutation rows for batchUpdate: per flow,
	// only the fields the compensated update changed.
	Patches []FlowPatch `json:"patches,omitempty"`

	// Summary is the pre-mutation group summary for updateMain, delete and
	// unmerge.
	Summary *GroupSummary `json:"summary,omitempty"`

	// GroupID names the group a merge created, so its summary can be
	// dropped.
	GroupID string `json:"groupId,omitempty"`
}

// FlowPatch is one sparse batchUpdate snapshot: the flow id plus the
// pre-update values of only the fields that changed.
type FlowPatch struct {
	ID     int64      `json:"id"`
	Fields FlowUpdate `json:"fields"`
}

// UndoEngine applies compensating writes for previously executed mutations.
type UndoEngine struct {
	store Store
}

// NewUndoEngine creates an undo engine over the given store.
func NewUndoEngine(store Store) *UndoEngine {
	return &UndoEngine{store: store}
}

// Undo compensates one previously executed mutation for the given book.
// Unknown tags are rejected with an UnsupportedOperationError.
func (u *UndoEngine) Undo(ctx context.Context, bookID string, op UndoOperation) error {
	if bookID == "" {
		return Validation("book id is required")
	}
	for _, f := range op.Flows {
		if f.BookID != bookID {
			return Validation("snapshot flows must belong to the requested book")
		}
	}

	switch op.Tag {
	case UndoAdd:
		return u.undoAdd(ctx, bookID, op)
	case UndoUpdate:
		return u.undoUpdate(ctx, bookID, op)
	case UndoBatchUpdate:
		return u.undoBatchUpdate(ctx, bookID, op)
	case UndoUpdateMain:
		return u.undoUpdateMain(ctx, op)
	case UndoDelete:
		return u.undoDelete(ctx, bookID, op)
	case UndoMerge:
		return u.undoMerge(ctx, bookID, op)
	case UndoUnmerge:
		return u.undoUnmerge(ctx, bookID, op)
	default:
		return &UnsupportedOperationError{Tag: op.Tag}
	}
}

// undoAdd deletes the rows the compensated request created. Rows already
// gone are skipped, so a retried undo is a no-op.
func (u *UndoEngine) undoAdd(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Flows) == 0 {
		return Validation("add undo requires the created flows")
	}
	ids := make([]int64, 0, len(op.Flows))
	for _, f := range op.Flows {
		ids = append(ids, f.ID)
	}

	current, err := u.store.FlowsByIDs(ctx, bookID, ids)
	if err != nil {
		return fmt.Errorf("load created flows: %w", err)
	}
	affected := distinctGroups(current)

	return u.store.WithTx(ctx, func(s Store) error {
		if _, err := s.DeleteFlows(ctx, bookID, ids); err != nil {
			return fmt.Errorf("delete created flows: %w", err)
		}
		return u.reconcileGroups(ctx, s, bookID, affected)
	})
}

// undoUpdate writes the pre-update snapshots back over the current rows.
func (u *UndoEngine) undoUpdate(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Flows) == 0 {
		return Validation("update undo requires the previous flow state")
	}
	for _, f := range op.Flows {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	return u.store.WithTx(ctx, func(s Store) error {
		for _, f := range op.Flows {
			if err := s.RestoreFlow(ctx, f); err != nil {
				return fmt.Errorf("restore flow %d: %w", f.ID, err)
			}
		}
		// Restored amounts change the sums of any groups the snapshots
		// belong to.
		return u.reconcileGroups(ctx, s, bookID, distinctGroups(op.Flows))
	})
}

// undoBatchUpdate reapplies the sparse pre-update rows: only the fields
// present in a row are written back, everything else keeps its current
// value. Rows that no longer exist are skipped so a retried undo after a
// later delete still converges.
func (u *UndoEngine) undoBatchUpdate(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Patches) == 0 {
		return Validation("batchUpdate undo requires the previous field values")
	}
	for _, p := range op.Patches {
		if err := p.Fields.Validate(); err != nil {
			return err
		}
	}

	return u.store.WithTx(ctx, func(s Store) error {
		touched := make(map[string]bool)
		for _, p := range op.Patches {
			f, err := s.UpdateFlow(ctx, bookID, p.ID, p.Fields)
			if err != nil {
				return fmt.Errorf("restore flow %d: %w", p.ID, err)
			}
			if f != nil && f.Grouped() {
				touched[f.GroupID] = true
			}
		}
		// Restored amounts change the sums of any groups the rows belong to.
		groupIDs := make([]string, 0, len(touched))
		for gid := range touched {
			groupIDs = append(groupIDs, gid)
		}
		return u.reconcileGroups(ctx, s, bookID, groupIDs)
	})
}

// undoUpdateMain writes the pre-update group summary back. A degraded
// summary store means the compensated edit never landed either, so this
// logs and succeeds.
func (u *UndoEngine) undoUpdateMain(ctx context.Context, op UndoOperation) error {
	if op.Summary == nil {
		return Validation("updateMain undo requires the previous summary state")
	}
	if err := u.store.UpsertSummary(ctx, *op.Summary); err != nil {
		slog.WarnContext(ctx, "summary restore skipped, summary store degraded",
			"group_id", op.Summary.GroupID, "error", err)
	}
	return nil
}

// undoDelete recreates the deleted flows from their snapshots. Rows that
// already exist (a retried undo) are overwritten with the same values.
func (u *UndoEngine) undoDelete(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Flows) == 0 {
		return Validation("delete undo requires the deleted flows")
	}
	for _, f := range op.Flows {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	return u.store.WithTx(ctx, func(s Store) error {
		for _, f := range op.Flows {
			if err := s.RestoreFlow(ctx, f); err != nil {
				return fmt.Errorf("restore flow %d: %w", f.ID, err)
			}
		}
		if op.Summary != nil {
			if err := s.UpsertSummary(ctx, *op.Summary); err != nil {
				slog.WarnContext(ctx, "summary restore skipped, summary store degraded",
					"group_id", op.Summary.GroupID, "error", err)
			}
		}
		return u.reconcileGroups(ctx, s, bookID, distinctGroups(op.Flows))
	})
}

// undoMerge puts the members back to their pre-merge membership and drops
// the summary the merge created.
func (u *UndoEngine) undoMerge(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Flows) == 0 {
		return Validation("merge undo requires the pre-merge flows")
	}

	return u.store.WithTx(ctx, func(s Store) error {
		for _, f := range op.Flows {
			if err := s.RestoreFlow(ctx, f); err != nil {
				return fmt.Errorf("restore flow %d: %w", f.ID, err)
			}
		}
		if op.GroupID != "" {
			if err := s.DeleteSummary(ctx, op.GroupID); err != nil {
				slog.WarnContext(ctx, "summary delete skipped, summary store degraded",
					"group_id", op.GroupID, "error", err)
			}
		}
		return u.reconcileGroups(ctx, s, bookID, distinctGroups(op.Flows))
	})
}

// undoUnmerge reattaches the members to their former group and restores the
// group summary. Without a snapshot summary one is derived from the members.
func (u *UndoEngine) undoUnmerge(ctx context.Context, bookID string, op UndoOperation) error {
	if len(op.Flows) == 0 {
		return Validation("unmerge undo requires the pre-unmerge flows")
	}
	for _, f := range op.Flows {
		if !f.Grouped() {
			return Validation("pre-unmerge snapshots must carry their group id")
		}
	}

	return u.store.WithTx(ctx, func(s Store) error {
		for _, f := range op.Flows {
			if err := s.RestoreFlow(ctx, f); err != nil {
				return fmt.Errorf("restore flow %d: %w", f.ID, err)
			}
		}
		if op.Summary != nil {
			if err := s.UpsertSummary(ctx, *op.Summary); err != nil {
				slog.WarnContext(ctx, "summary restore skipped, summary store degraded",
					"group_id", op.Summary.GroupID, "error", err)
			}
			return nil
		}
		return u.reconcileGroups(ctx, s, bookID, distinctGroups(op.Flows))
	})
}

// reconcileGroups re-establishes the members-iff-summary invariant for each
// group an undo branch touched.
func (u *UndoEngine) reconcileGroups(ctx context.Context, s Store, bookID string, groupIDs []string) error {
	for _, gid := range groupIDs {
		members, err := s.FlowsByGroup(ctx, bookID, gid)
		if err != nil {
			return fmt.Errorf("check group %s: %w", gid, err)
		}
		if len(members) == 0 {
			if err := s.DeleteSummary(ctx, gid); err != nil {
				slog.WarnContext(ctx, "orphan summary cleanup skipped", "group_id", gid, "error", err)
			}
			continue
		}
		existing, err := s.GetSummary(ctx, gid)
		if err != nil {
			slog.WarnContext(ctx, "summary read skipped, summary store degraded", "group_id", gid, "error", err)
			continue
		}
		next := DeriveSummary(gid, members)
		if existing != nil {
			next = RecomputeSummary(*existing, members)
		}
		if err := s.UpsertSummary(ctx, next); err != nil {
			slog.WarnContext(ctx, "summary refresh skipped, summary store degraded", "group_id", gid, "error", err)
		}
	}
	return nil
}
