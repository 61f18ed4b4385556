/*
store.go - Persistence interface for flows, group summaries and books

PURPOSE:
  Defines the storage contract the engines are written against. Two
  implementations exist: store/sqlite (production) and store/memory
  (tests/dev).

DESIGN NOTES:
  - Flows are authoritative; summaries are derived. SummaryAvailable is a
    capability probed once when the store is opened: when it reports false,
    summary operations return ErrSummaryUnavailable and callers log and
    continue instead of failing the owning flow mutation.
  - WithTx wraps multi-step mutations (merge, unmerge, group delete, undo of
    those) in one store transaction where the backend supports it. The memory
    store applies the function without additional isolation.
  - Delete operations report what was removed so callers can hand the caller
    a snapshot for a later undo.
*/
package flow

import "context"

// Store is the persistence contract for the flow engine.
type Store interface {
	// Flow records.
	CreateFlow(ctx context.Context, f Flow) (Flow, error)
	// RestoreFlow writes a flow with a known id, updating the existing row
	// on conflict. Used by undo to make re-submits idempotent.
	RestoreFlow(ctx context.Context, f Flow) error
	GetFlow(ctx context.Context, bookID string, id int64) (*Flow, error)
	UpdateFlow(ctx context.Context, bookID string, id int64, upd FlowUpdate) (*Flow, error)
	// DeleteFlow removes one flow and returns it, or nil if it was absent.
	DeleteFlow(ctx context.Context, bookID string, id int64) (*Flow, error)
	DeleteFlows(ctx context.Context, bookID string, ids []int64) (int64, error)
	DeleteGroupFlows(ctx context.Context, bookID, groupID string) (int64, error)

	// Queries.
	FindFlows(ctx context.Context, filter Filter, sort Sort) ([]Flow, error)
	FlowsByIDs(ctx context.Context, bookID string, ids []int64) ([]Flow, error)
	FlowsByGroup(ctx context.Context, bookID, groupID string) ([]Flow, error)
	CountFlows(ctx context.Context, bookID string, userID int64) (int64, error)

	// Group membership.
	SetGroupID(ctx context.Context, bookID string, ids []int64, groupID string) (int64, error)
	// ClearGroupID clears membership only on flows that currently have one.
	ClearGroupID(ctx context.Context, bookID string, ids []int64) (int64, error)
	ClearGroup(ctx context.Context, bookID, groupID string) (int64, error)

	// Group summaries. All of these return ErrSummaryUnavailable when the
	// summary store is not provisioned.
	SummaryAvailable() bool
	GetSummary(ctx context.Context, groupID string) (*GroupSummary, error)
	SummariesByGroupIDs(ctx context.Context, bookID string, groupIDs []string) ([]GroupSummary, error)
	UpsertSummary(ctx context.Context, s GroupSummary) error
	DeleteSummary(ctx context.Context, groupID string) error

	// Books.
	ListBooks(ctx context.Context, userID int64) ([]Book, error)
	CreateBook(ctx context.Context, b Book) (Book, error)

	// WithTx runs fn within one store transaction when supported.
	WithTx(ctx context.Context, fn func(Store) error) error
}
