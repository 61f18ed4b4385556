/*
Package events defines the mutation event stream emitted by the flow engine.

Every successful mutation publishes one FlowMutated event so downstream
consumers (sync, analytics) can follow the book without polling. Publishing
is fire-and-forget: a failed publish is logged and never fails the mutation.
*/
package events

import "context"

// Actions carried by FlowMutated events.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionMerge   = "merge"
	ActionUnmerge = "unmerge"
	ActionUndo    = "undo"
)

// FlowMutated describes one completed mutation in a book.
type FlowMutated struct {
	Action  string  `json:"action"`
	BookID  string  `json:"bookId"`
	UserID  int64   `json:"userId"`
	FlowIDs []int64 `json:"flowIds,omitempty"`
	GroupID string  `json:"groupId,omitempty"`
}

// Publisher emits mutation events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev FlowMutated) error
	Close() error
}

// Nop is a Publisher that discards every event, used when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, FlowMutated) error { return nil }
func (Nop) Close() error                               { return nil }
