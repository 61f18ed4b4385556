/*
service.go - Single-record operations and book management

PURPOSE:
  The non-grouping operations of the engine: create/read/update one flow,
  read and edit a group's summary, list and create books. Grouped flows need
  one extra rule here: editing a member's amount or direction refreshes the
  group's derived summary in the same transaction.

SEE ALSO:
  - grouping.go: Multi-record mutations (merge, unmerge, deletes)
  - listing.go: Paginated reads
*/
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultBookName is the book auto-created for a user who has none yet.
const DefaultBookName = "Default Book"

// Service implements single-flow CRUD, summary edits and book management.
type Service struct {
	store Store
}

// NewService creates a service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// =============================================================================
// FLOWS
// =============================================================================

// CreateFlow validates and stores a new independent flow.
func (s *Service) CreateFlow(ctx context.Context, f Flow) (Flow, error) {
	f.GroupID = "" // new flows always start independent
	if f.IndustryType == "" {
		f.IndustryType = IndustryOther
	}
	if err := f.Validate(); err != nil {
		return Flow{}, err
	}
	created, err := s.store.CreateFlow(ctx, f)
	if err != nil {
		return Flow{}, fmt.Errorf("create flow: %w", err)
	}
	return created, nil
}

// GetFlow reads one flow from a book.
func (s *Service) GetFlow(ctx context.Context, bookID string, id int64) (*Flow, error) {
	if bookID == "" || id == 0 {
		return nil, Validation("flow id and book id are required")
	}
	f, err := s.store.GetFlow(ctx, bookID, id)
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}
	if f == nil {
		return nil, NotFound("flow does not exist")
	}
	return f, nil
}

// UpdateFlow applies a partial update to one flow. When the flow belongs to
// a group and the patch changes its amount or direction, the group's summary
// is refreshed in the same transaction.
func (s *Service) UpdateFlow(ctx context.Context, bookID string, id int64, upd FlowUpdate) (*Flow, error) {
	if bookID == "" || id == 0 {
		return nil, Validation("flow id and book id are required")
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	var updated *Flow
	err := s.store.WithTx(ctx, func(st Store) error {
		f, err := st.UpdateFlow(ctx, bookID, id, upd)
		if err != nil {
			return fmt.Errorf("update flow: %w", err)
		}
		if f == nil {
			return NotFound("flow does not exist")
		}
		updated = f

		if f.Grouped() && (upd.Money != nil || upd.FlowType != nil) {
			eng := GroupingEngine{store: st}
			return eng.reconcileGroup(ctx, st, bookID, f.GroupID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// GROUP SUMMARIES
// =============================================================================

// GroupDetail pairs a group's summary with its current members.
type GroupDetail struct {
	Summary GroupSummary `json:"summary"`
	Members []Flow       `json:"members"`
}

// GetGroup reads a group's summary together with its members.
func (s *Service) GetGroup(ctx context.Context, bookID, groupID string) (*GroupDetail, error) {
	if bookID == "" || groupID == "" {
		return nil, Validation("book id and group id are required")
	}
	members, err := s.store.FlowsByGroup(ctx, bookID, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, NotFound("group does not exist")
	}

	summary, err := s.store.GetSummary(ctx, groupID)
	if err != nil {
		// Degraded store: serve a derived stand-in rather than failing the
		// read, the members remain authoritative.
		derived := DeriveSummary(groupID, members)
		return &GroupDetail{Summary: derived, Members: members}, nil
	}
	if summary == nil {
		// Members exist without a summary: repair the invariant on read.
		derived := DeriveSummary(groupID, members)
		if upErr := s.store.UpsertSummary(ctx, derived); upErr != nil {
			slog.WarnContext(ctx, "group summary repair failed", "group_id", groupID, "error", upErr)
		}
		summary = &derived
	}
	return &GroupDetail{Summary: *summary, Members: members}, nil
}

// SummaryUpdate is a partial patch for a group summary's editable fields.
type SummaryUpdate struct {
	FlowType     *FlowType
	IndustryType *string
	PayType      *string
	Name         *string
	Description  *string
	Attribution  *string
}

// UpdateSummary edits a group's summary. Unlike the implicit writes done by
// mutations, an explicit edit fails when the summary store is unavailable.
func (s *Service) UpdateSummary(ctx context.Context, bookID, groupID string, upd SummaryUpdate) (*GroupSummary, error) {
	if bookID == "" || groupID == "" {
		return nil, Validation("book id and group id are required")
	}
	if upd.FlowType != nil && !upd.FlowType.Valid() {
		return nil, Validation(fmt.Sprintf("unknown flow type %q", *upd.FlowType))
	}
	if !s.store.SummaryAvailable() {
		return nil, ErrSummaryUnavailable
	}

	members, err := s.store.FlowsByGroup(ctx, bookID, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, NotFound("group does not exist")
	}

	current, err := s.store.GetSummary(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	summary := DeriveSummary(groupID, members)
	if current != nil {
		summary = *current
	}

	if upd.FlowType != nil {
		summary.FlowType = *upd.FlowType
	}
	if upd.IndustryType != nil {
		summary.IndustryType = *upd.IndustryType
	}
	if upd.PayType != nil {
		summary.PayType = upd.PayType
	}
	if upd.Name != nil {
		summary.Name = *upd.Name
	}
	if upd.Description != nil {
		summary.Description = *upd.Description
	}
	if upd.Attribution != nil {
		summary.Attribution = *upd.Attribution
	}

	if err := s.store.UpsertSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	return &summary, nil
}

// =============================================================================
// BOOKS
// =============================================================================

// ListBooks returns the user's books, creating the default book on first use
// so every user always has at least one.
func (s *Service) ListBooks(ctx context.Context, userID int64) ([]Book, error) {
	books, err := s.store.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if len(books) > 0 {
		return books, nil
	}

	created, err := s.CreateBook(ctx, userID, DefaultBookName)
	if err != nil {
		return nil, err
	}
	return []Book{created}, nil
}

// CreateBook creates a named book for the user.
func (s *Service) CreateBook(ctx context.Context, userID int64, name string) (Book, error) {
	if name == "" {
		return Book{}, Validation("book name is required")
	}
	b := Book{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		CreateDate: time.Now().UTC(),
	}
	created, err := s.store.CreateBook(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

// FirstTime reports whether the book has no flows yet, used by clients to
// show onboarding.
func (s *Service) FirstTime(ctx context.Context, bookID string, userID int64) (bool, error) {
	if bookID == "" {
		return false, Validation("book id is required")
	}
	n, err := s.store.CountFlows(ctx, bookID, userID)
	if err != nil {
		return false, fmt.Errorf("count flows: %w", err)
	}
	return n == 0, nil
}
