// Package memory provides an in-memory flow.Store for tests and local dev.
package memory

import (
	"context"
	"sync"

	"github.com/cashbook/flow-engine/flow"
)

// Store keeps flows, summaries and books in maps guarded by one mutex. It
// shares the filter/sort semantics with the SQLite store through
// flow.Filter.Matches and flow.SortFlows.
type Store struct {
	mu        sync.RWMutex
	flows     map[int64]flow.Flow
	summaries map[string]flow.GroupSummary
	books     map[string]flow.Book
	nextID    int64

	summaryOK bool
}

// New creates an empty memory store with the summary store available.
func New() *Store {
	return &Store{
		flows:     make(map[int64]flow.Flow),
		summaries: make(map[string]flow.GroupSummary),
		books:     make(map[string]flow.Book),
		nextID:    1,
		summaryOK: true,
	}
}

// SetSummaryAvailable toggles the degraded-summary-store mode, used by tests
// that exercise the flows-stay-authoritative behavior.
func (m *Store) SetSummaryAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryOK = ok
}

// =============================================================================
// FLOW RECORDS
// =============================================================================

func (m *Store) CreateFlow(_ context.Context, f flow.Flow) (flow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.ID = m.nextID
	m.nextID++
	m.flows[f.ID] = f
	return f, nil
}

func (m *Store) RestoreFlow(_ context.Context, f flow.Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flows[f.ID] = f
	if f.ID >= m.nextID {
		m.nextID = f.ID + 1
	}
	return nil
}

func (m *Store) GetFlow(_ context.Context, bookID string, id int64) (*flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.flows[id]
	if !ok || f.BookID != bookID {
		return nil, nil
	}
	return &f, nil
}

func (m *Store) UpdateFlow(_ context.Context, bookID string, id int64, upd flow.FlowUpdate) (*flow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.flows[id]
	if !ok || f.BookID != bookID {
		return nil, nil
	}
	upd.Apply(&f)
	m.flows[id] = f
	return &f, nil
}

func (m *Store) DeleteFlow(_ context.Context, bookID string, id int64) (*flow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.flows[id]
	if !ok || f.BookID != bookID {
		return nil, nil
	}
	delete(m.flows, id)
	return &f, nil
}

func (m *Store) DeleteFlows(_ context.Context, bookID string, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, id := range ids {
		if f, ok := m.flows[id]; ok && f.BookID == bookID {
			delete(m.flows, id)
			n++
		}
	}
	return n, nil
}

func (m *Store) DeleteGroupFlows(_ context.Context, bookID, groupID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, f := range m.flows {
		if f.BookID == bookID && f.GroupID == groupID {
			delete(m.flows, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (m *Store) FindFlows(_ context.Context, filter flow.Filter, s flow.Sort) ([]flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []flow.Flow
	for _, f := range m.flows {
		if filter.Matches(f) {
			out = append(out, f)
		}
	}
	flow.SortFlows(out, s)
	return out, nil
}

func (m *Store) FlowsByIDs(_ context.Context, bookID string, ids []int64) ([]flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []flow.Flow
	for _, id := range ids {
		if f, ok := m.flows[id]; ok && f.BookID == bookID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *Store) FlowsByGroup(_ context.Context, bookID, groupID string) ([]flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []flow.Flow
	for _, f := range m.flows {
		if f.BookID == bookID && f.GroupID == groupID {
			out = append(out, f)
		}
	}
	flow.SortFlows(out, flow.Sort{})
	return out, nil
}

func (m *Store) CountFlows(_ context.Context, bookID string, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, f := range m.flows {
		if f.BookID == bookID && f.UserID == userID {
			n++
		}
	}
	return n, nil
}

// =============================================================================
// GROUP MEMBERSHIP
// =============================================================================

func (m *Store) SetGroupID(_ context.Context, bookID string, ids []int64, groupID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, id := range ids {
		if f, ok := m.flows[id]; ok && f.BookID == bookID {
			f.GroupID = groupID
			m.flows[id] = f
			n++
		}
	}
	return n, nil
}

func (m *Store) ClearGroupID(_ context.Context, bookID string, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, id := range ids {
		if f, ok := m.flows[id]; ok && f.BookID == bookID && f.Grouped() {
			f.GroupID = ""
			m.flows[id] = f
			n++
		}
	}
	return n, nil
}

func (m *Store) ClearGroup(_ context.Context, bookID, groupID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, f := range m.flows {
		if f.BookID == bookID && f.GroupID == groupID {
			f.GroupID = ""
			m.flows[id] = f
			n++
		}
	}
	return n, nil
}

// =============================================================================
// GROUP SUMMARIES
// =============================================================================

func (m *Store) SummaryAvailable() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summaryOK
}

func (m *Store) GetSummary(_ context.Context, groupID string) (*flow.GroupSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.summaryOK {
		return nil, flow.ErrSummaryUnavailable
	}
	s, ok := m.summaries[groupID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Store) SummariesByGroupIDs(_ context.Context, bookID string, groupIDs []string) ([]flow.GroupSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.summaryOK {
		return nil, flow.ErrSummaryUnavailable
	}
	var out []flow.GroupSummary
	for _, gid := range groupIDs {
		if s, ok := m.summaries[gid]; ok && s.BookID == bookID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Store) UpsertSummary(_ context.Context, s flow.GroupSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.summaryOK {
		return flow.ErrSummaryUnavailable
	}
	m.summaries[s.GroupID] = s
	return nil
}

func (m *Store) DeleteSummary(_ context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.summaryOK {
		return flow.ErrSummaryUnavailable
	}
	delete(m.summaries, groupID)
	return nil
}

// =============================================================================
// BOOKS
// =============================================================================

func (m *Store) ListBooks(_ context.Context, userID int64) ([]flow.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []flow.Book
	for _, b := range m.books {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Store) CreateBook(_ context.Context, b flow.Book) (flow.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.books[b.ID] = b
	return b, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx applies fn directly; the memory store offers no extra isolation
// beyond per-call locking.
func (m *Store) WithTx(_ context.Context, fn func(store flow.Store) error) error {
	return fn(m)
}
