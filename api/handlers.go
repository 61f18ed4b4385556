/*
handlers.go - HTTP handlers for the flow engine

PURPOSE:
  Exposes the flow engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to the domain engines.

ENDPOINTS:
  Flows:
    POST   /api/flows/page         Group-aware paginated listing
    POST   /api/flows              Create flow
    GET    /api/flows/first-time   Onboarding check
    GET    /api/flows/{id}         Get flow
    PUT    /api/flows/{id}         Update flow
    DELETE /api/flows/{id}         Delete flow (optionally its whole group)
    POST   /api/flows/batch-delete Delete several flows
    POST   /api/flows/merge        Merge flows into a group
    POST   /api/flows/unmerge      Dissolve a group or detach members

  Groups:
    GET    /api/groups/{groupId}   Summary plus members
    PUT    /api/groups/{groupId}   Edit summary

  Undo:
    POST   /api/undo               Compensate a previous mutation

  Books:
    GET    /api/books              List books (auto-creates the default)
    POST   /api/books              Create book

ERROR HANDLING:
  Domain errors map to HTTP status by category via errors.Is:
  - 400: validation errors, unsupported undo tags
  - 404: missing flow/group/book
  - 409: merge conflicts
  - 503: summary store unavailable (explicit summary edits only)
  - 500: everything else

EVENTS:
  Every successful mutation publishes one FlowMutated event. Publishing is
  fire-and-forget; failures are logged and never fail the request.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cashbook/flow-engine/events"
	"github.com/cashbook/flow-engine/flow"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *flow.Service
	Grouping *flow.GroupingEngine
	Listing  *flow.ListingEngine
	Undo     *flow.UndoEngine
	Events   events.Publisher
}

// NewHandler wires the engines over one store.
func NewHandler(store flow.Store, publisher events.Publisher) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Handler{
		Service:  flow.NewService(store),
		Grouping: flow.NewGroupingEngine(store),
		Listing:  flow.NewListingEngine(store),
		Undo:     flow.NewUndoEngine(store),
		Events:   publisher,
	}
}

// =============================================================================
// FLOW HANDLERS
// =============================================================================

// PageFlows returns one page of the group-aware listing.
// POST /api/flows/page
func (h *Handler) PageFlows(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !decode(w, r, &req) {
		return
	}

	page := flow.PageSpec{PageNum: req.PageNum, PageSize: req.PageSize}
	result, err := h.Listing.Page(r.Context(), req.Filter(), req.Sort(), page)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, result)
}

// CreateFlow stores a new independent flow.
// POST /api/flows
func (h *Handler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var req CreateFlowRequest
	if !decode(w, r, &req) {
		return
	}

	created, err := h.Service.CreateFlow(r.Context(), req.Flow(UserID(r.Context())))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionCreate, BookID: created.BookID,
		UserID: created.UserID, FlowIDs: []int64{created.ID},
	})
	respond(w, http.StatusCreated, created)
}

// GetFlow returns one flow.
// GET /api/flows/{id}?bookId=...
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	bookID := r.URL.Query().Get("bookId")

	f, err := h.Service.GetFlow(r.Context(), bookID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, f)
}

// UpdateFlow patches one flow.
// PUT /api/flows/{id}
func (h *Handler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var req UpdateFlowRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.Service.UpdateFlow(r.Context(), req.BookID, id, req.Update())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionUpdate, BookID: req.BookID,
		UserID: UserID(r.Context()), FlowIDs: []int64{id},
	})
	respond(w, http.StatusOK, updated)
}

// DeleteFlow removes one flow, or its whole group when wholeGroup=true and
// groupId name the group.
// DELETE /api/flows/{id}?bookId=...&wholeGroup=true&groupId=...
func (h *Handler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	q := r.URL.Query()
	bookID := q.Get("bookId")
	wholeGroup := q.Get("wholeGroup") == "true"
	groupID := q.Get("groupId")

	result, err := h.Grouping.DeleteOne(r.Context(), bookID, id, wholeGroup, groupID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	ev := events.FlowMutated{
		Action: events.ActionDelete, BookID: bookID, UserID: UserID(r.Context()),
	}
	if result.GroupDeleted {
		ev.GroupID = groupID
	} else {
		ev.FlowIDs = []int64{id}
	}
	h.publish(r, ev)
	respond(w, http.StatusOK, result)
}

// BatchDeleteFlows removes several flows at once.
// POST /api/flows/batch-delete
func (h *Handler) BatchDeleteFlows(w http.ResponseWriter, r *http.Request) {
	var req BatchDeleteRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.Grouping.DeleteBatch(r.Context(), req.BookID, req.IDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionDelete, BookID: req.BookID,
		UserID: UserID(r.Context()), FlowIDs: req.IDs,
	})
	respond(w, http.StatusOK, CountResult{Count: n})
}

// MergeFlows links flows into a fresh group.
// POST /api/flows/merge
func (h *Handler) MergeFlows(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.Grouping.Merge(r.Context(), req.BookID, req.IDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionMerge, BookID: req.BookID,
		UserID: UserID(r.Context()), FlowIDs: req.IDs, GroupID: result.GroupID,
	})
	respond(w, http.StatusOK, result)
}

// UnmergeFlows dissolves a group or detaches some of its members.
// POST /api/flows/unmerge
func (h *Handler) UnmergeFlows(w http.ResponseWriter, r *http.Request) {
	var req UnmergeRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.Grouping.Unmerge(r.Context(), req.BookID, req.GroupID, req.IDs)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionUnmerge, BookID: req.BookID,
		UserID: UserID(r.Context()), FlowIDs: req.IDs, GroupID: req.GroupID,
	})
	respond(w, http.StatusOK, CountResult{Count: n})
}

// FirstTime reports whether the book has no flows yet.
// GET /api/flows/first-time?bookId=...
func (h *Handler) FirstTime(w http.ResponseWriter, r *http.Request) {
	bookID := r.URL.Query().Get("bookId")

	first, err := h.Service.FirstTime(r.Context(), bookID, UserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, FirstTimeResult{FirstTime: first})
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// GetGroup returns a group's summary with its members.
// GET /api/groups/{groupId}?bookId=...
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	bookID := r.URL.Query().Get("bookId")

	detail, err := h.Service.GetGroup(r.Context(), bookID, groupID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, detail)
}

// UpdateGroup edits a group's summary.
// PUT /api/groups/{groupId}
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	var req UpdateSummaryRequest
	if !decode(w, r, &req) {
		return
	}

	summary, err := h.Service.UpdateSummary(r.Context(), req.BookID, groupID, req.Update())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionUpdate, BookID: req.BookID,
		UserID: UserID(r.Context()), GroupID: groupID,
	})
	respond(w, http.StatusOK, summary)
}

// =============================================================================
// UNDO HANDLER
// =============================================================================

// UndoOperation compensates one previous mutation from the client's snapshot.
// POST /api/undo
func (h *Handler) UndoOperation(w http.ResponseWriter, r *http.Request) {
	var req UndoRequest
	if !decode(w, r, &req) {
		return
	}

	op := flow.UndoOperation{
		Tag:     req.Tag,
		Flows:   req.Flows,
		Summary: req.Summary,
		GroupID: req.GroupID,
	}
	for _, p := range req.Patches {
		op.Patches = append(op.Patches, p.Patch())
	}
	if err := h.Undo.Undo(r.Context(), req.BookID, op); err != nil {
		respondDomainError(w, err)
		return
	}
	h.publish(r, events.FlowMutated{
		Action: events.ActionUndo, BookID: req.BookID,
		UserID: UserID(r.Context()), GroupID: req.GroupID,
	})
	respond(w, http.StatusOK, nil)
}

// =============================================================================
// BOOK HANDLERS
// =============================================================================

// ListBooks returns the caller's books, creating the default on first use.
// GET /api/books
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Service.ListBooks(r.Context(), UserID(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusOK, books)
}

// CreateBook creates a named book for the caller.
// POST /api/books
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decode(w, r, &req) {
		return
	}

	book, err := h.Service.CreateBook(r.Context(), UserID(r.Context()), req.Name)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, book)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) publish(r *http.Request, ev events.FlowMutated) {
	if err := h.Events.Publish(r.Context(), ev); err != nil {
		slog.WarnContext(r.Context(), "event publish failed",
			"action", ev.Action, "book_id", ev.BookID, "error", err)
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

// decode parses the JSON body into dst, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Code: status, Message: "success", Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Code: status, Message: message})
}

// respondDomainError maps engine error categories to HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flow.ErrValidation), errors.Is(err, flow.ErrUnsupported):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flow.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, flow.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, flow.ErrSummaryUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
