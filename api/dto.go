/*
dto.go - Request and response shapes for the flow API

PURPOSE:
  JSON contracts exposed to clients, kept separate from the domain types so
  the wire format can evolve without touching the engine.

CONVENTIONS:
  - camelCase field names throughout
  - every response is wrapped in Response{code, message, data}
  - money accepts JSON numbers or strings and is parsed into exact decimals
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/cashbook/flow-engine/flow"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PageRequest selects, orders and pages a flow listing.
type PageRequest struct {
	BookID   string `json:"bookId"`
	PageNum  int    `json:"pageNum"`
	PageSize int    `json:"pageSize"`

	ID           int64            `json:"id,omitempty"`
	FlowType     string           `json:"flowType,omitempty"`
	IndustryType string           `json:"industryType,omitempty"`
	PayType      string           `json:"payType,omitempty"`
	StartDay     string           `json:"startDay,omitempty"`
	EndDay       string           `json:"endDay,omitempty"`
	Name         string           `json:"name,omitempty"`
	Description  string           `json:"description,omitempty"`
	Attribution  string           `json:"attribution,omitempty"`
	MinMoney     *decimal.Decimal `json:"minMoney,omitempty"`
	MaxMoney     *decimal.Decimal `json:"maxMoney,omitempty"`

	MoneySort string `json:"moneySort,omitempty"`
	DaySort   string `json:"daySort,omitempty"`
}

// Filter converts the request to the engine's filter type.
func (r PageRequest) Filter() flow.Filter {
	return flow.Filter{
		BookID:       r.BookID,
		ID:           r.ID,
		FlowType:     flow.FlowType(r.FlowType),
		IndustryType: r.IndustryType,
		PayType:      r.PayType,
		StartDay:     r.StartDay,
		EndDay:       r.EndDay,
		Name:         r.Name,
		Description:  r.Description,
		Attribution:  r.Attribution,
		MinMoney:     r.MinMoney,
		MaxMoney:     r.MaxMoney,
	}
}

// Sort converts the request to the engine's sort type.
func (r PageRequest) Sort() flow.Sort {
	return flow.Sort{
		MoneySort: flow.SortDir(r.MoneySort),
		DaySort:   flow.SortDir(r.DaySort),
	}
}

// CreateFlowRequest creates one independent flow.
type CreateFlowRequest struct {
	BookID       string          `json:"bookId"`
	Day          string          `json:"day"`
	FlowType     string          `json:"flowType"`
	IndustryType string          `json:"industryType"`
	PayType      string          `json:"payType"`
	Money        decimal.Decimal `json:"money"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Attribution  string          `json:"attribution"`
	Invoice      string          `json:"invoice"`
	Origin       string          `json:"origin"`
}

// Flow converts the request to a domain flow owned by userID.
func (r CreateFlowRequest) Flow(userID int64) flow.Flow {
	return flow.Flow{
		BookID:       r.BookID,
		UserID:       userID,
		Day:          r.Day,
		FlowType:     flow.FlowType(r.FlowType),
		IndustryType: r.IndustryType,
		PayType:      r.PayType,
		Money:        r.Money,
		Name:         r.Name,
		Description:  r.Description,
		Attribution:  r.Attribution,
		Invoice:      r.Invoice,
		Origin:       r.Origin,
	}
}

// UpdateFlowRequest patches one flow. Absent fields are left untouched.
type UpdateFlowRequest struct {
	BookID       string           `json:"bookId"`
	Day          *string          `json:"day,omitempty"`
	FlowType     *string          `json:"flowType,omitempty"`
	IndustryType *string          `json:"industryType,omitempty"`
	PayType      *string          `json:"payType,omitempty"`
	Money        *decimal.Decimal `json:"money,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Attribution  *string          `json:"attribution,omitempty"`
}

// Update converts the request to the engine's patch type.
func (r UpdateFlowRequest) Update() flow.FlowUpdate {
	upd := flow.FlowUpdate{
		Day:          r.Day,
		IndustryType: r.IndustryType,
		PayType:      r.PayType,
		Money:        r.Money,
		Name:         r.Name,
		Description:  r.Description,
		Attribution:  r.Attribution,
	}
	if r.FlowType != nil {
		ft := flow.FlowType(*r.FlowType)
		upd.FlowType = &ft
	}
	return upd
}

// MergeRequest links flows into a new group.
type MergeRequest struct {
	BookID string  `json:"bookId"`
	IDs    []int64 `json:"ids"`
}

// UnmergeRequest restores flows to independence, selecting either a whole
// group or a subset of members.
type UnmergeRequest struct {
	BookID  string  `json:"bookId"`
	GroupID string  `json:"groupId,omitempty"`
	IDs     []int64 `json:"ids,omitempty"`
}

// BatchDeleteRequest removes several flows at once.
type BatchDeleteRequest struct {
	BookID string  `json:"bookId"`
	IDs    []int64 `json:"ids"`
}

// UpdateSummaryRequest patches a group's summary.
type UpdateSummaryRequest struct {
	BookID       string  `json:"bookId"`
	FlowType     *string `json:"flowType,omitempty"`
	IndustryType *string `json:"industryType,omitempty"`
	PayType      *string `json:"payType,omitempty"`
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Attribution  *string `json:"attribution,omitempty"`
}

// Update converts the request to the engine's patch type.
func (r UpdateSummaryRequest) Update() flow.SummaryUpdate {
	upd := flow.SummaryUpdate{
		IndustryType: r.IndustryType,
		PayType:      r.PayType,
		Name:         r.Name,
		Description:  r.Description,
		Attribution:  r.Attribution,
	}
	if r.FlowType != nil {
		ft := flow.FlowType(*r.FlowType)
		upd.FlowType = &ft
	}
	return upd
}

// UndoRequest compensates one previous mutation from client snapshots.
type UndoRequest struct {
	BookID  string             `json:"bookId"`
	Tag     string             `json:"tag"`
	Flows   []flow.Flow        `json:"flows,omitempty"`
	Patches []UndoPatch        `json:"patches,omitempty"`
	Summary *flow.GroupSummary `json:"summary,omitempty"`
	GroupID string             `json:"groupId,omitempty"`
}

// UndoPatch is one sparse batchUpdate snapshot: the flow id plus the
// pre-update values of only the fields that changed.
type UndoPatch struct {
	ID           int64            `json:"id"`
	Day          *string          `json:"day,omitempty"`
	FlowType     *string          `json:"flowType,omitempty"`
	IndustryType *string          `json:"industryType,omitempty"`
	PayType      *string          `json:"payType,omitempty"`
	Money        *decimal.Decimal `json:"money,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Attribution  *string          `json:"attribution,omitempty"`
}

// Patch converts the request row to the engine's sparse snapshot type.
func (r UndoPatch) Patch() flow.FlowPatch {
	fields := flow.FlowUpdate{
		Day:          r.Day,
		IndustryType: r.IndustryType,
		PayType:      r.PayType,
		Money:        r.Money,
		Name:         r.Name,
		Description:  r.Description,
		Attribution:  r.Attribution,
	}
	if r.FlowType != nil {
		ft := flow.FlowType(*r.FlowType)
		fields.FlowType = &ft
	}
	return flow.FlowPatch{ID: r.ID, Fields: fields}
}

// CreateBookRequest creates a named book for the caller.
type CreateBookRequest struct {
	Name string `json:"name"`
}

// CountResult reports how many rows a bulk mutation touched.
type CountResult struct {
	Count int64 `json:"count"`
}

// FirstTimeResult reports whether the book has no flows yet.
type FirstTimeResult struct {
	FirstTime bool `json:"firstTime"`
}
