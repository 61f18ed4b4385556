/*
types.go - Core domain types for the flow engine

PURPOSE:
  Defines the two records the whole system revolves around:

  Flow:         a single money movement recorded in a book. The system of
                record for amount, date, category and group membership.
  GroupSummary: the one editable record that represents a merge group as a
                whole. Exists iff at least one Flow references its GroupID.

  Amounts are non-negative decimal magnitudes; the direction of the movement
  is carried by FlowType, never by the sign of Money.

SEE ALSO:
  - grouping.go: Merge/unmerge/delete rules that keep both records consistent
  - store.go: Persistence interface for both records
*/
package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlowType classifies the direction of a money movement.
type FlowType string

const (
	TypeIncome     FlowType = "income"
	TypeExpense    FlowType = "expense"
	TypeNotCounted FlowType = "not-counted"
)

// Valid reports whether t is one of the three known flow types.
func (t FlowType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeNotCounted:
		return true
	}
	return false
}

// IndustryOther is the fallback category used when a merge group's members
// do not share a single category.
const IndustryOther = "other"

// DayFormat is the canonical date layout for Flow.Day. Days are stored as
// strings so range filters compare lexicographically.
const DayFormat = "2006-01-02"

// Flow is a single recorded money movement inside a book.
type Flow struct {
	ID           int64           `json:"id"`
	BookID       string          `json:"bookId"`
	UserID       int64           `json:"userId"`
	Day          string          `json:"day"`
	FlowType     FlowType        `json:"flowType"`
	IndustryType string          `json:"industryType"`
	PayType      string          `json:"payType"`
	Money        decimal.Decimal `json:"money"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Attribution  string          `json:"attribution"`

	// GroupID links the flow to a merge group. Empty means independent.
	GroupID string `json:"groupId,omitempty"`

	Invoice   string `json:"invoice,omitempty"`
	Origin    string `json:"origin,omitempty"`
	Eliminate int    `json:"eliminate"`
}

// Grouped reports whether the flow belongs to a merge group.
func (f Flow) Grouped() bool {
	return f.GroupID != ""
}

// Validate checks the fields required for a flow to be stored.
func (f Flow) Validate() error {
	if f.BookID == "" {
		return Validation("book id is required")
	}
	if !f.FlowType.Valid() {
		return Validation(fmt.Sprintf("unknown flow type %q", f.FlowType))
	}
	if f.Money.IsNegative() {
		return Validation("money must not be negative")
	}
	if strings.TrimSpace(f.Day) == "" {
		return Validation("day is required")
	}
	if _, err := time.Parse(DayFormat, f.Day); err != nil {
		return Validation("day must use the YYYY-MM-DD format")
	}
	return nil
}

// GroupSummary represents a merge group as one logical entry. Its fields are
// editable independently of any member flow. A summary carries no day: the
// group's date is always derived from its members.
type GroupSummary struct {
	GroupID      string          `json:"groupId"`
	BookID       string          `json:"bookId"`
	UserID       int64           `json:"userId"`
	FlowType     FlowType        `json:"flowType"`
	IndustryType string          `json:"industryType"`
	PayType      *string         `json:"payType"`
	Money        decimal.Decimal `json:"money"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Attribution  string          `json:"attribution"`
}

// Book is a named collection of flows owned by a user. Book management is a
// boundary concern; only listing and creation are exposed here.
type Book struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"userId"`
	Name       string    `json:"name"`
	CreateDate time.Time `json:"createDate"`
}

// FlowUpdate is a partial patch for a flow. Nil fields are left untouched.
type FlowUpdate struct {
	Day          *string
	FlowType     *FlowType
	IndustryType *string
	PayType      *string
	Money        *decimal.Decimal
	Name         *string
	Description  *string
	Attribution  *string
}

// Apply overwrites the non-nil fields of u onto f.
func (u FlowUpdate) Apply(f *Flow) {
	if u.Day != nil {
		f.Day = *u.Day
	}
	if u.FlowType != nil {
		f.FlowType = *u.FlowType
	}
	if u.IndustryType != nil {
		f.IndustryType = *u.IndustryType
	}
	if u.PayType != nil {
		f.PayType = *u.PayType
	}
	if u.Money != nil {
		f.Money = *u.Money
	}
	if u.Name != nil {
		f.Name = *u.Name
	}
	if u.Description != nil {
		f.Description = *u.Description
	}
	if u.Attribution != nil {
		f.Attribution = *u.Attribution
	}
}

// Validate rejects patches that would put a flow into an invalid state.
func (u FlowUpdate) Validate() error {
	if u.FlowType != nil && !u.FlowType.Valid() {
		return Validation(fmt.Sprintf("unknown flow type %q", *u.FlowType))
	}
	if u.Money != nil && u.Money.IsNegative() {
		return Validation("money must not be negative")
	}
	if u.Day != nil {
		if _, err := time.Parse(DayFormat, *u.Day); err != nil {
			return Validation("day must use the YYYY-MM-DD format")
		}
	}
	return nil
}
