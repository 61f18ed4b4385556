/*
filter.go - Query filter, sort and page types

PURPOSE:
  One validated filter struct per listing request instead of loosely-typed
  request maps. Matches and Less are shared by the memory store and by tests;
  the SQLite store compiles the same semantics to SQL.

SORTING:
  MoneySort wins over DaySort; default is day descending. Flow id descending
  is always the stable tiebreaker.
*/
package flow

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SortDir is an explicit sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) valid() bool { return d == SortAsc || d == SortDesc }

// Filter narrows the flows a listing request sees. BookID is mandatory;
// everything else is optional. Name, Description and Attribution match as
// substrings; day and money bounds are inclusive.
type Filter struct {
	BookID       string
	ID           int64
	FlowType     FlowType
	IndustryType string
	PayType      string
	StartDay     string
	EndDay       string
	Name         string
	Description  string
	Attribution  string
	MinMoney     *decimal.Decimal
	MaxMoney     *decimal.Decimal
}

// Validate checks the filter before it reaches a store.
func (q Filter) Validate() error {
	if q.BookID == "" {
		return Validation("book id is required")
	}
	if q.FlowType != "" && !q.FlowType.Valid() {
		return Validation("unknown flow type filter")
	}
	return nil
}

// Matches reports whether f satisfies every active condition of the filter.
func (q Filter) Matches(f Flow) bool {
	if f.BookID != q.BookID {
		return false
	}
	if q.ID != 0 && f.ID != q.ID {
		return false
	}
	if q.FlowType != "" && f.FlowType != q.FlowType {
		return false
	}
	if q.IndustryType != "" && f.IndustryType != q.IndustryType {
		return false
	}
	if q.PayType != "" && f.PayType != q.PayType {
		return false
	}
	if q.StartDay != "" && f.Day < q.StartDay {
		return false
	}
	if q.EndDay != "" && f.Day > q.EndDay {
		return false
	}
	if q.Name != "" && !strings.Contains(f.Name, q.Name) {
		return false
	}
	if q.Description != "" && !strings.Contains(f.Description, q.Description) {
		return false
	}
	if q.Attribution != "" && !strings.Contains(f.Attribution, q.Attribution) {
		return false
	}
	if q.MinMoney != nil && f.Money.LessThan(*q.MinMoney) {
		return false
	}
	if q.MaxMoney != nil && f.Money.GreaterThan(*q.MaxMoney) {
		return false
	}
	return true
}

// Sort selects the ordering of a listing. An empty Sort means day descending.
type Sort struct {
	MoneySort SortDir
	DaySort   SortDir
}

// Validate rejects unknown directions.
func (s Sort) Validate() error {
	if s.MoneySort != "" && !s.MoneySort.valid() {
		return Validation("money sort must be asc or desc")
	}
	if s.DaySort != "" && !s.DaySort.valid() {
		return Validation("day sort must be asc or desc")
	}
	return nil
}

// Less is the ordering relation for the chosen sort, with id descending as
// the stable tiebreaker.
func (s Sort) Less(a, b Flow) bool {
	switch {
	case s.MoneySort != "":
		if !a.Money.Equal(b.Money) {
			if s.MoneySort == SortAsc {
				return a.Money.LessThan(b.Money)
			}
			return a.Money.GreaterThan(b.Money)
		}
	case s.DaySort != "":
		if a.Day != b.Day {
			if s.DaySort == SortAsc {
				return a.Day < b.Day
			}
			return a.Day > b.Day
		}
	default:
		if a.Day != b.Day {
			return a.Day > b.Day
		}
	}
	return a.ID > b.ID
}

// SortFlows orders flows in place according to s.
func SortFlows(flows []Flow, s Sort) {
	sort.SliceStable(flows, func(i, j int) bool { return s.Less(flows[i], flows[j]) })
}

// PageSpec selects one page of display rows. PageSizeAll bypasses slicing
// and returns every raw row.
type PageSpec struct {
	PageNum  int
	PageSize int
}

// PageSizeAll disables pagination for a listing request.
const PageSizeAll = -1

// Normalize fills defaults and validates the page spec.
func (p PageSpec) Normalize() (PageSpec, error) {
	if p.PageNum == 0 {
		p.PageNum = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 15
	}
	if p.PageNum < 1 {
		return p, Validation("page number must be at least 1")
	}
	if p.PageSize < 1 && p.PageSize != PageSizeAll {
		return p, Validation("page size must be positive or -1 for all")
	}
	return p, nil
}
