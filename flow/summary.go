/*
summary.go - Deriving a group summary from its members

The summary created by a merge (and recreated by invariant repair) is a pure
function of the member flows:

  net       = sum(income money) - sum(expense money), not-counted excluded
  flowType  = income if net > 0, expense if net < 0, else not-counted
  money     = |net|
  industry  = the common category, else "other"
  payType   = the common payment method, else null
  name      = generated label including the member count
*/
package flow

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DeriveSummary computes the summary for a group from its current members.
// members must be non-empty and already share groupID.
func DeriveSummary(groupID string, members []Flow) GroupSummary {
	net := decimal.Zero
	for _, m := range members {
		switch m.FlowType {
		case TypeIncome:
			net = net.Add(m.Money)
		case TypeExpense:
			net = net.Sub(m.Money)
		}
	}

	s := GroupSummary{
		GroupID:  groupID,
		BookID:   members[0].BookID,
		UserID:   members[0].UserID,
		FlowType: netFlowType(net),
		Money:    net.Abs(),
		Name:     fmt.Sprintf("Merged (%d items)", len(members)),
	}

	s.IndustryType = IndustryOther
	if industry, ok := commonValue(members, func(f Flow) string { return f.IndustryType }); ok {
		s.IndustryType = industry
	}
	if pay, ok := commonValue(members, func(f Flow) string { return f.PayType }); ok {
		s.PayType = &pay
	}
	return s
}

// RecomputeSummary refreshes the derived amount fields of an existing summary
// after the group shrank, preserving the user-editable labels.
func RecomputeSummary(existing GroupSummary, members []Flow) GroupSummary {
	net := decimal.Zero
	for _, m := range members {
		switch m.FlowType {
		case TypeIncome:
			net = net.Add(m.Money)
		case TypeExpense:
			net = net.Sub(m.Money)
		}
	}
	existing.FlowType = netFlowType(net)
	existing.Money = net.Abs()
	return existing
}

func netFlowType(net decimal.Decimal) FlowType {
	switch {
	case net.IsPositive():
		return TypeIncome
	case net.IsNegative():
		return TypeExpense
	default:
		return TypeNotCounted
	}
}

func commonValue(members []Flow, get func(Flow) string) (string, bool) {
	v := get(members[0])
	if v == "" {
		return "", false
	}
	for _, m := range members[1:] {
		if get(m) != v {
			return "", false
		}
	}
	return v, true
}
