package flow_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cashbook/flow-engine/flow"
)

func member(ft flow.FlowType, money int64, industry, pay string) flow.Flow {
	return flow.Flow{
		BookID:       testBook,
		UserID:       7,
		Day:          "2026-01-01",
		FlowType:     ft,
		IndustryType: industry,
		PayType:      pay,
		Money:        decimal.NewFromInt(money),
		GroupID:      "g-1",
	}
}

func TestDeriveSummary_NetDirection(t *testing.T) {
	cases := []struct {
		name     string
		members  []flow.Flow
		wantType flow.FlowType
		want     int64
	}{
		{
			name: "expenses sum to expense",
			members: []flow.Flow{
				member(flow.TypeExpense, 30, "food", "cash"),
				member(flow.TypeExpense, 20, "food", "cash"),
			},
			wantType: flow.TypeExpense,
			want:     50,
		},
		{
			name: "income outweighs expense",
			members: []flow.Flow{
				member(flow.TypeIncome, 100, "salary", "bank"),
				member(flow.TypeExpense, 30, "food", "cash"),
			},
			wantType: flow.TypeIncome,
			want:     70,
		},
		{
			name: "exact offset is not counted",
			members: []flow.Flow{
				member(flow.TypeIncome, 40, "salary", "bank"),
				member(flow.TypeExpense, 40, "food", "cash"),
			},
			wantType: flow.TypeNotCounted,
			want:     0,
		},
		{
			name: "not-counted members are ignored",
			members: []flow.Flow{
				member(flow.TypeExpense, 25, "food", "cash"),
				member(flow.TypeNotCounted, 1000, "transfer", "bank"),
			},
			wantType: flow.TypeExpense,
			want:     25,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sm := flow.DeriveSummary("g-1", tc.members)
			assert.Equal(t, tc.wantType, sm.FlowType)
			assert.True(t, sm.Money.Equal(decimal.NewFromInt(tc.want)), "money = %s", sm.Money)
		})
	}
}

func TestDeriveSummary_CommonLabels(t *testing.T) {
	// Same industry and pay type across members are carried over
	sm := flow.DeriveSummary("g-1", []flow.Flow{
		member(flow.TypeExpense, 10, "food", "cash"),
		member(flow.TypeExpense, 20, "food", "cash"),
	})
	assert.Equal(t, "food", sm.IndustryType)
	if assert.NotNil(t, sm.PayType) {
		assert.Equal(t, "cash", *sm.PayType)
	}
	assert.Equal(t, "Merged (2 items)", sm.Name)
}

func TestDeriveSummary_MixedLabelsFallBack(t *testing.T) {
	// Differing industries fall back to "other"; differing pay types to null
	sm := flow.DeriveSummary("g-1", []flow.Flow{
		member(flow.TypeExpense, 10, "food", "cash"),
		member(flow.TypeExpense, 20, "travel", "card"),
	})
	assert.Equal(t, flow.IndustryOther, sm.IndustryType)
	assert.Nil(t, sm.PayType)
}

func TestRecomputeSummary_KeepsLabels(t *testing.T) {
	existing := flow.DeriveSummary("g-1", []flow.Flow{
		member(flow.TypeExpense, 30, "food", "cash"),
		member(flow.TypeExpense, 20, "food", "cash"),
	})
	existing.Name = "Edited"
	existing.Description = "kept"

	next := flow.RecomputeSummary(existing, []flow.Flow{
		member(flow.TypeExpense, 30, "food", "cash"),
	})
	assert.Equal(t, "Edited", next.Name)
	assert.Equal(t, "kept", next.Description)
	assert.True(t, next.Money.Equal(decimal.NewFromInt(30)))
}
