package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoanStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     LoanStatus
		to       LoanStatus
		expected bool
	}{
		{LoanStatusPending, LoanStatusActive, true},
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusPending, LoanStatusApproved, false},
		{LoanStatusPending, LoanStatusCompleted, false},
		{LoanStatusActive, LoanStatusCompleted, true},
		{LoanStatusActive, LoanStatusRejected, false},
		{LoanStatusRejected, LoanStatusActive, false},
		{LoanStatusCompleted, LoanStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLoanStatus_IsTerminal(t *testing.T) {
	assert.True(t, LoanStatusRejected.IsTerminal())
	assert.True(t, LoanStatusCompleted.IsTerminal())
	assert.False(t, LoanStatusPending.IsTerminal())
	assert.False(t, LoanStatusActive.IsTerminal())
}

func TestLoanInstallment_DerivedState(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	inst := &LoanInstallment{
		DueDate:    now.AddDate(0, 0, -1),
		Amount:     decimal.RequireFromString("87.92"),
		PaidAmount: decimal.RequireFromString("50.00"),
	}

	assert.True(t, inst.IsOverdue(now))
	assert.True(t, inst.IsPartiallyPaid())
	assert.True(t, inst.Outstanding().Equal(decimal.RequireFromString("37.92")))

	inst.PaidAmount = inst.Amount
	inst.IsPaid = true
	assert.False(t, inst.IsOverdue(now))
	assert.False(t, inst.IsPartiallyPaid())
	assert.True(t, inst.Outstanding().IsZero())
}
