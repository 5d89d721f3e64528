package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
)

// loanTransitions lists the states reachable from each state. Approval moves a
// pending loan straight to active; "approved" is accepted as a decision but is
// never stored.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending: {LoanStatusActive, LoanStatusRejected},
	LoanStatusActive:  {LoanStatusCompleted},
}

// CanTransitionTo reports whether a loan in status s may move to next
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// Loan represents a loan entity
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	UserID           uuid.UUID       `json:"user_id" db:"user_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TermMonths       int             `json:"term_months" db:"term_months"`
	MonthlyPayment   decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	Status           LoanStatus      `json:"status" db:"status"`
	Purpose          string          `json:"purpose" db:"purpose"`
	ApprovedBy       *uuid.UUID      `json:"approved_by" db:"approved_by"`
	ApprovedAt       *time.Time      `json:"approved_at" db:"approved_at"`
	DisbursedAt      *time.Time      `json:"disbursed_at" db:"disbursed_at"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// LoanDecision is the outcome management records for a pending application
type LoanDecision string

const (
	LoanDecisionApproved LoanDecision = "approved"
	LoanDecisionRejected LoanDecision = "rejected"
)

// Storage limits of the money and rate columns
const (
	CurrencyPlaces = 2
	RatePlaces     = 4
)

var (
	MaxAmount       = decimal.RequireFromString("9999999999999.99")
	MaxInterestRate = decimal.RequireFromString("999.9999")
)

// DTOs for requests and responses

type ApplyLoanRequest struct {
	UserID     uuid.UUID       `json:"user_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required,gt=0"`
	TermMonths int             `json:"term_months" validate:"required,gt=0"`
	Purpose    string          `json:"purpose" validate:"max=500"`
}

type ProcessLoanRequest struct {
	LoanID       uuid.UUID        `json:"-"`
	Status       LoanDecision     `json:"status" validate:"required,oneof=approved rejected"`
	ApprovedBy   uuid.UUID        `json:"approved_by" validate:"required"`
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty" validate:"omitempty,gte=0"`
}

type LoanWithScheduleResponse struct {
	Loan         *Loan              `json:"loan"`
	Installments []*LoanInstallment `json:"installments"`
}
