package repository

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// GetByIDForUpdate retrieves a loan and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// ListByUser retrieves every loan owned by a member, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)

	// Update persists status, financial terms and approval fields of a loan
	Update(ctx context.Context, loan *domain.Loan) error

	// DecrementBalance lowers remaining_balance by amount, floored at zero
	DecrementBalance(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) error

	// SumPrincipalDisbursed sums principal of loans in status disbursed within [start, end]
	SumPrincipalDisbursed(ctx context.Context, status domain.LoanStatus, start, end time.Time) (decimal.Decimal, error)

	// SumRemainingBalance sums remaining_balance of every loan in status
	SumRemainingBalance(ctx context.Context, status domain.LoanStatus) (decimal.Decimal, error)

	// CountByStatus counts loans grouped by status
	CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error)
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// CreateBatch inserts a full schedule in one statement
	CreateBatch(ctx context.Context, installments []*domain.LoanInstallment) error

	// GetByID retrieves an installment by its ID
	GetByID(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error)

	// GetByIDForUpdate retrieves an installment and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error)

	// ListByLoanID retrieves the schedule of a loan ordered by installment number
	ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error)

	// ApplyPayment atomically adds amount to paid_amount. The update only
	// happens while the new total does not exceed the installment amount;
	// ok is false when that guard rejected it.
	ApplyPayment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal, recordedBy uuid.UUID, at time.Time) (inst *domain.LoanInstallment, ok bool, err error)

	// ListOverdue retrieves unpaid installments due before asOf
	ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.LoanInstallment, error)

	// SumRepaid sums paid_amount and interest_amount of installments fully paid within [start, end]
	SumRepaid(ctx context.Context, start, end time.Time) (domain.RepaymentTotals, error)

	// SumDue sums amount of installments due within [start, end]
	SumDue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)

	// SumCollected sums paid_amount of installments with a payment dated within [start, end]
	SumCollected(ctx context.Context, start, end time.Time) (decimal.Decimal, error)

	// SumOutstandingDueBy sums amount - paid_amount of unpaid installments due on or before end
	SumOutstandingDueBy(ctx context.Context, end time.Time) (decimal.Decimal, error)
}

// UserDirectory is the member directory owned by the user module
type UserDirectory interface {
	// Exists reports whether userID resolves to a member
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AccountLedger is the read-only view of savings accounts and their transactions
type AccountLedger interface {
	// SumBalances sums the current balance of every account
	SumBalances(ctx context.Context) (decimal.Decimal, error)

	// SumTransactionsByType sums transaction amounts per type created within [start, end]
	SumTransactionsByType(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error)
}

// Repos groups repositories bound to the same transaction
type Repos struct {
	Loans        LoanRepository
	Installments InstallmentRepository
	Users        UserDirectory
	Ledger       AccountLedger
}

// UnitOfWork runs a function against repositories sharing one transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	// WithinTx runs fn in a read-write transaction
	WithinTx(ctx context.Context, fn func(r Repos) error) error

	// WithinSnapshot runs fn in a read-only repeatable-read transaction
	WithinSnapshot(ctx context.Context, fn func(r Repos) error) error
}
