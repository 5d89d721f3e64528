package mocks

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.LoanRepository        = (*MockLoanRepository)(nil)
	_ repository.InstallmentRepository = (*MockInstallmentRepository)(nil)
	_ repository.UserDirectory         = (*MockUserDirectory)(nil)
	_ repository.AccountLedger         = (*MockAccountLedger)(nil)
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) DecrementBalance(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, loanID, amount)
	return args.Error(0)
}

func (m *MockLoanRepository) SumPrincipalDisbursed(ctx context.Context, status domain.LoanStatus, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, status, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanRepository) SumRemainingBalance(ctx context.Context, status domain.LoanStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.LoanStatus]int), args.Error(1)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, installments []*domain.LoanInstallment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) GetByID(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Error(1)
}

func (m *MockInstallmentRepository) GetByIDForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanInstallment), args.Error(1)
}

func (m *MockInstallmentRepository) ApplyPayment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal, recordedBy uuid.UUID, at time.Time) (*domain.LoanInstallment, bool, error) {
	args := m.Called(ctx, installmentID, amount, recordedBy, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Bool(1), args.Error(2)
}

func (m *MockInstallmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.LoanInstallment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanInstallment), args.Error(1)
}

func (m *MockInstallmentRepository) SumRepaid(ctx context.Context, start, end time.Time) (domain.RepaymentTotals, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(domain.RepaymentTotals), args.Error(1)
}

func (m *MockInstallmentRepository) SumDue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInstallmentRepository) SumCollected(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInstallmentRepository) SumOutstandingDueBy(ctx context.Context, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockAccountLedger struct {
	mock.Mock
}

func (m *MockAccountLedger) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountLedger) SumTransactionsByType(ctx context.Context, start, end time.Time) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// Store bundles one mock per repository
type Store struct {
	Loans        *MockLoanRepository
	Installments *MockInstallmentRepository
	Users        *MockUserDirectory
	Ledger       *MockAccountLedger
}

func NewStore() *Store {
	return &Store{
		Loans:        &MockLoanRepository{},
		Installments: &MockInstallmentRepository{},
		Users:        &MockUserDirectory{},
		Ledger:       &MockAccountLedger{},
	}
}

func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Loans:        s.Loans,
		Installments: s.Installments,
		Users:        s.Users,
		Ledger:       s.Ledger,
	}
}

// AssertExpectations asserts every repository mock
func (s *Store) AssertExpectations(t mock.TestingT) {
	s.Loans.AssertExpectations(t)
	s.Installments.AssertExpectations(t)
	s.Users.AssertExpectations(t)
	s.Ledger.AssertExpectations(t)
}
