package mocks

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	_ service.LoanManager     = (*MockLoanManager)(nil)
	_ service.PaymentRecorder = (*MockPaymentRecorder)(nil)
	_ service.ReportGenerator = (*MockReportGenerator)(nil)
)

type MockLoanManager struct {
	mock.Mock
}

func (m *MockLoanManager) Apply(ctx context.Context, request *domain.ApplyLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) Process(ctx context.Context, request *domain.ProcessLoanRequest) (*domain.Loan, []*domain.LoanInstallment, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var installments []*domain.LoanInstallment
	if args.Get(1) != nil {
		installments = args.Get(1).([]*domain.LoanInstallment)
	}
	return args.Get(0).(*domain.Loan), installments, args.Error(2)
}

func (m *MockLoanManager) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) ListInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanInstallment), args.Error(1)
}

func (m *MockLoanManager) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) Complete(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanManager) ListOverdue(ctx context.Context, asOf time.Time) (*domain.OverdueSummary, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OverdueSummary), args.Error(1)
}

type MockPaymentRecorder struct {
	mock.Mock
}

func (m *MockPaymentRecorder) RecordPayment(ctx context.Context, request *domain.RecordPaymentRequest) (*domain.LoanInstallment, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanInstallment), args.Error(1)
}

type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, start, end time.Time) (*domain.FinancialReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialReport), args.Error(1)
}
