package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/repository"
	"github.com/segyhp/coop-engine/pkg/amortization"
	customError "github.com/segyhp/coop-engine/pkg/errors"
	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type LoanService struct {
	uow    repository.UnitOfWork
	notify notifier
	log    zerolog.Logger

	// Now is the clock used for approval and audit timestamps
	Now func() time.Time
}

func NewLoanService(
	uow repository.UnitOfWork,
	publisher events.Publisher,
	reports cache.ReportCache,
	log zerolog.Logger,
) *LoanService {
	return &LoanService{
		uow:    uow,
		notify: notifier{publisher: publisher, reports: reports, log: log},
		log:    log,
		Now:    time.Now,
	}
}

// Apply registers a pending loan application for an existing member
func (s *LoanService) Apply(ctx context.Context, request *domain.ApplyLoanRequest) (*domain.Loan, error) {
	if request.UserID == uuid.Nil {
		return nil, customError.WrapValidation("user_id is required")
	}
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("amount must be greater than 0")
	}
	if !utils.FitsScale(request.Amount, domain.CurrencyPlaces) {
		return nil, customError.WrapValidation("amount must have at most 2 decimal places")
	}
	if request.Amount.GreaterThan(domain.MaxAmount) {
		return nil, customError.WrapValidation("amount must not exceed " + domain.MaxAmount.String())
	}
	if request.TermMonths < 1 {
		return nil, customError.WrapValidation("term_months must be at least 1")
	}

	now := s.Now().UTC()
	loan := &domain.Loan{
		ID:               uuid.New(),
		UserID:           request.UserID,
		Amount:           request.Amount,
		InterestRate:     decimal.Zero,
		TermMonths:       request.TermMonths,
		MonthlyPayment:   decimal.Zero,
		TotalAmount:      decimal.Zero,
		RemainingBalance: decimal.Zero,
		Status:           domain.LoanStatusPending,
		Purpose:          request.Purpose,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		exists, err := r.Users.Exists(ctx, request.UserID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !exists {
			return customError.WrapUserNotFound(request.UserID.String())
		}

		if err := r.Loans.Create(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Str("user_id", loan.UserID.String()).
		Str("amount", loan.Amount.StringFixed(2)).
		Int("term_months", loan.TermMonths).
		Msg("loan application received")

	s.notify.committed(ctx, events.New(events.LoanApplied, loan), false)

	return loan, nil
}

// Process records management's decision on a pending application. Approval
// computes the amortization schedule and activates the loan; the loan update
// and the schedule insert commit together.
func (s *LoanService) Process(ctx context.Context, request *domain.ProcessLoanRequest) (*domain.Loan, []*domain.LoanInstallment, error) {
	var target domain.LoanStatus
	switch request.Status {
	case domain.LoanDecisionApproved:
		target = domain.LoanStatusActive
	case domain.LoanDecisionRejected:
		target = domain.LoanStatusRejected
	default:
		return nil, nil, customError.WrapValidation("status must be approved or rejected")
	}
	if request.ApprovedBy == uuid.Nil {
		return nil, nil, customError.WrapValidation("approved_by is required")
	}
	if rate := request.InterestRate; rate != nil {
		if rate.IsNegative() {
			return nil, nil, customError.WrapValidation("interest_rate must not be negative")
		}
		if !utils.FitsScale(*rate, domain.RatePlaces) {
			return nil, nil, customError.WrapValidation("interest_rate must have at most 4 decimal places")
		}
		if rate.GreaterThan(domain.MaxInterestRate) {
			return nil, nil, customError.WrapValidation("interest_rate must not exceed " + domain.MaxInterestRate.String())
		}
	}

	var (
		loan         *domain.Loan
		installments []*domain.LoanInstallment
	)

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, request.LoanID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(request.LoanID.String())
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		if !l.Status.CanTransitionTo(target) {
			return customError.WrapInvalidLoanState(l.ID.String(), string(l.Status), "process")
		}

		now := s.Now().UTC()
		approver := request.ApprovedBy

		if target == domain.LoanStatusRejected {
			l.Status = domain.LoanStatusRejected
			l.ApprovedBy = &approver
			l.ApprovedAt = nil
			l.DisbursedAt = nil
			l.InterestRate = decimal.Zero
			l.MonthlyPayment = decimal.Zero
			l.TotalAmount = decimal.Zero
			l.RemainingBalance = decimal.Zero
			l.UpdatedAt = now

			if err := r.Loans.Update(ctx, l); err != nil {
				return customError.WrapDatabaseError(err)
			}
			loan = l
			return nil
		}

		if request.InterestRate == nil {
			return customError.WrapMissingInterestRate()
		}

		terms, err := amortization.Calculate(l.Amount, *request.InterestRate, l.TermMonths, now)
		if err != nil {
			return customError.WrapValidation(err.Error())
		}

		l.Status = domain.LoanStatusActive
		l.InterestRate = *request.InterestRate
		l.MonthlyPayment = terms.MonthlyPayment
		l.TotalAmount = terms.TotalAmount
		l.RemainingBalance = terms.TotalAmount
		l.ApprovedBy = &approver
		l.ApprovedAt = &now
		l.DisbursedAt = &now
		l.UpdatedAt = now

		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}

		schedule := buildInstallments(l.ID, terms, now)
		if err := r.Installments.CreateBatch(ctx, schedule); err != nil {
			return customError.WrapDatabaseError(err)
		}

		loan = l
		installments = schedule
		return nil
	})
	if err != nil {
		return nil, nil, txError(err)
	}

	eventType := events.LoanApproved
	if loan.Status == domain.LoanStatusRejected {
		eventType = events.LoanRejected
	}

	s.log.Info().
		Str("loan_id", loan.ID.String()).
		Str("status", string(loan.Status)).
		Str("approved_by", request.ApprovedBy.String()).
		Str("monthly_payment", loan.MonthlyPayment.StringFixed(2)).
		Str("total_amount", loan.TotalAmount.StringFixed(2)).
		Int("installments", len(installments)).
		Msg("loan application processed")

	s.notify.committed(ctx, events.New(eventType, loan), true)

	return loan, installments, nil
}

func buildInstallments(loanID uuid.UUID, terms *amortization.Terms, now time.Time) []*domain.LoanInstallment {
	installments := make([]*domain.LoanInstallment, 0, len(terms.Schedule))
	for _, entry := range terms.Schedule {
		installments = append(installments, &domain.LoanInstallment{
			ID:                uuid.New(),
			LoanID:            loanID,
			InstallmentNumber: entry.InstallmentNumber,
			DueDate:           entry.DueDate,
			Amount:            entry.Amount,
			PrincipalAmount:   entry.PrincipalAmount,
			InterestAmount:    entry.InterestAmount,
			PaidAmount:        decimal.Zero,
			IsPaid:            false,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	return installments
}

// GetLoan retrieves a loan by ID
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.uow.WithinSnapshot(ctx, func(r repository.Repos) error {
		l, err := getLoan(ctx, r, loanID)
		if err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return loan, nil
}

// ListInstallments returns the repayment schedule of a loan. Pending and
// rejected loans have an empty schedule.
func (s *LoanService) ListInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error) {
	var installments []*domain.LoanInstallment
	err := s.uow.WithinSnapshot(ctx, func(r repository.Repos) error {
		if _, err := getLoan(ctx, r, loanID); err != nil {
			return err
		}

		list, err := r.Installments.ListByLoanID(ctx, loanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		installments = list
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return installments, nil
}

// ListByUser returns a member's loans, newest first
func (s *LoanService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := s.uow.WithinSnapshot(ctx, func(r repository.Repos) error {
		exists, err := r.Users.Exists(ctx, userID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !exists {
			return customError.WrapUserNotFound(userID.String())
		}

		list, err := r.Loans.ListByUser(ctx, userID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		loans = list
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}
	return loans, nil
}

// Complete closes an active loan whose remaining balance has reached zero.
// Payments never complete a loan on their own.
func (s *LoanService) Complete(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		l, err := r.Loans.GetByIDForUpdate(ctx, loanID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(loanID.String())
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		if !l.Status.CanTransitionTo(domain.LoanStatusCompleted) {
			return customError.WrapInvalidLoanState(l.ID.String(), string(l.Status), "complete")
		}
		if l.RemainingBalance.IsPositive() {
			return customError.WrapLoanNotSettled(l.ID.String(), l.RemainingBalance.StringFixed(2))
		}

		l.Status = domain.LoanStatusCompleted
		l.UpdatedAt = s.Now().UTC()
		if err := r.Loans.Update(ctx, l); err != nil {
			return customError.WrapDatabaseError(err)
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	s.log.Info().Str("loan_id", loan.ID.String()).Msg("loan completed")
	s.notify.committed(ctx, events.New(events.LoanCompleted, loan), true)

	return loan, nil
}

// ListOverdue returns unpaid installments due before asOf
func (s *LoanService) ListOverdue(ctx context.Context, asOf time.Time) (*domain.OverdueSummary, error) {
	summary := &domain.OverdueSummary{
		AsOf:         asOf,
		Amount:       decimal.Zero,
		Installments: []*domain.LoanInstallment{},
	}

	err := s.uow.WithinSnapshot(ctx, func(r repository.Repos) error {
		list, err := r.Installments.ListOverdue(ctx, asOf)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		for _, inst := range list {
			if inst.IsOverdue(asOf) {
				summary.Installments = append(summary.Installments, inst)
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	for _, inst := range summary.Installments {
		summary.Amount = summary.Amount.Add(inst.Outstanding())
	}
	summary.Amount = utils.RoundCurrency(summary.Amount)
	summary.Count = len(summary.Installments)

	return summary, nil
}

func getLoan(ctx context.Context, r repository.Repos, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := r.Loans.GetByID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}
