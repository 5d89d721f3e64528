package service

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/repository"
	customError "github.com/segyhp/coop-engine/pkg/errors"
	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/rs/zerolog"
)

type ReportService struct {
	uow     repository.UnitOfWork
	reports cache.ReportCache
	log     zerolog.Logger
}

func NewReportService(uow repository.UnitOfWork, reports cache.ReportCache, log zerolog.Logger) *ReportService {
	return &ReportService{
		uow:     uow,
		reports: reports,
		log:     log,
	}
}

// Generate aggregates savings, loan portfolio and collection figures over the
// inclusive window [start, end]. All sums are read from one snapshot.
func (s *ReportService) Generate(ctx context.Context, start, end time.Time) (*domain.FinancialReport, error) {
	if start.IsZero() || end.IsZero() {
		return nil, customError.WrapValidation("start_date and end_date are required")
	}
	if end.Before(start) {
		return nil, customError.WrapValidation("end_date must not be before start_date")
	}

	period := domain.ReportPeriod{Start: start, End: end}

	// The version is read before the snapshot so that a write committing
	// while the report is built bumps it past the key the report lands under.
	version, cacheable := int64(0), false
	if s.reports != nil {
		v, err := s.reports.Version(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("report cache unavailable")
		} else {
			version, cacheable = v, true
		}
	}

	if cacheable {
		cached, ok, err := s.reports.Get(ctx, version, period)
		if err != nil {
			s.log.Warn().Err(err).Msg("report cache unavailable")
		}
		if ok {
			return cached, nil
		}
	}

	report := &domain.FinancialReport{Period: period}

	err := s.uow.WithinSnapshot(ctx, func(r repository.Repos) error {
		savings, err := s.savings(ctx, r, start, end)
		if err != nil {
			return err
		}
		loans, err := s.loans(ctx, r, start, end)
		if err != nil {
			return err
		}
		installments, err := s.installments(ctx, r, start, end)
		if err != nil {
			return err
		}

		report.Savings = savings
		report.Loans = loans
		report.Installments = installments
		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	if cacheable {
		if err := s.reports.Set(ctx, version, period, report); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache report")
		}
	}

	s.log.Debug().
		Time("start", start).
		Time("end", end).
		Str("total_disbursed", report.Loans.TotalDisbursed.StringFixed(2)).
		Str("collection_rate", report.Installments.CollectionRate.StringFixed(2)).
		Msg("financial report generated")

	return report, nil
}

func (s *ReportService) savings(ctx context.Context, r repository.Repos, start, end time.Time) (domain.SavingsSummary, error) {
	totals, err := r.Ledger.SumTransactionsByType(ctx, start, end)
	if err != nil {
		return domain.SavingsSummary{}, customError.WrapDatabaseError(err)
	}
	balance, err := r.Ledger.SumBalances(ctx)
	if err != nil {
		return domain.SavingsSummary{}, customError.WrapDatabaseError(err)
	}

	deposits := totals[domain.TransactionTypeDeposit]
	withdrawals := totals[domain.TransactionTypeWithdrawal]

	return domain.SavingsSummary{
		TotalDeposits:    utils.RoundCurrency(deposits),
		TotalWithdrawals: utils.RoundCurrency(withdrawals),
		NetSavings:       utils.RoundCurrency(deposits.Sub(withdrawals)),
		TotalBalance:     utils.RoundCurrency(balance),
	}, nil
}

func (s *ReportService) loans(ctx context.Context, r repository.Repos, start, end time.Time) (domain.LoanPortfolioSummary, error) {
	disbursed, err := r.Loans.SumPrincipalDisbursed(ctx, domain.LoanStatusActive, start, end)
	if err != nil {
		return domain.LoanPortfolioSummary{}, customError.WrapDatabaseError(err)
	}
	repaid, err := r.Installments.SumRepaid(ctx, start, end)
	if err != nil {
		return domain.LoanPortfolioSummary{}, customError.WrapDatabaseError(err)
	}
	outstanding, err := r.Loans.SumRemainingBalance(ctx, domain.LoanStatusActive)
	if err != nil {
		return domain.LoanPortfolioSummary{}, customError.WrapDatabaseError(err)
	}
	counts, err := r.Loans.CountByStatus(ctx)
	if err != nil {
		return domain.LoanPortfolioSummary{}, customError.WrapDatabaseError(err)
	}

	return domain.LoanPortfolioSummary{
		TotalDisbursed:       utils.RoundCurrency(disbursed),
		TotalRepaid:          utils.RoundCurrency(repaid.Repaid),
		OutstandingPrincipal: utils.RoundCurrency(outstanding),
		InterestEarned:       utils.RoundCurrency(repaid.Interest),
		ActiveLoans:          counts[domain.LoanStatusActive],
		CompletedLoans:       counts[domain.LoanStatusCompleted],
	}, nil
}

func (s *ReportService) installments(ctx context.Context, r repository.Repos, start, end time.Time) (domain.InstallmentSummary, error) {
	expected, err := r.Installments.SumDue(ctx, start, end)
	if err != nil {
		return domain.InstallmentSummary{}, customError.WrapDatabaseError(err)
	}
	collected, err := r.Installments.SumCollected(ctx, start, end)
	if err != nil {
		return domain.InstallmentSummary{}, customError.WrapDatabaseError(err)
	}
	overdue, err := r.Installments.SumOutstandingDueBy(ctx, end)
	if err != nil {
		return domain.InstallmentSummary{}, customError.WrapDatabaseError(err)
	}

	return domain.InstallmentSummary{
		TotalExpected:  utils.RoundCurrency(expected),
		TotalCollected: utils.RoundCurrency(collected),
		OverdueAmount:  utils.RoundCurrency(overdue),
		CollectionRate: utils.Percentage(collected, expected),
	}, nil
}
