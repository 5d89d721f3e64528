package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/testutil/mocks"
	"github.com/segyhp/coop-engine/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var jobClock = time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)

func newTestJobs(loans *mocks.MockLoanManager, reports *mocks.MockReportGenerator, publisher *mocks.MockPublisher, buf *bytes.Buffer) *jobs {
	return &jobs{
		loans:     loans,
		reports:   reports,
		publisher: publisher,
		log:       logger.NewWithWriter(buf, "debug", "json"),
		now:       func() time.Time { return jobClock },
		timeout:   time.Minute,
	}
}

func TestSweepOverdue(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		setupMocks  func(*mocks.MockLoanManager, *mocks.MockPublisher)
		expectError bool
	}{
		{
			name: "publishes when installments are overdue",
			setupMocks: func(loans *mocks.MockLoanManager, pub *mocks.MockPublisher) {
				loans.On("ListOverdue", mock.Anything, asOf).Return(&domain.OverdueSummary{
					AsOf:   asOf,
					Count:  2,
					Amount: decimal.RequireFromString("1776.98"),
				}, nil)
				pub.On("Publish", mock.Anything, mocks.EventOfType(events.InstallmentsOverdue)).Return(nil)
			},
		},
		{
			name: "nothing overdue publishes nothing",
			setupMocks: func(loans *mocks.MockLoanManager, pub *mocks.MockPublisher) {
				loans.On("ListOverdue", mock.Anything, asOf).Return(&domain.OverdueSummary{AsOf: asOf, Amount: decimal.Zero}, nil)
			},
		},
		{
			name: "publish failure is not a job failure",
			setupMocks: func(loans *mocks.MockLoanManager, pub *mocks.MockPublisher) {
				loans.On("ListOverdue", mock.Anything, asOf).Return(&domain.OverdueSummary{
					AsOf:   asOf,
					Count:  1,
					Amount: decimal.RequireFromString("888.49"),
				}, nil)
				pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("channel closed"))
			},
		},
		{
			name: "service failure",
			setupMocks: func(loans *mocks.MockLoanManager, pub *mocks.MockPublisher) {
				loans.On("ListOverdue", mock.Anything, asOf).Return(nil, errors.New("database down"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans := new(mocks.MockLoanManager)
			pub := new(mocks.MockPublisher)
			tt.setupMocks(loans, pub)

			var buf bytes.Buffer
			j := newTestJobs(loans, new(mocks.MockReportGenerator), pub, &buf)

			err := j.sweepOverdue(context.Background())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			loans.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestWarmReports(t *testing.T) {
	currentStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	currentEnd := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).Add(-time.Microsecond)
	previousStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	previousEnd := currentStart.Add(-time.Microsecond)

	t.Run("generates current and previous month", func(t *testing.T) {
		reports := new(mocks.MockReportGenerator)
		reports.On("Generate", mock.Anything, currentStart, currentEnd).Return(&domain.FinancialReport{}, nil).Once()
		reports.On("Generate", mock.Anything, previousStart, previousEnd).Return(&domain.FinancialReport{}, nil).Once()

		var buf bytes.Buffer
		j := newTestJobs(new(mocks.MockLoanManager), reports, new(mocks.MockPublisher), &buf)

		require.NoError(t, j.warmReports(context.Background()))
		reports.AssertExpectations(t)
	})

	t.Run("returns the first failure", func(t *testing.T) {
		reports := new(mocks.MockReportGenerator)
		reports.On("Generate", mock.Anything, currentStart, currentEnd).Return(nil, errors.New("snapshot failed")).Maybe()
		reports.On("Generate", mock.Anything, previousStart, previousEnd).Return(&domain.FinancialReport{}, nil).Maybe()

		var buf bytes.Buffer
		j := newTestJobs(new(mocks.MockLoanManager), reports, new(mocks.MockPublisher), &buf)

		assert.EqualError(t, j.warmReports(context.Background()), "snapshot failed")
	})
}

func TestRun_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	j := newTestJobs(new(mocks.MockLoanManager), new(mocks.MockReportGenerator), new(mocks.MockPublisher), &buf)

	j.run("ok_job", func(context.Context) error { return nil })()
	assert.Contains(t, buf.String(), `"job":"ok_job"`)
	assert.Contains(t, buf.String(), "scheduled job completed")

	buf.Reset()
	j.run("bad_job", func(context.Context) error { return errors.New("boom") })()
	assert.Contains(t, buf.String(), `"job":"bad_job"`)
	assert.Contains(t, buf.String(), "scheduled job failed")
	assert.Contains(t, buf.String(), "boom")
}
