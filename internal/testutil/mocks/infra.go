package mocks

import (
	"context"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/events"

	"github.com/stretchr/testify/mock"
)

var (
	_ events.Publisher  = (*MockPublisher)(nil)
	_ cache.ReportCache = (*MockReportCache)(nil)
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// EventOfType matches an event by its type
func EventOfType(eventType string) any {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == eventType })
}

type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportCache) Get(ctx context.Context, version int64, period domain.ReportPeriod) (*domain.FinancialReport, bool, error) {
	args := m.Called(ctx, version, period)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.FinancialReport), args.Bool(1), args.Error(2)
}

func (m *MockReportCache) Set(ctx context.Context, version int64, period domain.ReportPeriod, report *domain.FinancialReport) error {
	args := m.Called(ctx, version, period, report)
	return args.Error(0)
}

func (m *MockReportCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
