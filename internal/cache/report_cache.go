package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"
	customError "github.com/segyhp/coop-engine/pkg/errors"

	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix  = "coop:report:financial"
	reportVersionKey = reportKeyPrefix + ":version"
)

// ReportCache stores generated financial reports per window. Entries are keyed
// by a write version so that any committed loan or payment change makes every
// previously cached report unreachable. Callers read the version once, before
// taking their snapshot, and pass the same version to Get and Set; a report
// built from a pre-write snapshot is then only ever stored under the
// pre-write version.
type ReportCache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, version int64, period domain.ReportPeriod) (*domain.FinancialReport, bool, error)
	Set(ctx context.Context, version int64, period domain.ReportPeriod, report *domain.FinancialReport) error
	Invalidate(ctx context.Context) error
}

type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

// Version returns the current write version, 0 before the first write
func (c *RedisReportCache) Version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, reportVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, customError.WrapCacheError(fmt.Errorf("get report version: %w", err))
	}
	return version, nil
}

func (c *RedisReportCache) Get(ctx context.Context, version int64, period domain.ReportPeriod) (*domain.FinancialReport, bool, error) {
	payload, err := c.client.Get(ctx, reportKey(version, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, customError.WrapCacheError(fmt.Errorf("get cached report: %w", err))
	}

	var report domain.FinancialReport
	if err := json.Unmarshal(payload, &report); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set
		return nil, false, nil
	}
	return &report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, version int64, period domain.ReportPeriod, report *domain.FinancialReport) error {
	if c.ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return customError.WrapCacheError(fmt.Errorf("marshal report: %w", err))
	}

	if err := c.client.Set(ctx, reportKey(version, period), payload, c.ttl).Err(); err != nil {
		return customError.WrapCacheError(fmt.Errorf("set cached report: %w", err))
	}
	return nil
}

// Invalidate bumps the write version
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, reportVersionKey).Err(); err != nil {
		return customError.WrapCacheError(fmt.Errorf("bump report version: %w", err))
	}
	return nil
}

func reportKey(version int64, period domain.ReportPeriod) string {
	return fmt.Sprintf("%s:v%d:%d:%d", reportKeyPrefix, version,
		period.Start.UTC().UnixMicro(), period.End.UTC().UnixMicro())
}
