package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/segyhp/coop-engine/pkg/response"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Pinger is satisfied by *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type dependencyCheck func(ctx context.Context) error

// HealthHandler serves the liveness and readiness endpoints
type HealthHandler struct {
	checks  map[string]dependencyCheck
	timeout time.Duration
}

func NewHealthHandler(db Pinger, rdb *redis.Client, timeout time.Duration) *HealthHandler {
	checks := map[string]dependencyCheck{
		"database": db.PingContext,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return &HealthHandler{checks: checks, timeout: timeout}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health reports that the process is serving requests
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{},
	})
}

// Ready pings every dependency concurrently; any failure answers 503
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		status = HealthStatus{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	)

	// Failures land in status; the group only waits.
	var g errgroup.Group
	for name, check := range h.checks {
		g.Go(func() error {
			result := "ok"
			if err := check(ctx); err != nil {
				result = "failed: " + err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			status.Checks[name] = result
			if result != "ok" {
				status.Status = "error"
			}
			return nil
		})
	}
	_ = g.Wait()
	status.Timestamp = time.Now().UTC()

	if status.Status != "ok" {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	response.Success(w, status)
}
