package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segyhp/coop-engine/internal/handler"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		redisDown      bool
		expectedStatus int
		expectedBody   string
	}{
		{name: "all dependencies up", expectedStatus: http.StatusOK, expectedBody: `"database":"ok"`},
		{name: "database down", dbErr: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedBody: "connection refused"},
		{name: "redis down", redisDown: true, expectedStatus: http.StatusServiceUnavailable, expectedBody: `"redis":"failed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer rdb.Close()
			if tt.redisDown {
				mr.Close()
			}

			h := handler.NewHealthHandler(fakePinger{err: tt.dbErr}, rdb, time.Second)
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestHealthHandler_Health(t *testing.T) {
	h := handler.NewHealthHandler(fakePinger{}, nil, time.Second)
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
