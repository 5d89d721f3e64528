package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

// countingHandler answers with status and counts invocations
func countingHandler(calls *int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"call":%d,"echo":%s}`, n, body)
	})
}

func post(path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	return req
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, post("/api/v1/installments/1/payments", "pay-1", `{"paid_amount":50}`))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, post("/api/v1/installments/1/payments", "pay-1", `{"paid_amount":50}`))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "k1", `{"amount":100}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, post("/api/v1/loans", "k1", `{"amount":200}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotency_InProgressConflicts(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusCreated))

	body := `{"amount":100}`
	key := buildKey(http.MethodPost, "/api/v1/loans", "k2")
	require.NoError(t, mr.Set(key, `{"in_progress":true,"body_sha256":"`+bodyHash([]byte(body))+`"}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, post("/api/v1/loans", "k2", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusInternalServerError))

	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "k3", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "k3", `{}`))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.False(t, mr.Exists(buildKey(http.MethodPost, "/api/v1/loans", "k3")))
}

func TestIdempotency_PassThrough(t *testing.T) {
	_, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/loans/1", nil))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	mr.Close()
	var calls int32
	h := Idempotency(rdb, time.Hour, zerolog.Nop())(countingHandler(&calls, http.StatusCreated))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, post("/api/v1/loans", "k4", `{}`))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_ExpiredKeyRunsAgain(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	var calls int32
	h := Idempotency(rdb, time.Minute, zerolog.Nop())(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "k5", `{}`))
	mr.FastForward(2 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), post("/api/v1/loans", "k5", `{}`))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "coop:idempotency:post:/api/v1/loans:abc", buildKey("POST", "/api/v1/loans", "abc"))
}

// expiringStore lets the held key lapse right after a failed SETNX, once
type expiringStore struct {
	*redis.Client
	mr      *miniredis.Miniredis
	expired int
}

func (s *expiringStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	cmd := s.Client.SetNX(ctx, key, value, expiration)
	if cmd.Err() == nil && !cmd.Val() && s.expired == 0 {
		s.mr.Del(key)
		s.expired++
	}
	return cmd
}

func TestClaim(t *testing.T) {
	ctx := context.Background()
	pending := entry{InProgress: true, BodySHA256: "abc"}

	t.Run("free key is claimed", func(t *testing.T) {
		_, rdb := newMiniRedis(t)

		claimed, _, err := claim(ctx, rdb, "k", pending)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("held key returns the stored entry", func(t *testing.T) {
		_, rdb := newMiniRedis(t)
		_, _, err := claim(ctx, rdb, "k", entry{Code: http.StatusCreated, BodySHA256: "abc"})
		require.NoError(t, err)

		claimed, cur, err := claim(ctx, rdb, "k", pending)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Equal(t, http.StatusCreated, cur.Code)
	})

	t.Run("key expiring between SETNX and GET is claimed again", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		require.NoError(t, mr.Set("k", `{"in_progress":true}`))
		store := &expiringStore{Client: rdb, mr: mr}

		claimed, _, err := claim(ctx, store, "k", pending)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, 1, store.expired)

		stored, err := mr.Get("k")
		require.NoError(t, err)
		assert.Contains(t, stored, `"body_sha256":"abc"`)
	})

	t.Run("store failure", func(t *testing.T) {
		mr, rdb := newMiniRedis(t)
		mr.Close()

		_, _, err := claim(ctx, rdb, "k", pending)
		assert.Error(t, err)
	})
}
