package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/segyhp/coop-engine/pkg/response"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// HeaderIdempotencyKey carries the client-chosen key of a mutating request
	HeaderIdempotencyKey = "Idempotency-Key"

	// provisionalLockTTL bounds how long an in-flight request holds its key
	provisionalLockTTL = 60 * time.Second

	maxKeyLength     = 128
	maxClaimAttempts = 3
	keyPrefix        = "coop:idempotency:"
)

type entry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

type recorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteHeader(statusCode int) {
	r.code = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Idempotency replays the stored response of a POST that was already handled
// under the same Idempotency-Key. Requests without the header pass through.
// A key reused with a different body, or while the first request is still
// running, is answered with 409.
func Idempotency(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idemKey := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idemKey) > maxKeyLength {
				response.BadRequest(w, "Idempotency-Key is too long", nil)
				return
			}

			var body []byte
			if r.Body != nil {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					response.BadRequest(w, "Unable to read request body", err)
					return
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := buildKey(r.Method, r.URL.Path, idemKey)
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			claimed, cur, err := claim(ctx, rdb, key, entry{InProgress: true, BodySHA256: hash, CreatedAt: time.Now().UTC()})
			if err != nil {
				logger.Error().Err(err).Str("key", key).Msg("idempotency store unavailable")
				response.Error(w, http.StatusServiceUnavailable, "Idempotency store unavailable", nil)
				return
			}

			if !claimed {
				if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
					response.Error(w, http.StatusConflict, "Idempotency-Key reused with a different body", nil)
					return
				}
				if !cur.InProgress && cur.Code != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cur.Code)
					w.Write(cur.Body)
					return
				}
				response.Error(w, http.StatusConflict, "Request with this Idempotency-Key is already in progress", nil)
				return
			}

			rec := &recorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client can retry them
			if rec.code >= http.StatusInternalServerError {
				if err := rdb.Del(context.Background(), key).Err(); err != nil {
					logger.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
				}
				return
			}

			final := entry{
				Code:       rec.code,
				Body:       rec.buf.Bytes(),
				BodySHA256: hash,
				CreatedAt:  time.Now().UTC(),
			}
			if err := saveFinal(context.Background(), rdb, key, final, ttl); err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
			}
		})
	}
}

func bodyHash(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

func buildKey(method, path, idemKey string) string {
	return keyPrefix + strings.ToLower(method) + ":" + path + ":" + idemKey
}

// entryStore is the subset of *redis.Client used to claim a key
type entryStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// claim takes key for the current request. When the key is already held it
// returns the stored entry instead. A key that expires between SETNX and GET
// is claimed again.
func claim(ctx context.Context, store entryStore, key string, e entry) (bool, entry, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, entry{}, err
	}

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		ok, err := store.SetNX(ctx, key, payload, provisionalLockTTL).Result()
		if err != nil {
			return false, entry{}, err
		}
		if ok {
			return true, entry{}, nil
		}

		cur, err := loadEntry(ctx, store, key)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, entry{}, err
		}
		return false, cur, nil
	}

	return false, entry{}, fmt.Errorf("claim %s: key kept expiring after %d attempts", key, maxClaimAttempts)
}

func loadEntry(ctx context.Context, store entryStore, key string) (entry, error) {
	var e entry
	v, err := store.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(v, &e)
	return e, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, e entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
