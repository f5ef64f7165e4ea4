package httpmw

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_RequestIDAndAccessLog(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)

	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}), WithRequestID, WithAccessLog(logger), WithRecover(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/game/state", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	rid := rec.Header().Get("X-Request-Id")
	require.NotEmpty(t, rid)
	assert.Len(t, rid, 36)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(2), entry["bytes"])
	assert.Equal(t, rid, entry["request_id"])
	assert.Equal(t, rid, seen)
}

func TestWithRequestID_KeepsIncomingID(t *testing.T) {
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestWithRecover_APIGetsJSON(t *testing.T) {
	var logs bytes.Buffer
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), WithRequestID, WithRecover(log.New(&logs, "", 0)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/game/click", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Contains(t, logs.String(), "panic_recovered")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "internal server error"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-Ip", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	now = now.Add(time.Hour)
	assert.True(t, rl.Allow("c"))
	assert.Equal(t, 1, rl.Len())
}

func TestWithRateLimit_Returns429(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := WithRateLimit(rl, func(r *http.Request) string { return r.Header.Get("X-Player") })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func(player string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/game/click", nil)
		req.Header.Set("X-Player", player)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("p1"))
	assert.Equal(t, http.StatusTooManyRequests, do("p1"))
	assert.Equal(t, http.StatusNoContent, do("p2"))
}

func TestLog_SetsTimestampLevelAndMessage(t *testing.T) {
	var logs bytes.Buffer
	fields := Fields{"msg": "ignored", "player_id": "p1"}
	Log(log.New(&logs, "", 0), "warn", "save_slow", fields)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.NotEmpty(t, entry["ts"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "save_slow", entry["msg"])
	assert.Equal(t, "p1", entry["player_id"])
	assert.Equal(t, "ignored", fields["msg"])
}

func TestWithRequestID_ReplacesMalformedID(t *testing.T) {
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, bad := range []string{"has space", strings.Repeat("x", 65), "quote\"d"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, bad)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Len(t, rec.Header().Get(HeaderRequestID), 36, bad)
	}
}

func TestWithAccessLog_LevelFollowsStatus(t *testing.T) {
	for status, level := range map[int]string{200: "info", 404: "warn", 503: "error"} {
		var logs bytes.Buffer
		h := WithAccessLog(log.New(&logs, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
		assert.Equal(t, level, entry["level"])
		assert.Equal(t, float64(status), entry["status"])
	}
}
