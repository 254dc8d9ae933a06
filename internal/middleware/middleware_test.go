package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/clue/log"
)

func okHandler(t *testing.T, wantUser uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantUser != uuid.Nil {
			assert.Equal(t, wantUser, GetUserID(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error.Code
}

// ─── JWT ───

func TestJWTAuth_BearerToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	token, err := auth.IssueToken(userID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/lessons", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	auth.Middleware(okHandler(t, userID)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestJWTAuth_CookieToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	token, err := auth.IssueToken(userID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/vocab", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rr := httptest.NewRecorder()

	auth.Middleware(okHandler(t, userID)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestJWTAuth_Rejections(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	expired, _ := auth.IssueToken(uuid.New(), -time.Minute)
	foreign, _ := NewJWTAuth("other-secret").IssueToken(uuid.New(), time.Minute)
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("test-secret"))

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", "UNAUTHORIZED"},
		{"basic scheme", "Basic abc", "UNAUTHORIZED"},
		{"garbage token", "Bearer nope", "UNAUTHORIZED"},
		{"wrong secret", "Bearer " + foreign, "UNAUTHORIZED"},
		{"expired", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"bad user id", "Bearer " + badSubject, "UNAUTHORIZED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/lessons", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			auth.Middleware(okHandler(t, uuid.Nil)).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, rr))
		})
	}
}

// ─── Request ID ───

func TestRequestID_GeneratesAndKeeps(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

// ─── CORS ───

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:5173/"})(okHandler(t, uuid.Nil))

	req := httptest.NewRequest(http.MethodGet, "/api/lessons", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/lessons", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

// ─── Rate limiting ───

func TestRateLimiter_PerKeyBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(context.Background(), "1.2.3.4")
	assert.False(t, ok)

	ok, _ = rl.Allow(context.Background(), "5.6.7.8")
	assert.True(t, ok)
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()
	h := RequestID(RateLimit(rl)(okHandler(t, uuid.Nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/system/healthz", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/system/healthz", nil)
	req.RemoteAddr = "10.0.0.1:6666"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rr))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Close()

	rl.Allow(context.Background(), "a")
	rl.visitors["a"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.cleanup()

	assert.Empty(t, rl.visitors)
}

// ─── Logging ───

func TestLogging_KeepsResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	var got http.ResponseWriter
	h := Logging(log.FormatJSON)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = w
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
		log.Print(r.Context(), log.KV{K: "msg", V: "inside handler"})
	}))

	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", nil))

	assert.Same(t, rr, got)
}
