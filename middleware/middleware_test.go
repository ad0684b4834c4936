package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func stubVerify(t *testing.T, fn func(ctx context.Context, token string) (string, error)) {
	t.Helper()
	orig := verifySession
	verifySession = fn
	t.Cleanup(func() { verifySession = orig })
}

func TestClerkAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	h := ClerkAuthMiddleware(okHandler)

	for _, header := range []string{"", "Token abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/streak", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestClerkAuthStoresSubject(t *testing.T) {
	stubVerify(t, func(ctx context.Context, token string) (string, error) {
		if token != "good" {
			return "", errors.New("bad signature")
		}
		return "user_123", nil
	})

	var got string
	h := ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClerkID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user_123", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobAuth(t *testing.T) {
	const secret = "job-secret"
	h := JobAuthMiddleware(secret)(okHandler)

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/notifications/check", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	valid, err := NewJobToken(secret, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call(valid))

	wrongKey, err := NewJobToken("other", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(wrongKey))

	expired, err := NewJobToken(secret, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(expired))

	otherSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(otherSubject))

	assert.Equal(t, http.StatusUnauthorized, call(""))
}

func TestNewJobTokenNeedsSecret(t *testing.T) {
	token, err := NewJobToken("", time.Hour)
	assert.ErrorIs(t, err, ErrNoJobSecret)
	assert.Empty(t, token)
}

func TestJobAuthWithoutSecret(t *testing.T) {
	h := JobAuthMiddleware("")(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2, nil)
	h := rl.Middleware(okHandler)

	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote + ":40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("1.1.1.1"))
	assert.Equal(t, http.StatusOK, call("2.2.2.2"))
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	h := rl.Middleware(okHandler)

	call := func(spoofed string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("2.2.2.2"))
	assert.Equal(t, http.StatusTooManyRequests, call("3.3.3.3"))
}

func TestRateLimiterBehindTrustedProxy(t *testing.T) {
	rl := NewRateLimiter(1, 1, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	ip := func(remote, fwd string) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if fwd != "" {
			req.Header.Set("X-Forwarded-For", fwd)
		}
		return rl.clientIP(req)
	}

	// the proxy appends the peer it saw; anything left of it is client-supplied
	assert.Equal(t, "198.51.100.4", ip("10.0.0.2:443", "1.2.3.4, 198.51.100.4"))
	assert.Equal(t, "198.51.100.4", ip("10.0.0.2:443", "198.51.100.4, 10.0.0.9"))
	assert.Equal(t, "10.0.0.2", ip("10.0.0.2:443", ""))
	assert.Equal(t, "203.0.113.7", ip("203.0.113.7:443", "1.2.3.4"))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.getLimiter("1.1.1.1")

	rl.evict(time.Now())
	assert.Len(t, rl.visitors, 1)

	rl.evict(time.Now().Add(visitorTTL + time.Second))
	assert.Empty(t, rl.visitors)
}

func TestBasicAuth(t *testing.T) {
	h := BasicAuthMiddleware("prom", "scrape")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "scrape")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	open := BasicAuthMiddleware("", "")(okHandler)
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("", "")
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMonitorUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MonitorMiddleware)
	var seen string
	r.HandleFunc("/logs/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = routeTemplate(r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/logs/abc-123", nil))
	assert.Equal(t, "/logs/{id}", seen)
}
