package middleware

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/model"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetIPUntrustedRemote(t *testing.T) {
	m := &RateLimitMiddleware{
		trustedProxyCIDRs: parseTrustedProxyCIDRs([]string{"10.0.0.0/8"}),
	}

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.20:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.1")

	got := m.getIP(req)
	want := "198.51.100.20"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestGetIPTrustedProxyUsesRightMostUntrusted(t *testing.T) {
	m := &RateLimitMiddleware{
		trustedProxyCIDRs: parseTrustedProxyCIDRs([]string{"10.0.0.0/8"}),
	}

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 198.51.100.10")

	got := m.getIP(req)
	want := "198.51.100.10"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestGetIPTrustedProxySkipsTrustedChain(t *testing.T) {
	m := &RateLimitMiddleware{
		trustedProxyCIDRs: parseTrustedProxyCIDRs([]string{"10.0.0.0/8"}),
	}

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.10, 10.1.1.1")

	got := m.getIP(req)
	want := "203.0.113.10"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestGetIPTrustedProxyFallbackToXRealIP(t *testing.T) {
	m := &RateLimitMiddleware{
		trustedProxyCIDRs: parseTrustedProxyCIDRs([]string{"10.0.0.0/8"}),
	}

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Real-IP", "198.51.100.11")

	got := m.getIP(req)
	want := "198.51.100.11"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

type fakeCounter struct {
	hits map[string]int
	err  error
}

func (f *fakeCounter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.hits[key]++
	return f.hits[key] <= limit, window, nil
}

func limitedHandler(m *RateLimitMiddleware) http.Handler {
	return m.Limit("resolve", 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestLimitKeysByUser(t *testing.T) {
	counter := &fakeCounter{hits: make(map[string]int)}
	h := limitedHandler(NewRateLimitMiddleware(counter, nil, &config.AppConfig{}))

	call := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserContextKey, &model.UserDTO{ID: userID}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("sup-1").Code)

	rec := call("sup-1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), string(helper.KindRateLimited))

	assert.Equal(t, http.StatusNoContent, call("sup-2").Code)
	assert.Equal(t, 1, counter.hits["ratelimit:user:resolve:sup-2"])
}

func TestLimitFallsBackToLocalLimiter(t *testing.T) {
	cfg := &config.AppConfig{ResolveRateLimit: 1, ResolveRateWindow: time.Hour}
	fallback := config.NewRateLimiter(cfg)
	defer fallback.Stop()

	h := limitedHandler(NewRateLimitMiddleware(&fakeCounter{err: errors.New("redis down")}, fallback, cfg))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.1:5000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimitWithoutFallbackReportsUnavailable(t *testing.T) {
	h := limitedHandler(NewRateLimitMiddleware(&fakeCounter{err: errors.New("redis down")}, nil, &config.AppConfig{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
