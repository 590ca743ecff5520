package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(l *Limiter) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(l.Handler)
		rt.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	})
	return r
}

func hit(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLimiter_BurstThenTooManyRequests(t *testing.T) {
	l := NewLimiter(2, 0)
	t.Cleanup(l.Close)
	h := newLimitedRouter(l)

	// a new source port per request must not reset the bucket
	assert.Equal(t, http.StatusOK, hit(h, "/v1/acme/ping", "10.0.0.1:40001").Code)
	assert.Equal(t, http.StatusOK, hit(h, "/v1/acme/ping", "10.0.0.1:40002").Code)
	rec := hit(h, "/v1/acme/ping", "10.0.0.1:40003")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "/v1/beta/ping", "10.0.0.1:40004").Code, "other tenant")
	assert.Equal(t, http.StatusOK, hit(h, "/v1/acme/ping", "10.0.0.2:40001").Code, "other host")
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(1, 2)
	t.Cleanup(l.Close)
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	ok, _ := l.Allow("k")
	require.True(t, ok)
	ok, wait := l.Allow("k")
	require.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	clock = clock.Add(500 * time.Millisecond)
	ok, _ = l.Allow("k")
	assert.True(t, ok)

	// refill never exceeds capacity
	clock = clock.Add(time.Hour)
	ok, _ = l.Allow("k")
	assert.True(t, ok)
	ok, _ = l.Allow("k")
	assert.False(t, ok)
}

func TestLimiter_SweepAndClose(t *testing.T) {
	l := NewLimiter(5, 1)
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(bucketIdle - time.Minute)
	l.Allow("recent")
	clock = clock.Add(2 * time.Minute)
	l.sweep()
	assert.Equal(t, 1, l.size())

	l.Close()
	l.Close()
	select {
	case <-l.done:
	default:
		t.Fatal("sweeper still running after Close")
	}
}

func TestClientKey(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/v1/{tenant}/x", func(w http.ResponseWriter, r *http.Request) { got = ClientKey(r) })

	hit(r, "/v1/acme/x", "192.0.2.7:5123")
	assert.Equal(t, "acme|192.0.2.7", got)
	hit(r, "/v1/acme/x", "[2001:db8::1]:443")
	assert.Equal(t, "acme|2001:db8::1", got)
	hit(r, "/v1/acme/x", "pipe")
	assert.Equal(t, "acme|pipe", got)
}
