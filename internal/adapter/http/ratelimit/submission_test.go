package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, d time.Duration) (*SubmissionLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewSubmissionLimiter(limit, d)
	l.now = clock.Now
	return l, clock
}

func TestSubmissionLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		ok, wait := l.Allow("client1")
		assert.True(t, ok)
		assert.Zero(t, wait)
	}

	ok, wait := l.Allow("client1")
	assert.False(t, ok)
	assert.Equal(t, time.Hour, wait)
}

func TestSubmissionLimiter_RetryAfterShrinks(t *testing.T) {
	l, clock := newTestLimiter(1, time.Hour)

	l.Allow("client1")
	clock.Advance(20 * time.Minute)

	ok, wait := l.Allow("client1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Minute, wait)
}

func TestSubmissionLimiter_WindowResets(t *testing.T) {
	l, clock := newTestLimiter(2, time.Hour)

	l.Allow("client1")
	l.Allow("client1")
	clock.Advance(time.Hour)

	ok, _ := l.Allow("client1")
	assert.True(t, ok)
}

func TestSubmissionLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour)

	l.Allow("client1")
	ok, _ := l.Allow("client1")
	require.False(t, ok)

	ok, _ = l.Allow("client2")
	assert.True(t, ok)
}

func TestSubmissionLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour)

	l.Allow("client1")
	l.Reset("client1")

	ok, _ := l.Allow("client1")
	assert.True(t, ok)
}

func TestSubmissionLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(0, time.Hour)

	for i := 0; i < 1000; i++ {
		ok, _ := l.Allow("client1")
		require.True(t, ok)
	}
}

func TestSubmissionLimiter_Prune(t *testing.T) {
	l, clock := newTestLimiter(5, time.Hour)

	l.Allow("old")
	clock.Advance(45 * time.Minute)
	l.Allow("fresh")
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, l.Prune())

	l.mu.Lock()
	_, oldExists := l.windows["old"]
	_, freshExists := l.windows["fresh"]
	l.mu.Unlock()
	assert.False(t, oldExists)
	assert.True(t, freshExists)
}

func TestSubmissionLimiter_ConcurrentAccess(t *testing.T) {
	l := NewSubmissionLimiter(50, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if ok, _ := l.Allow("concurrent-client"); ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestSubmissionLimiter_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour)
	calls := 0
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/conversion/url", nil)
	req.RemoteAddr = "203.0.113.7:5555"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusAccepted, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "3600", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "Too many requests")
	assert.Equal(t, 1, calls)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "198.51.100.1:1234"
	assert.Equal(t, "198.51.100.1", ClientIP(req))

	req.RemoteAddr = "198.51.100.2"
	assert.Equal(t, "198.51.100.2", ClientIP(req))
}
