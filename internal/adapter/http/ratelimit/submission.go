package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bnema/audiochunk/internal/infrastructure/logger"
)

type window struct {
	Count   int
	Started time.Time
}

// SubmissionLimiter allows each client a fixed number of submissions per
// window. A limit below 1 disables it.
type SubmissionLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
}

func NewSubmissionLimiter(limit int, duration time.Duration) *SubmissionLimiter {
	return &SubmissionLimiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow counts one submission for clientID. When the client is over its
// limit it returns false and the time until its window resets.
func (l *SubmissionLimiter) Allow(clientID string) (bool, time.Duration) {
	if l.limit < 1 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[clientID]
	if !ok || now.Sub(w.Started) >= l.duration {
		w = &window{Started: now}
		l.windows[clientID] = w
	}

	if w.Count >= l.limit {
		return false, w.Started.Add(l.duration).Sub(now)
	}
	w.Count++
	return true, 0
}

func (l *SubmissionLimiter) Reset(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, clientID)
}

// Prune drops windows that have expired.
func (l *SubmissionLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for clientID, w := range l.windows {
		if now.Sub(w.Started) >= l.duration {
			delete(l.windows, clientID)
			removed++
		}
	}
	return removed
}

// Run prunes expired windows every interval until ctx is done.
func (l *SubmissionLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := l.Prune(); n > 0 {
				logger.Debug.Printf("rate limiter: pruned %d client window(s)", n)
			}
		}
	}
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// Clients are keyed by remote IP, so it belongs after chi's RealIP.
func (l *SubmissionLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientIP(r)
		ok, retryAfter := l.Allow(client)
		if !ok {
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			logger.Warn.Printf("rate limit exceeded for %s", logger.SanitizeForLog(client))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests","message":"submission limit reached, retry later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
