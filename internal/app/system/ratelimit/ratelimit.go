// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per key. It is safe for concurrent use.
// Expired windows are swept lazily, so there is no background goroutine.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	duration  time.Duration
	nextSweep time.Time
	now       func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit attempts per key per duration.
func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweep drops expired windows at most once per duration. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.duration)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SignInLimiter throttles passcode attempts per client IP and per member.
// The shared passcode makes guessing from many members at one address the
// main threat, so the IP window is the wider one.
type SignInLimiter struct {
	ip     *Limiter
	member *Limiter
}

// NewSignInLimiter returns the defaults: 10 attempts per IP per minute and
// 5 per member per 5 minutes.
func NewSignInLimiter() *SignInLimiter {
	return NewSignInLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewSignInLimiterWithConfig creates a limiter with custom windows.
func NewSignInLimiterWithConfig(ipLimit int, ipDuration time.Duration, memberLimit int, memberDuration time.Duration) *SignInLimiter {
	return &SignInLimiter{
		ip:     New(ipLimit, ipDuration),
		member: New(memberLimit, memberDuration),
	}
}

// Check records an attempt. It returns false and a reason when blocked.
// A nil limiter allows everything.
func (sl *SignInLimiter) Check(r *http.Request, memberID string) (bool, string) {
	if sl == nil {
		return true, ""
	}
	if !sl.ip.Allow(ClientIP(r)) {
		return false, "too many sign-in attempts, wait a minute"
	}
	if key := strings.TrimSpace(memberID); key != "" && !sl.member.Allow(key) {
		return false, "too many sign-in attempts for this member, wait a few minutes"
	}
	return true, ""
}

// ResetMember clears the member window after a successful sign-in.
func (sl *SignInLimiter) ResetMember(memberID string) {
	if sl == nil {
		return
	}
	sl.member.Reset(strings.TrimSpace(memberID))
}
