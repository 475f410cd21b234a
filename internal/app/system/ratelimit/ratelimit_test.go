package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_WindowAndReset(t *testing.T) {
	now := time.Date(2030, 4, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two attempts should pass")
	}
	if l.Allow("a") {
		t.Error("third attempt should be blocked")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("other keys are independent")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("a") {
		t.Error("window should have expired")
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}

	l.Reset("a")
	if got := l.Remaining("a"); got != 2 {
		t.Errorf("Remaining after Reset = %d, want 2", got)
	}
}

func TestLimiter_SweepsExpired(t *testing.T) {
	now := time.Date(2030, 4, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(2 * time.Minute)
	l.Allow("c")

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.windows) != 1 {
		t.Errorf("expected only the live window, got %d", len(l.windows))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded", "203.0.113.7, 10.0.0.1", "", "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", "", "198.51.100.2", "10.0.0.1:1234", "198.51.100.2"},
		{"remote with port", "", "", "192.0.2.9:5555", "192.0.2.9"},
		{"remote without port", "", "", "192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/session", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignInLimiter(t *testing.T) {
	sl := NewSignInLimiterWithConfig(10, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/session", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := sl.Check(r, "pres"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, reason := sl.Check(r, "pres"); ok || reason == "" {
		t.Errorf("third attempt: ok=%v reason=%q", ok, reason)
	}
	if ok, _ := sl.Check(r, "sec"); !ok {
		t.Error("another member should pass")
	}

	sl.ResetMember("pres")
	if ok, _ := sl.Check(r, "pres"); !ok {
		t.Error("reset member should pass")
	}

	var none *SignInLimiter
	if ok, _ := none.Check(r, "pres"); !ok {
		t.Error("nil limiter allows everything")
	}
	none.ResetMember("pres")
}
