package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	l := New()
	window := time.Minute

	for i := 0; i < 3; i++ {
		if !l.Allow("client", 3, window) {
			t.Fatalf("request %d should have been allowed", i+1)
		}
	}
	if l.Allow("client", 3, window) {
		t.Error("request over the limit was allowed")
	}
	// A different key has its own window
	if !l.Allow("other", 3, window) {
		t.Error("independent key was blocked")
	}
}

func TestAllowAfterWindowExpiry(t *testing.T) {
	l := New()
	window := 10 * time.Millisecond

	if !l.Allow("client", 1, window) {
		t.Fatal("first request should pass")
	}
	if l.Allow("client", 1, window) {
		t.Fatal("second request should be blocked")
	}
	time.Sleep(2 * window)
	if !l.Allow("client", 1, window) {
		t.Error("request after window expiry should pass")
	}
}

func TestCleanup(t *testing.T) {
	l := New()
	l.Allow("stale", 5, time.Nanosecond)
	l.Allow("fresh", 5, time.Hour)
	time.Sleep(time.Millisecond)
	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries["stale"]; ok {
		t.Error("expired entry survived cleanup")
	}
	if _, ok := l.entries["fresh"]; !ok {
		t.Error("live entry was removed by cleanup")
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"plain remote addr", "203.0.113.7:41234", "", "203.0.113.7"},
		{"remote addr without port", "203.0.113.7", "", "203.0.113.7"},
		{"single forwarded ip", "10.0.0.1:80", "198.51.100.4", "198.51.100.4"},
		{"forwarded chain keeps first", "10.0.0.1:80", "198.51.100.4, 10.0.0.2, 10.0.0.3", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/", nil)
			if err != nil {
				t.Fatal(err)
			}
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := RealIP(r); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
