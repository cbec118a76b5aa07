package cookbook

import (
	"testing"
	"time"
)

func TestImportLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewImportLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first import to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second import to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third import to be blocked")
	}
}

func TestImportLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewImportLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first import to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second import to be blocked")
	}

	now = now.Add(61 * time.Second)
	if !limiter.Allow(ip) {
		t.Fatalf("expected import after window to be allowed")
	}
}

func TestImportLimiterIsPerIP(t *testing.T) {
	limiter := NewImportLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestImportLimiterDisabled(t *testing.T) {
	limiter := NewImportLimiter(0, time.Minute)
	defer limiter.Stop()
	for i := 0; i < 50; i++ {
		if !limiter.Allow("203.0.113.40") {
			t.Fatalf("disabled limiter blocked attempt %d", i)
		}
	}
}
