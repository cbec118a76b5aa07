package cookbook

import (
	"sync"
	"time"
)

// ImportLimiter rate-limits recipe imports per client IP with a sliding window.
type ImportLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewImportLimiter creates an ImportLimiter that allows max imports per window.
// A non-positive max disables limiting.
func NewImportLimiter(max int, window time.Duration) *ImportLimiter {
	l := &ImportLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if max > 0 && window > 0 {
		go l.cleanup()
	}
	return l
}

func (l *ImportLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := l.now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.attempts {
			kept := prune(hits, cutoff)
			if len(kept) == 0 {
				delete(l.attempts, ip)
			} else {
				l.attempts[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Allow reports whether ip may start another import and, if so, records it.
func (l *ImportLimiter) Allow(ip string) bool {
	if l.max <= 0 || l.window <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.attempts[ip], now.Add(-l.window))
	if len(kept) >= l.max {
		l.attempts[ip] = kept
		return false
	}
	l.attempts[ip] = append(kept, now)
	return true
}

// Stop ends the background cleanup goroutine.
func (l *ImportLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
