package analyses

import (
	"sync"
	"time"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	pollPruneEvery      = 1024
)

// pollLimiter enforces a minimum interval between status reads of the same
// analysis by the same client. A nil limiter allows everything.
type pollLimiter struct {
	mu       sync.Mutex
	lastRead map[string]time.Time
	now      func() time.Time
	interval time.Duration
	calls    int
}

func newPollLimiter(interval time.Duration, now func() time.Time) *pollLimiter {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &pollLimiter{
		lastRead: make(map[string]time.Time),
		now:      now,
		interval: interval,
	}
}

// Allow records a read of analysisID by client. When the previous read was
// too recent it returns false and how long the client should wait.
func (l *pollLimiter) Allow(client, analysisID string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key := client + "|" + analysisID
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls%pollPruneEvery == 0 {
		l.prune(now)
	}
	if last, ok := l.lastRead[key]; ok {
		if wait := l.interval - now.Sub(last); wait > 0 {
			return false, wait
		}
	}
	l.lastRead[key] = now
	return true, 0
}

func (l *pollLimiter) prune(now time.Time) {
	for key, last := range l.lastRead {
		if now.Sub(last) >= l.interval {
			delete(l.lastRead, key)
		}
	}
}

func (l *pollLimiter) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastRead)
}
