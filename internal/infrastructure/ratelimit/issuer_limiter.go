// Package ratelimit provides the per-issuer gate protecting upstream
// key-discovery calls.
package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// IssuerLimiter enforces a minimum interval between key-discovery calls for
// each issuer. Limiter state is created lazily on first use of an issuer.
type IssuerLimiter struct {
	mu                sync.RWMutex
	limiters          map[string]*minIntervalGate
	minIntervalMillis int64
	now               func() time.Time
}

// minIntervalGate grants at most one acquisition per interval, using
// compare-and-set so concurrent callers cannot both win the same slot.
type minIntervalGate struct {
	lastRequestEpochMillis atomic.Int64
}

// NewIssuerLimiter creates a limiter allowing requestsPerMinute acquisitions
// per issuer per minute, spread as a minimum interval.
func NewIssuerLimiter(requestsPerMinute int) *IssuerLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &IssuerLimiter{
		limiters:          make(map[string]*minIntervalGate),
		minIntervalMillis: int64(60000 / requestsPerMinute),
		now:               time.Now,
	}
}

// TryAcquire returns true and records the acquisition if at least the minimum
// interval has passed since the issuer's last successful acquisition. On
// denial no state is mutated.
func (l *IssuerLimiter) TryAcquire(issuer string) bool {
	gate := l.gateFor(issuer)

	now := l.now().UnixMilli()
	last := gate.lastRequestEpochMillis.Load()
	if now-last < l.minIntervalMillis {
		return false
	}
	return gate.lastRequestEpochMillis.CompareAndSwap(last, now)
}

func (l *IssuerLimiter) gateFor(issuer string) *minIntervalGate {
	l.mu.RLock()
	gate, ok := l.limiters[issuer]
	l.mu.RUnlock()
	if ok {
		return gate
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gate, ok = l.limiters[issuer]; ok {
		return gate
	}
	gate = &minIntervalGate{}
	l.limiters[issuer] = gate
	return gate
}
