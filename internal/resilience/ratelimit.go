package resilience

import (
	"context"
	"sync"
	"time"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
)

// RateLimiter is per-provider sliding-window admission control. Check is
// non-blocking: a rejected caller decides whether to queue, fail, or switch
// provider. One mutex serializes all window mutation, so concurrent commands
// never race on limiter state.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	max           int
	window        time.Duration
	pruneInterval time.Duration
	now           func() time.Time
}

// NewRateLimiter creates a limiter from config, applying defaults for
// zero values (60 requests per 60s window).
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	max := cfg.MaxRequests
	if max <= 0 {
		max = 60
	}
	window := cfg.Window
	if window <= 0 {
		window = 60 * time.Second
	}
	prune := cfg.PruneInterval
	if prune <= 0 {
		prune = 30 * time.Second
	}

	return &RateLimiter{
		windows:       make(map[string][]time.Time),
		max:           max,
		window:        window,
		pruneInterval: prune,
		now:           time.Now,
	}
}

// Check admits or rejects one request for the provider. Admission records
// the request timestamp; rejection returns domain.ErrRateLimited and records
// nothing.
func (l *RateLimiter) Check(provider string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := 0
	for _, ts := range l.windows[provider] {
		if ts.After(cutoff) {
			recent++
		}
	}
	if recent >= l.max {
		return domain.NewDomainError("RateLimiter.Check", domain.ErrRateLimited, provider)
	}

	l.windows[provider] = append(l.windows[provider], now)
	return nil
}

// InFlight returns the number of requests counted against the provider's
// current window. Observability only.
func (l *RateLimiter) InFlight(provider string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, ts := range l.windows[provider] {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

// Start runs the background prune loop until ctx is cancelled. Pruning is
// on a fixed interval, independent of request traffic, so idle providers
// do not hold stale timestamp lists.
func (l *RateLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(l.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.prune()
		case <-ctx.Done():
			return
		}
	}
}

func (l *RateLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for provider, stamps := range l.windows {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(l.windows, provider)
			continue
		}
		l.windows[provider] = kept
	}
}
