package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips    map[string]*limiterEntry
	mu     sync.Mutex
	r      rate.Limit
	b      int
	logger *slog.Logger
	now    func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int, logger *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*limiterEntry),
		r:      r,
		b:      b,
		logger: logger,
		now:    time.Now,
	}
}

// StartCleanup evicts limiters not used for idle, every interval, until ctx
// is cancelled.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			i.evictIdle(idle)
		case <-ctx.Done():
			return
		}
	}
}

func (i *IPRateLimiter) evictIdle(idle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	cutoff := i.now().Add(-idle)
	evicted := 0
	for ip, e := range i.ips {
		if e.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
			evicted++
		}
	}
	if evicted > 0 {
		i.logger.Debug("Evicted idle rate limiters", "count", evicted, "remaining", len(i.ips))
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	e, exists := i.ips[ip]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = i.now()
	return e.limiter
}
