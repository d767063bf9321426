package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiter spaces out requests to the same host
type hostLimiter struct {
	limiters map[string]*rate.Limiter
	every    rate.Limit

	mu sync.Mutex
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval)
	}

	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
	}
}

// wait blocks until the host of the given URL may be requested again
func (l *hostLimiter) wait(ctx context.Context, rawURL string) error {
	if l.every == rate.Inf {
		return nil
	}

	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	l.mu.Lock()

	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.every, 1)
		l.limiters[host] = limiter
	}

	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	return nil
}
