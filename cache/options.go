package cache

import (
	"log/slog"
	"time"
)

type Option func(c *Cache)

// WithLogger specifies the logger for the cache
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithTTL specifies the cached aggregate time-to-live. Defaults to 5m
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the cache time source
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}
