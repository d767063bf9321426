package extract

import "log/slog"

type Option func(e *Extractor)

// WithLogger specifies the logger for the extractor
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithResolver specifies the entity resolver.
// Without one, free-text extraction yields nothing
func WithResolver(r Resolver) Option {
	return func(e *Extractor) {
		e.resolver = r
	}
}

// WithFallbackTerm specifies the term assigned to card offers that
// don't state a single term. Defaults to 360 days
func WithFallbackTerm(days int) Option {
	return func(e *Extractor) {
		if days > 0 {
			e.fallbackTerm = days
		}
	}
}
