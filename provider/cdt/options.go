package cdt

import (
	"io"
	"log/slog"
	"time"
)

type options struct {
	logger *slog.Logger
	now    func() time.Time

	baseURL string
	months  int
	pause   time.Duration
}

func defaultOptions() options {
	return options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return time.Now().UTC() },
		baseURL: DefaultConsolidatorURL,
		months:  DefaultConsolidatorMonths,
		pause:   DefaultConsolidatorPause,
	}
}

type Option func(o *options)

// WithLogger specifies the logger for the source
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock overrides the source time source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithBaseURL overrides the consolidator base URL
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithMonths specifies how many monthly consolidator pages are scraped,
// starting from the current month
func WithMonths(months int) Option {
	return func(o *options) {
		if months > 0 {
			o.months = months
		}
	}
}

// WithPause specifies the pause between consolidator pages
func WithPause(pause time.Duration) Option {
	return func(o *options) {
		if pause >= 0 {
			o.pause = pause
		}
	}
}
