package server

import (
	"log/slog"

	"github.com/sig-0/cdtrates/config"
)

type Option func(s *Server)

// WithLogger specifies the logger for the server
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithConfig specifies the config for the server
func WithConfig(c *config.Config) Option {
	return func(s *Server) {
		s.config = c
	}
}

// WithHistory specifies the snapshot history used for the market trend
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}
