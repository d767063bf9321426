package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/metrics"
	"github.com/sig-0/cdtrates/storage/types"
)

// RoutesFn is a callback that receives a router for registering routes
type RoutesFn func(router chi.Router)

// Aggregates serves the current aggregate, and refreshes it on demand
type Aggregates interface {
	// Get returns the current aggregate, nil if there is none
	Get(context.Context) *types.Aggregate

	// Refresh runs a full scrape cycle
	Refresh(context.Context) (*types.CycleReport, error)
}

// History lists historical aggregates, newest first
type History interface {
	Snapshots(context.Context, int) ([]*types.Aggregate, error)
}

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type Server struct {
	logger *slog.Logger
	config *config.Config

	aggregates Aggregates
	history    History

	mux *chi.Mux
}

// New creates a new server instance
func New(aggregates Aggregates, opts ...Option) (*Server, error) {
	s := &Server{
		logger:     noopLogger,
		aggregates: aggregates,
		config:     config.DefaultConfig(),
		mux:        chi.NewMux(),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	// Validate the configuration
	if err := config.ValidateConfig(s.config); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	// Set up the CORS middleware
	if s.config.CORSConfig != nil {
		corsMiddleware := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSConfig.AllowedOrigins,
			AllowedMethods: s.config.CORSConfig.AllowedMethods,
			AllowedHeaders: s.config.CORSConfig.AllowedHeaders,
		})

		s.mux.Use(corsMiddleware.Handler)
	}

	s.mux.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaOTEL,
		RecoverPanics: true,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == 404 ||
				respStatus == 405 ||
				r.URL.Path == "/health" ||
				r.URL.Path == "/metrics"
		},
	}))

	// Register the health check handler
	s.mux.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	s.mux.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Register the API docs
	s.mux.Get("/openapi.yaml", s.OpenAPI)
	s.mux.Get("/docs", s.Redoc)

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/rates", s.Rates)
		r.Get("/ranking", s.Ranking)
		r.Get("/ranking/{term}", s.TermRanking)
		r.Get("/banks", s.Banks)
		r.Get("/bank/{code}", s.Bank)
		r.Get("/terms", s.Terms)
		r.Get("/stats", s.Stats)

		r.Post("/simulate", s.Simulate)
		r.Post("/compare", s.Compare)
		r.Post("/refresh", s.Refresh)
	})

	return s, nil
}

// Routes calls fn with the server mux so callers can add endpoints
func (s *Server) Routes(fn RoutesFn) {
	if fn == nil {
		return
	}

	fn(s.mux)
}

// ServeHTTP dispatches the request to the server mux
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve serves the rates API until the context is canceled
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer s.logger.Info("server shut down")

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}

		s.logger.Info(
			fmt.Sprintf(
				"server started at %s",
				ln.Addr().String(),
			),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()

		s.logger.Info("server to be shutdown")

		wsCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		return server.Shutdown(wsCtx)
	})

	return group.Wait()
}
