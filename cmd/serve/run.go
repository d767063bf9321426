package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/cdtrates/cache"
	"github.com/sig-0/cdtrates/cmd/setup"
	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/server"
	"github.com/sig-0/cdtrates/storage"
)

// run serves the API over the given storage, with the ingestion
// service refreshing the rates in the background
func run(
	ctx context.Context,
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
) error {
	// Create the ingestion service
	orchestrator, err := setup.Orchestrator(store, cfg.Scrape, logger)
	if err != nil {
		return err
	}

	// Create the aggregate cache, kept current by every finished cycle
	aggregates := cache.New(
		store,
		orchestrator,
		cache.WithLogger(logger),
		cache.WithTTL(cfg.Cache.TTL()),
	)

	orchestrator.OnCycle(aggregates.OnCycle)

	// Create the server instance
	s, err := server.New(
		aggregates,
		server.WithLogger(logger),
		server.WithConfig(cfg),
		server.WithHistory(store),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the ingestion service
	group.Go(func() error {
		return orchestrator.Start(gCtx)
	})

	return group.Wait()
}
