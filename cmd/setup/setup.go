// Package setup wires the service components shared by the commands
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sig-0/cdtrates/cmd/env"
	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/fetch"
	"github.com/sig-0/cdtrates/ingest"
	"github.com/sig-0/cdtrates/provider/cdt"
	"github.com/sig-0/cdtrates/storage"
)

// Logger creates the command logger, and loads the .env file, if any
func Logger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	return logger
}

// Config reads the service configuration, if a path is given,
// and validates it
func Config(cfg *config.Config, path string) (*config.Config, error) {
	if path != "" {
		fileCfg, err := config.Read(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config, %w", err)
		}

		cfg = fileCfg
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	return cfg, nil
}

// Fetcher creates the page fetcher from the scrape configuration
func Fetcher(cfg *config.Scrape, logger *slog.Logger) *fetch.Fetcher {
	fetchCfg := fetch.DefaultConfig()

	fetchCfg.Timeout = cfg.Timeout()
	fetchCfg.RetryAttempts = cfg.RetryAttempts
	fetchCfg.RetryDelay = cfg.RetryDelay()
	fetchCfg.HostInterval = cfg.HostInterval()
	fetchCfg.InsecureSkipVerify = cfg.InsecureSkipVerify

	if len(cfg.UserAgents) > 0 {
		fetchCfg.UserAgents = cfg.UserAgents
	}

	return fetch.New(fetchCfg, fetch.WithLogger(logger))
}

// Orchestrator creates the ingestion service, with the default sources registered
func Orchestrator(
	store storage.Storage,
	cfg *config.Scrape,
	logger *slog.Logger,
) (*ingest.Orchestrator, error) {
	orchestrator := ingest.New(
		store,
		ingest.WithLogger(logger),
		ingest.WithWorkers(cfg.Workers),
		ingest.WithInterval(cfg.RefreshInterval()),
	)

	providers := cdt.DefaultProviders(
		Fetcher(cfg, logger),
		cdt.WithLogger(logger),
		cdt.WithMonths(cfg.ConsolidatorMonths),
	)

	for _, provider := range providers {
		if err := orchestrator.Register(provider); err != nil {
			return nil, fmt.Errorf("unable to register provider: %w", err)
		}
	}

	return orchestrator, nil
}

// ConnectDB opens and pings the DB connection pool.
// An empty DSN is read from the environment. The returned func closes the pool
func ConnectDB(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	if dsn == "" {
		dsn = os.Getenv(env.Prefix + env.DBURLSuffix)
	}

	if dsn == "" {
		return nil, nil, fmt.Errorf("missing %s", env.Prefix+env.DBURLSuffix)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open DB connection: %w", err)
	}

	// Check DB reachability
	pingCtx, cancelPing := context.WithTimeout(ctx, time.Second*5)
	defer cancelPing()

	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, nil, fmt.Errorf("unable to reach DB (ping): %w", err)
	}

	logger.Info("DB ping success")

	return pool, pool.Close, nil
}
