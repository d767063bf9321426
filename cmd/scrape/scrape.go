package scrape

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/cdtrates/cmd/env"
	"github.com/sig-0/cdtrates/cmd/report"
	"github.com/sig-0/cdtrates/cmd/setup"
	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/file"
	"github.com/sig-0/cdtrates/storage/memory"
)

// scrapeCfg wraps the scrape configuration
type scrapeCfg struct {
	config *config.Config

	configPath string
	dataDir    string
	dryRun     bool
}

// NewScrapeCmd creates the scrape command
func NewScrapeCmd() *ffcli.Command {
	cfg := &scrapeCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "scrape",
		ShortUsage: "scrape [flags]",
		LongHelp:   "Runs a single scrape cycle, and prints its summary",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *scrapeCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)

	fs.StringVar(
		&c.dataDir,
		"data-dir",
		"",
		"the aggregates directory (defaults to the config data_dir)",
	)

	fs.BoolVar(
		&c.dryRun,
		"dry-run",
		false,
		"keep the aggregate in memory, without writing it to the data directory",
	)
}

func (c *scrapeCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := setup.Config(c.config, c.configPath)
	if err != nil {
		return err
	}

	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}

	logger := setup.Logger()

	var store storage.Storage = memory.NewStorage()

	if !c.dryRun {
		if store, err = file.NewStorage(cfg.DataDir); err != nil {
			return fmt.Errorf("unable to open data directory: %w", err)
		}
	}

	orchestrator, err := setup.Orchestrator(store, cfg.Scrape, logger)
	if err != nil {
		return err
	}

	cycle, err := orchestrator.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("scrape cycle failed: %w", err)
	}

	return report.Cycle(os.Stdout, cycle)
}
