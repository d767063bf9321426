package serve

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/cdtrates/cmd/env"
	"github.com/sig-0/cdtrates/cmd/setup"
	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/storage/file"
)

type serveFileCfg struct {
	rootCfg *serveCfg

	dataDir string
}

// newServeFileCmd creates the serve file command
func newServeFileCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveFileCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("file", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.dataDir,
		"data-dir",
		"",
		fmt.Sprintf("the aggregates directory (default %q, or the config data_dir)", config.DefaultDataDir),
	)

	return &ffcli.Command{
		Name:       "file",
		ShortUsage: "serve file [flags]",
		LongHelp:   "Serves the CDT rates API, keeping the aggregates as JSON files",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *serveFileCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := c.rootCfg.resolve()
	if err != nil {
		return err
	}

	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}

	logger := setup.Logger()

	store, err := file.NewStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("unable to open data directory: %w", err)
	}

	logger.Info("using file storage", "dir", cfg.DataDir)

	return run(ctx, cfg, store, logger)
}
