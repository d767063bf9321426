package show

import (
	"context"
	"errors"
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
	"github.com/sig-0/cdtrates/storage/types"
)

var errNoAggregate = errors.New("no rates available, run the scrape command first")

// showCfg wraps the show configuration
type showCfg struct {
	config *config.Config

	configPath string
	dataDir    string
	term       int
	top        int
}

// NewShowCmd creates the show command
func NewShowCmd() *ffcli.Command {
	cfg := &showCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("show", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "show",
		ShortUsage: "show [flags]",
		LongHelp:   "Prints the current ranking from the data directory",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *showCfg) registerFlags(fs *flag.FlagSet) {
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

	fs.IntVar(
		&c.term,
		"term",
		types.DefaultTerm,
		"the term (in days) of the term ranking",
	)

	fs.IntVar(
		&c.top,
		"top",
		5,
		"the number of offers in the term ranking",
	)
}

func (c *showCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := setup.Config(c.config, c.configPath)
	if err != nil {
		return err
	}

	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}

	store, err := file.NewStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("unable to open data directory: %w", err)
	}

	agg, err := store.LatestAggregate(ctx)
	if errors.Is(err, storage.ErrNoSnapshot) {
		return errNoAggregate
	}

	if err != nil {
		return fmt.Errorf("unable to read current aggregate: %w", err)
	}

	return report.Aggregate(os.Stdout, agg, c.term, max(c.top, 1))
}
