package verify

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/cdtrates/cmd/env"
	"github.com/sig-0/cdtrates/cmd/report"
	"github.com/sig-0/cdtrates/cmd/setup"
	"github.com/sig-0/cdtrates/config"
	"github.com/sig-0/cdtrates/extract"
	"github.com/sig-0/cdtrates/provider/banks"
	"github.com/sig-0/cdtrates/provider/cdt"
	verifypkg "github.com/sig-0/cdtrates/verify"
)

// verifyCfg wraps the verify configuration
type verifyCfg struct {
	config *config.Config

	configPath string
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *ffcli.Command {
	cfg := &verifyCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.StringVar(
		&cfg.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)

	return &ffcli.Command{
		Name:       "verify",
		ShortUsage: "verify [flags]",
		LongHelp:   "Checks that every source page is reachable, and still lists offers",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *verifyCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := setup.Config(c.config, c.configPath)
	if err != nil {
		return err
	}

	logger := setup.Logger()

	verifier := verifypkg.New(
		setup.Fetcher(cfg.Scrape, logger),
		extract.New(
			extract.WithLogger(logger),
			extract.WithResolver(banks.DefaultResolver()),
		),
		verifypkg.WithLogger(logger),
		verifypkg.WithWorkers(cfg.Scrape.Workers),
	)

	targets := verifypkg.DefaultTargets(
		cdt.DefaultConsolidatorURL,
		time.Now().UTC(),
		cfg.Scrape.ConsolidatorMonths,
	)

	return report.Verification(os.Stdout, verifier.Run(ctx, targets))
}
