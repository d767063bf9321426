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
)

// serveCfg wraps the serve configuration.
// Flags take precedence over the configuration file
type serveCfg struct {
	configPath    string
	listenAddress string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the CDT rates API, refreshing the rates periodically",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeFileCmd(cfg),
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.listenAddress,
		"listen",
		"",
		fmt.Sprintf("the IP:PORT URL for the server (default %q)", config.DefaultListenAddress),
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)
}

// resolve reads the service configuration, applying the flag overrides
func (c *serveCfg) resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()

	if c.listenAddress != "" {
		cfg.ListenAddress = c.listenAddress
	}

	cfg, err := setup.Config(cfg, c.configPath)
	if err != nil {
		return nil, err
	}

	if c.listenAddress != "" && cfg.ListenAddress != c.listenAddress {
		cfg.ListenAddress = c.listenAddress

		if err := config.ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("invalid listen address, %w", err)
		}
	}

	return cfg, nil
}
