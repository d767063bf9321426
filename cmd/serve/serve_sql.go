package serve

import (
	"context"
	"flag"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/cdtrates/cmd/env"
	"github.com/sig-0/cdtrates/cmd/setup"
	"github.com/sig-0/cdtrates/storage/sql"
)

type serveSQLCfg struct {
	rootCfg *serveCfg

	dbURL string
}

// newServeSQLCmd creates the serve sql command
func newServeSQLCmd(rootCfg *serveCfg) *ffcli.Command {
	cfg := &serveSQLCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	cfg.rootCfg.registerFlags(fs)

	fs.StringVar(
		&cfg.dbURL,
		"db-url",
		"",
		"the DB connection string (defaults to the "+env.Prefix+env.DBURLSuffix+" env variable)",
	)

	return &ffcli.Command{
		Name:       "sql",
		ShortUsage: "serve sql [flags]",
		LongHelp:   "Serves the CDT rates API, using an SQL datastore",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

// exec executes the server serve command
func (c *serveSQLCfg) exec(ctx context.Context, _ []string) error {
	cfg, err := c.rootCfg.resolve()
	if err != nil {
		return err
	}

	// Create a new logger
	logger := setup.Logger()

	pool, closeFn, err := setup.ConnectDB(ctx, c.dbURL, logger)
	if err != nil {
		return err
	}

	defer closeFn()

	return run(ctx, cfg, sql.NewStorage(pool), logger)
}
