package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/cdtrates/cmd/scrape"
	"github.com/sig-0/cdtrates/cmd/serve"
	"github.com/sig-0/cdtrates/cmd/show"
	"github.com/sig-0/cdtrates/cmd/sql"
	"github.com/sig-0/cdtrates/cmd/verify"
)

func main() {
	fs := flag.NewFlagSet("root", flag.ExitOnError)

	// Create the root command
	cmd := &ffcli.Command{
		ShortUsage: "<sub-command> [flags] [<arg>...]",
		LongHelp:   "Aggregates and ranks the CDT rates of Colombian banks",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	// Add the subcommands
	cmd.Subcommands = []*ffcli.Command{
		serve.NewServeCmd(),
		scrape.NewScrapeCmd(),
		show.NewShowCmd(),
		verify.NewVerifyCmd(),
		sql.NewSQLCmd(),
	}

	if err := cmd.ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
