// sessionctl inspects and maintains portal sessions in the persistent
// credential scope. Browser-session logins live in the portal's memory and
// are not visible to it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/sdaportal/internal/credstore"
	"github.com/aussiebroadwan/sdaportal/internal/guard"
	"github.com/aussiebroadwan/sdaportal/internal/portal/app"
	"github.com/aussiebroadwan/sdaportal/pkg/authclient"
	"github.com/aussiebroadwan/sdaportal/pkg/slogx"
)

const usage = `Usage: sessionctl <command> [flags]

Commands:
  check  --handle H [--role R ...] [--no-refresh]   run the session guard and print the decision
  purge  --handle H                                 remove a session from both scopes
  sweep                                             remove idle sessions once

Store flags (default from PORTAL_* environment):
  --driver, --db, --redis-url, --auth-url
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	cfg       app.Config
	handle    string
	roles     []string
	noRefresh bool
	logger    *slog.Logger
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}

	opts := options{cfg: app.LoadConfig()}
	flagSet := pflag.NewFlagSet("sessionctl "+cmd, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.cfg.PersistentDriver, "driver", opts.cfg.PersistentDriver, "persistent scope driver (sqlite, redis)")
	flagSet.StringVar(&opts.cfg.DatabaseFile, "db", opts.cfg.DatabaseFile, "sqlite database file")
	flagSet.StringVar(&opts.cfg.RedisURL, "redis-url", opts.cfg.RedisURL, "redis URL")
	flagSet.StringVar(&opts.cfg.AuthURL, "auth-url", opts.cfg.AuthURL, "auth backend base URL")

	switch cmd {
	case "check":
		flagSet.StringVar(&opts.handle, "handle", "", "session handle from the portal cookie")
		flagSet.StringArrayVar(&opts.roles, "role", nil, "allowed role (repeatable); none admits any role")
		flagSet.BoolVar(&opts.noRefresh, "no-refresh", false, "do not call the auth backend for expired tokens")
	case "purge":
		flagSet.StringVar(&opts.handle, "handle", "", "session handle from the portal cookie")
	case "sweep":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	if err := flagSet.Parse(rest); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, flagSet.Arg(0))
	}

	opts.logger = slogx.New(slogx.Config{
		Service: "sessionctl",
		Version: app.BuildVersion,
		Env:     opts.cfg.Env,
		Level:   opts.cfg.LogLevel,
		Format:  "text",
		Output:  os.Stderr,
	})

	vault, err := app.OpenVault(ctx, opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer vault.Close()

	switch cmd {
	case "check":
		return runCheck(ctx, vault, opts, out)
	case "purge":
		return runPurge(ctx, vault, opts, out)
	default:
		n := credstore.NewHousekeeper(vault, opts.logger, 0, app.IdleTTLs(opts.cfg)).SweepOnce(ctx)
		fmt.Fprintf(out, "removed %d idle session(s)\n", n)
		return nil
	}
}

func parseHandle(s string) (credstore.Handle, error) {
	if s == "" {
		return credstore.Handle{}, fmt.Errorf("%w: --handle is required", errUsage)
	}
	return credstore.ParseHandle(s)
}

type checkResult struct {
	Handle    string             `json:"handle"`
	Outcome   string             `json:"outcome"`
	Cause     string             `json:"cause"`
	Redirect  string             `json:"redirect,omitempty"`
	Refreshed bool               `json:"refreshed"`
	Profile   *credstore.Profile `json:"profile,omitempty"`
}

func runCheck(ctx context.Context, vault *credstore.Vault, opts options, out io.Writer) error {
	h, err := parseHandle(opts.handle)
	if err != nil {
		return err
	}

	cfg := guard.Config{
		LoginPath:      opts.cfg.LoginPath,
		HomePath:       opts.cfg.HomePath,
		RefreshTimeout: opts.cfg.RefreshTimeout,
		Logger:         opts.logger,
	}
	if !opts.noRefresh {
		cfg.Refresher = authclient.New(opts.cfg.AuthURL)
	}

	d := guard.New(cfg).Check(ctx, vault.Session(h), opts.roles)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(checkResult{
		Handle:    h.String(),
		Outcome:   d.Outcome.String(),
		Cause:     d.Cause().String(),
		Redirect:  d.Redirect,
		Refreshed: d.Refreshed,
		Profile:   d.Profile,
	})
}

func runPurge(ctx context.Context, vault *credstore.Vault, opts options, out io.Writer) error {
	h, err := parseHandle(opts.handle)
	if err != nil {
		return err
	}
	if err := vault.Session(h).Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "purged %s\n", h.Namespace)
	return nil
}
