package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"ticketing-front/internal/api"
	"ticketing-front/internal/config"
	"ticketing-front/internal/logger"
	"ticketing-front/internal/model"
	"ticketing-front/internal/session"
)

// app carries what every sub-command needs.
type app struct {
	cfg    *config.Client
	store  session.TokenStore
	client *api.Client
	logger *slog.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"tui":          {"tui", "open the interactive client (default)", runTUI},
	"offers":       {"offers [--query Q] [--seats N] [--max-price EUR] [--sort MODE]", "list the offers on sale", runOffers},
	"register":     {"register --email E --password P [--first-name F] [--last-name L]", "create an account and request a code", runRegister},
	"login":        {"login --email E [--password P]", "request a one-time code", runLogin},
	"otp":          {"otp --email E --code NNNNNN", "exchange a code for a session", runOTP},
	"logout":       {"logout", "forget the stored session", runLogout},
	"whoami":       {"whoami", "show the signed-in profile", runWhoami},
	"orders":       {"orders", "list your orders, newest first", runOrders},
	"tickets":      {"tickets [--qr-dir DIR] ORDER_ID", "list the tickets of an order", runTickets},
	"qr":           {"qr TICKET_ID [-o FILE]", "print or save a ticket QR code", runQR},
	"checkout":     {"checkout OFFER_ID [-q N]", "buy an offer", runCheckout},
	"verify":       {"verify KEY", "check a ticket key at the gate", runVerify},
	"consume":      {"consume KEY", "consume a ticket key at the gate", runConsume},
	"sales":        {"sales", "show the sales snapshot (admin)", runSales},
	"admin-offers": {"admin-offers", "list every offer (admin)", runAdminOffers},
	"admin-delete": {"admin-delete ID", "delete an offer (admin)", runAdminDelete},
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("ticketing", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "backend base URL")
	flagSet.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "where the session token is kept")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")
	if err := cfg.Validate(); err != nil {
		return err
	}

	rest := flagSet.Args()
	name := "tui"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}
	if name == "help" {
		printUsage(stdout, flagSet)
		return nil
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (see ticketing help)", name)
	}

	log := logger.New(stderr, logger.ParseLevel(cfg.LogLevel), false)
	a := &app{
		cfg:    cfg,
		store:  session.NewFileStore(cfg.TokenFile),
		client: newClient(cfg, log),
		logger: log,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return cmd.run(ctx, a, rest)
}

func newClient(cfg *config.Client, log *slog.Logger) *api.Client {
	return api.New(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(log))
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, "Usage:\n  ticketing [flags] [command] [command flags]\n\nCommands:\n")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-70s %s\n", commands[name].usage, commands[name].summary)
	}

	fmt.Fprint(w, "\nFlags:\n")
	fmt.Fprint(w, flagSet.FlagUsages())
}

// token returns the stored session token, failing when signed out.
func (a *app) token() (string, error) {
	token, err := a.store.Load()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w: run ticketing login first", model.ErrNotAuthenticated)
	}
	return token, nil
}

func newFlags(name string, a *app) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(a.stderr)
	return flagSet
}

// parseArgs parses sub-command flags and checks the positional count.
func parseArgs(flagSet *pflag.FlagSet, args []string, positional ...string) ([]string, error) {
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	rest := flagSet.Args()
	if len(rest) != len(positional) {
		if len(positional) == 0 {
			return nil, fmt.Errorf("%s takes no arguments", flagSet.Name())
		}
		return nil, fmt.Errorf("usage: ticketing %s %s", flagSet.Name(), strings.Join(positional, " "))
	}
	return rest, nil
}
