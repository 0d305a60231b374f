package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ticketing-front/internal/config"
	"ticketing-front/internal/devserver/app"
	"ticketing-front/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("devserver failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.LoadDevServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := pflag.NewFlagSet("devserver", pflag.ContinueOnError)
	flags.StringVarP(&cfg.ServerPort, "port", "p", cfg.ServerPort, "listen port")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML seed file (built-in seed when empty)")
	flags.DurationVar(&cfg.OTPTTL, "otp-ttl", cfg.OTPTTL, "lifetime of one-time codes")
	flags.DurationVar(&cfg.JWTTTL, "token-ttl", cfg.JWTTTL, "lifetime of bearer tokens")
	flags.StringSliceVar(&cfg.CORSOrigins, "cors-origin", cfg.CORSOrigins, "allowed CORS origins")
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL URL (in-memory stores when empty)")
	logLevel := flags.String("log-level", "info", "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(logger.New(os.Stdout, logger.ParseLevel(*logLevel), true))

	application, err := app.New(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	started := time.Now()
	if err := application.Run(ctx); err != nil {
		return err
	}
	slog.Info("devserver exited", "uptime", time.Since(started).Round(time.Second).String())
	return nil
}
