package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"ticketing-front/internal/logger"
	"ticketing-front/internal/tui"
)

// runTUI owns the terminal, so logs go to the log file and warnings also
// surface in the status bar.
func runTUI(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("tui takes no arguments")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the interactive client needs a terminal; use a sub-command instead (ticketing help)")
	}

	if err := os.MkdirAll(filepath.Dir(a.cfg.LogFile), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	status := tui.NewStatusHandler(slog.LevelWarn)
	log := slog.New(logger.NewFanout(
		logger.NewPrettyHandler(logFile, &logger.Options{Level: logger.ParseLevel(a.cfg.LogLevel)}),
		status,
	))
	log.Info("starting interactive client", "api", a.cfg.APIURL)

	model := tui.New(newClient(a.cfg, log), a.store, tui.Options{Context: ctx, Logger: log})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	status.SetProgram(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
