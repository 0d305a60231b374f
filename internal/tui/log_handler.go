package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries a log record into the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar, unless a newer record replaced
// the one it was scheduled for.
type logRecordFadeMsg struct {
	summary string
}

const logRecordFadeDelay = 5 * time.Second

// Sender is the part of *tea.Program the log handler needs.
type Sender interface {
	Send(msg tea.Msg)
}

// StatusHandler is a slog.Handler that forwards records to a running
// program as logRecordMsg. Records are dropped until SetProgram is
// called. Derived handlers share the program pointer.
type StatusHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[Sender]
	attrs   []slog.Attr
	group   string
}

func NewStatusHandler(level slog.Leveler) *StatusHandler {
	if level == nil {
		level = slog.LevelWarn
	}
	return &StatusHandler{
		level:   level,
		program: &atomic.Pointer[Sender]{},
	}
}

// SetProgram starts delivery. Safe to call from any goroutine.
func (h *StatusHandler) SetProgram(program Sender) {
	h.program.Store(&program)
}

func (h *StatusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *StatusHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}

	parts := make([]string, 0, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		parts = append(parts, formatAttr(attr))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, formatAttr(h.qualify(attr)))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}

	(*program).Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

func (h *StatusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.attrs = append(next.attrs, h.qualify(attr))
	}
	return next
}

func (h *StatusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	if next.group != "" {
		next.group += "."
	}
	next.group += name
	return next
}

func (h *StatusHandler) clone() *StatusHandler {
	attrs := make([]slog.Attr, len(h.attrs))
	copy(attrs, h.attrs)
	return &StatusHandler{level: h.level, program: h.program, attrs: attrs, group: h.group}
}

func (h *StatusHandler) qualify(attr slog.Attr) slog.Attr {
	if h.group != "" {
		attr.Key = h.group + "." + attr.Key
	}
	return attr
}

func formatAttr(attr slog.Attr) string {
	return fmt.Sprintf("%s=%s", attr.Key, attr.Value.Resolve())
}
