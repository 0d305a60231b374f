package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Danger  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Accent:     lipgloss.Color("220"), // gold

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Success: lipgloss.Color("114"),
	Warning: lipgloss.Color("208"),
	Danger:  lipgloss.Color("196"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
}

func (theme Theme) text() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.NormalText)
}

func (theme Theme) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.FaintText)
}

func (theme Theme) title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
}

func (theme Theme) selected() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.SelectedForeground).
		Background(theme.SelectedBackground).
		Bold(true)
}

func (theme Theme) errorText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Danger)
}

func (theme Theme) okText() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Success)
}

func (theme Theme) panel() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(0, 1)
}
