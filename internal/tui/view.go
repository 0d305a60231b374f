package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	header := m.headerView()

	var body string
	switch m.section {
	case SectionOffers:
		body = m.offersView()
	case SectionOrders:
		body = m.ordersView()
	case SectionAuth:
		body = m.authView()
	case SectionGate:
		body = m.gateView()
	case SectionAdmin:
		body = m.adminView()
	}

	if modal := m.modalView(); modal != "" {
		body = modal
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, m.statusView())
}

func (m Model) headerView() string {
	theme := m.theme
	tabs := make([]string, 0, len(allSections))
	for _, s := range m.visibleSections() {
		if s == m.section {
			tabs = append(tabs, theme.selected().Render(" "+s.Title()+" "))
		} else {
			tabs = append(tabs, theme.faint().Render(" "+s.Title()+" "))
		}
	}

	who := theme.faint().Render("guest")
	if m.token != "" {
		who = theme.text().Render("signed in")
		if m.sess.profile != nil {
			who = theme.text().Render(m.sess.profile.DisplayName())
		}
	}

	title := lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true).Render("Ticketing")
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(tabs, " "), "  ", who)
}

func (m Model) modalView() string {
	theme := m.theme
	switch {
	case m.alert != "":
		return theme.panel().BorderForeground(theme.Danger).Render(
			theme.text().Render(m.alert) + "\n\n" + theme.faint().Render("enter to dismiss"))
	case m.confirm != nil:
		return theme.panel().BorderForeground(theme.Warning).Render(
			theme.text().Render(m.confirm.prompt) + "\n\n" + theme.faint().Render("y confirm · n cancel"))
	}
	return ""
}

func (m Model) statusView() string {
	theme := m.theme

	if m.status != "" {
		style := theme.faint()
		switch {
		case m.statusLevel >= slog.LevelError:
			style = theme.errorText()
		case m.statusLevel >= slog.LevelWarn:
			style = lipgloss.NewStyle().Foreground(theme.Warning)
		}
		return "\n" + style.Render(m.status)
	}

	help := lipgloss.NewStyle().Foreground(theme.HelpText).Render(helpLine(m.helpBindings()))
	if m.clipboardNotice != "" {
		help += "  " + theme.okText().Render("Copied: "+shortKey(m.clipboardNotice))
	}
	return "\n" + help
}

func (m Model) helpBindings() []key.Binding {
	k := m.keys
	if m.typing() {
		return []key.Binding{k.Blur, k.Select}
	}

	common := []key.Binding{k.NextSection, k.Quit}
	switch m.section {
	case SectionOffers:
		return append([]key.Binding{k.Select, k.Search, k.MaxPrice, k.Seats, k.Sort, k.QtyUp, k.QtyDown}, common...)
	case SectionOrders:
		if m.sess.ticketsFocused {
			return append([]key.Binding{k.Left, k.Select, k.CopyKey}, common...)
		}
		return append([]key.Binding{k.Select, k.Right}, common...)
	case SectionAuth:
		if m.token != "" {
			return append([]key.Binding{k.SignOut, k.Purge, k.Reload}, common...)
		}
		return append([]key.Binding{k.Edit, k.ToggleMode}, common...)
	case SectionGate:
		return append([]key.Binding{k.Edit, k.Verify, k.Consume}, common...)
	case SectionAdmin:
		return append([]key.Binding{k.NewOffer, k.Edit, k.DeleteOffer, k.Refresh}, common...)
	}
	return common
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" {
			continue
		}
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " · ")
}
