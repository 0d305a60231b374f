package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ticketing-front/internal/model"
)

const (
	qrMinWidth = 21
	qrMaxWidth = 60
)

func (m Model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sess.ticketsFocused {
		return m.handleTicketsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.sess.orderCursor = moveCursor(m.sess.orderCursor, -1, len(m.sess.orders))
	case key.Matches(msg, m.keys.Down):
		m.sess.orderCursor = moveCursor(m.sess.orderCursor, 1, len(m.sess.orders))
	case key.Matches(msg, m.keys.Select):
		if len(m.sess.orders) == 0 {
			return m, nil
		}
		return m.openOrder(m.sess.orders[clampCursor(m.sess.orderCursor, len(m.sess.orders))].ID)
	case key.Matches(msg, m.keys.Right):
		if m.sess.selectedOrderID != nil && len(m.sess.tickets) > 0 {
			m.sess.ticketsFocused = true
		}
	}
	return m, nil
}

func (m Model) handleTicketsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Blur):
		m.sess.ticketsFocused = false
	case key.Matches(msg, m.keys.Up):
		m.sess.ticketCursor = moveCursor(m.sess.ticketCursor, -1, len(m.sess.tickets))
	case key.Matches(msg, m.keys.Down):
		m.sess.ticketCursor = moveCursor(m.sess.ticketCursor, 1, len(m.sess.tickets))
	case key.Matches(msg, m.keys.Select):
		ticket, ok := m.selectedTicket()
		if !ok {
			return m, nil
		}
		return m, m.fetchQRCmd(m.tokenGen.Current(), ticket.ID, m.qrWidth())
	case key.Matches(msg, m.keys.CopyKey):
		ticket, ok := m.selectedTicket()
		if !ok || ticket.Key() == "" {
			return m, nil
		}
		m.clipboardNotice = ticket.Key()
		return m, copyToClipboard(ticket.Key())
	}
	return m, nil
}

func (m Model) selectedTicket() (model.Ticket, bool) {
	if len(m.sess.tickets) == 0 {
		return model.Ticket{}, false
	}
	return m.sess.tickets[clampCursor(m.sess.ticketCursor, len(m.sess.tickets))], true
}

// qrWidth is the column budget for the QR panel.
func (m Model) qrWidth() int {
	width := m.width / 2
	if width < qrMinWidth {
		width = qrMinWidth
	}
	if width > qrMaxWidth {
		width = qrMaxWidth
	}
	return width
}

// openOrder selects an order and loads its tickets. The previous tickets
// and QR are cleared first so nothing from another order is shown.
func (m Model) openOrder(orderID int64) (tea.Model, tea.Cmd) {
	if m.token == "" {
		m.alert = sessionMissingMessage
		cmd := m.gotoAuth()
		return m, cmd
	}

	id := orderID
	m.sess.selectedOrderID = &id
	m.sess.tickets = []model.Ticket{}
	m.sess.ticketCursor = 0
	m.sess.ticketsFocused = false
	m.sess.qrTicketID = 0
	m.sess.qrArt = ""
	return m, m.fetchTicketsCmd(m.tokenGen.Current(), orderID)
}

func (m Model) handleTicketsLoaded(msg ticketsLoadedMsg) (tea.Model, tea.Cmd) {
	if m.sess.selectedOrderID == nil || *m.sess.selectedOrderID != msg.orderID {
		return m, nil
	}
	if msg.err != nil {
		if isNotAuthenticated(msg.err) {
			m.alert = sessionMissingMessage
			cmd := m.gotoAuth()
			return m, cmd
		}
		m.alert = "Could not load tickets: " + msg.err.Error()
		return m, nil
	}
	m.sess.tickets = nonNil(msg.tickets)
	m.sess.ticketCursor = clampCursor(m.sess.ticketCursor, len(m.sess.tickets))
	return m, nil
}

func (m Model) ordersView() string {
	theme := m.theme
	if m.token == "" {
		return theme.title().Render("Orders") + "\n\n" +
			theme.faint().Render("Sign in to see your orders.") + "\n"
	}

	var list strings.Builder
	list.WriteString(theme.title().Render("Orders") + "\n\n")
	if len(m.sess.orders) == 0 {
		list.WriteString(theme.faint().Render("No order yet.") + "\n")
	}
	cursor := clampCursor(m.sess.orderCursor, len(m.sess.orders))
	for i, order := range m.sess.orders {
		created := "unknown date"
		if !order.CreatedAt.IsZero() {
			created = order.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		line := fmt.Sprintf("#%-6d %s", order.ID, created)
		if m.sess.selectedOrderID != nil && *m.sess.selectedOrderID == order.ID {
			line += " ●"
		}
		if i == cursor && !m.sess.ticketsFocused {
			list.WriteString(theme.selected().Render("▸ "+line) + "\n")
		} else {
			list.WriteString(theme.text().Render("  "+line) + "\n")
		}
	}

	if m.sess.selectedOrderID == nil {
		return list.String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "   ", m.ticketsView())
}

func (m Model) ticketsView() string {
	theme := m.theme
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", theme.title().Render(fmt.Sprintf("Tickets of order #%d", *m.sess.selectedOrderID)))
	if len(m.sess.tickets) == 0 {
		b.WriteString(theme.faint().Render("No ticket loaded.") + "\n")
		return b.String()
	}

	cursor := clampCursor(m.sess.ticketCursor, len(m.sess.tickets))
	for i, ticket := range m.sess.tickets {
		state := theme.okText().Render("valid")
		if ticket.Consumed() {
			state = theme.faint().Render("used " + ticket.ConsumedAt.Local().Format("2006-01-02 15:04"))
		}
		line := fmt.Sprintf("#%-6d %s", ticket.ID, shortKey(ticket.Key()))
		if i == cursor && m.sess.ticketsFocused {
			b.WriteString(theme.selected().Render("▸ "+line) + " " + state + "\n")
		} else {
			b.WriteString(theme.text().Render("  "+line) + " " + state + "\n")
		}
	}

	if m.sess.qrArt != "" {
		fmt.Fprintf(&b, "\n%s\n%s", theme.faint().Render(fmt.Sprintf("QR for ticket #%d", m.sess.qrTicketID)), m.sess.qrArt)
	}
	return b.String()
}

func shortKey(finalKey string) string {
	if finalKey == "" {
		return "(no key)"
	}
	if len(finalKey) > 16 {
		return finalKey[:16] + "…"
	}
	return finalKey
}
