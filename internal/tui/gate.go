package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ticketing-front/internal/model"
)

func (m Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		cmd := m.scanInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Verify):
		return m.scan(false)
	case key.Matches(msg, m.keys.Consume):
		return m.scan(true)
	case key.Matches(msg, m.keys.ClearForm):
		m.scanInput.Reset()
		m.sess.scanResult = nil
		m.sess.scanErr = ""
	}
	return m, nil
}

func (m Model) handleGateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.blurAll()
		return m, nil
	case key.Matches(msg, m.keys.Select):
		m.blurAll()
		return m.scan(false)
	}

	var cmd tea.Cmd
	m.scanInput, cmd = m.scanInput.Update(msg)
	return m, cmd
}

// scan verifies or consumes the key in the scanner box. An empty key makes
// no request.
func (m Model) scan(consume bool) (tea.Model, tea.Cmd) {
	finalKey := strings.TrimSpace(m.scanInput.Value())
	if finalKey == "" {
		return m, nil
	}
	m.sess.scanErr = ""
	return m, m.scanCmd(m.tokenGen.Current(), finalKey, consume)
}

// handleScanDone records the outcome. A failed verify clears the previous
// result; a failed consume keeps it.
func (m *Model) handleScanDone(msg scanDoneMsg) {
	if msg.err != nil {
		m.sess.scanErr = msg.err.Error()
		if !msg.consume {
			m.sess.scanResult = nil
		}
		return
	}

	m.sess.scanErr = ""
	if msg.consume {
		m.sess.scanResult = &model.ScanResult{Verified: true, Consumed: true}
		return
	}
	m.sess.scanResult = &model.ScanResult{Verified: msg.valid, Consumed: false}
}

func (m Model) gateView() string {
	theme := m.theme
	var b strings.Builder

	b.WriteString(theme.title().Render("Gate") + "\n\n")
	b.WriteString(m.scanInput.View() + "\n\n")

	switch {
	case m.sess.scanErr != "":
		b.WriteString(theme.errorText().Render("Error: "+m.sess.scanErr) + "\n")
	case m.sess.scanResult == nil:
		b.WriteString(theme.faint().Render("No scan yet.") + "\n")
	case m.sess.scanResult.Consumed:
		b.WriteString(theme.okText().Render("Ticket consumed. Entry granted.") + "\n")
	case m.sess.scanResult.Verified:
		b.WriteString(theme.okText().Render("Ticket is valid.") + "\n")
	default:
		b.WriteString(theme.errorText().Render("Ticket is not valid.") + "\n")
	}
	return b.String()
}
