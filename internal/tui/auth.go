package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ticketing-front/internal/authflow"
	"ticketing-front/internal/model"
	"ticketing-front/internal/session"
)

const (
	loginFailedMessage    = "Invalid credentials."
	registerFailedMessage = "Registration failed (email already in use?)."
	missingFieldsMessage  = "Email and password are required."
)

// authFieldCount is how many form inputs the current mode shows.
func (m Model) authFieldCount() int {
	if m.sess.auth.Mode == authflow.ModeRegister {
		return len(m.authInputs)
	}
	return authPassword + 1
}

// focusAuth focuses the input matching the auth step. With a token there
// is nothing to type.
func (m *Model) focusAuth() tea.Cmd {
	if m.token != "" && m.sess.auth.Step == authflow.StepLoginForm {
		return nil
	}
	if m.sess.auth.Step == authflow.StepOTPPending {
		return m.otpInput.Focus()
	}
	m.authField = clampCursor(m.authField, m.authFieldCount())
	return m.authInputs[m.authField].Focus()
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Edit):
		cmd := m.focusAuth()
		return m, cmd
	case key.Matches(msg, m.keys.ToggleMode):
		m.toggleAuthMode()
		return m, nil
	}
	return m, nil
}

func (m *Model) toggleAuthMode() {
	if m.sess.auth.Step != authflow.StepLoginForm {
		return
	}
	m.sess.auth = m.sess.auth.SetMode(m.sess.auth.Mode.Toggle())
	if m.authField >= m.authFieldCount() {
		focused := m.authInputs[m.authField].Focused()
		m.authInputs[m.authField].Blur()
		m.authField = authEmail
		if focused {
			m.authInputs[m.authField].Focus()
		}
	}
}

func (m Model) handleAuthInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sess.auth.Step == authflow.StepOTPPending {
		return m.handleOTPInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Blur):
		m.blurAll()
		return m, nil
	case key.Matches(msg, m.keys.ToggleMode):
		m.toggleAuthMode()
		return m, nil
	case key.Matches(msg, m.keys.NextSection), key.Matches(msg, m.keys.Down):
		if msg.Type == tea.KeyRunes {
			break
		}
		cmd := m.moveAuthField(1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevSection), key.Matches(msg, m.keys.Up):
		if msg.Type == tea.KeyRunes {
			break
		}
		cmd := m.moveAuthField(-1)
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		return m.submitAuthForm()
	}

	var cmd tea.Cmd
	m.authInputs[m.authField], cmd = m.authInputs[m.authField].Update(msg)
	return m, cmd
}

func (m *Model) moveAuthField(delta int) tea.Cmd {
	count := m.authFieldCount()
	m.authInputs[m.authField].Blur()
	m.authField = (m.authField + delta + count) % count
	return m.authInputs[m.authField].Focus()
}

func (m Model) submitAuthForm() (tea.Model, tea.Cmd) {
	if m.sess.authLoading {
		return m, nil
	}

	email := strings.TrimSpace(m.authInputs[authEmail].Value())
	password := m.authInputs[authPassword].Value()
	if email == "" || password == "" {
		m.sess.auth = m.sess.auth.LoginFailed(errors.New(missingFieldsMessage))
		return m, nil
	}

	m.sess.authLoading = true
	m.sess.auth.Message = ""
	gen := m.tokenGen.Current()

	if m.sess.auth.Mode == authflow.ModeRegister {
		return m, m.registerCmd(gen, model.RegisterRequest{
			Email:     email,
			Password:  password,
			FirstName: strings.TrimSpace(m.authInputs[authFirstName].Value()),
			LastName:  strings.TrimSpace(m.authInputs[authLastName].Value()),
		})
	}
	return m, m.loginCmd(gen, model.LoginRequest{Email: email, Password: password})
}

// handleOTPInput normalizes the code at every edit, so the field never
// holds more than six digits. The input has no CharLimit of its own: a
// widget cap would cut a paste before the non-digits are stripped.
func (m Model) handleOTPInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Blur):
		m.blurAll()
		return m, nil
	case key.Matches(msg, m.keys.ClearForm):
		m.sess.auth = m.sess.auth.Cancel()
		m.otpInput.Reset()
		cmd := m.focusAuth()
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		return m.submitOTP()
	}

	var cmd tea.Cmd
	m.otpInput, cmd = m.otpInput.Update(msg)
	m.setOTP(m.otpInput.Value())
	return m, cmd
}

func (m *Model) setOTP(raw string) {
	normalized := authflow.NormalizeOTP(raw)
	if normalized != m.otpInput.Value() {
		m.otpInput.SetValue(normalized)
	}
}

func (m Model) submitOTP() (tea.Model, tea.Cmd) {
	code := m.otpInput.Value()
	if m.sess.authLoading || !authflow.CanSubmitOTP(code) {
		return m, nil
	}

	m.sess.authLoading = true
	m.sess.auth.Message = ""
	return m, m.verifyOTPCmd(m.tokenGen.Current(), model.OTPVerifyRequest{
		Email: m.sess.auth.Email,
		Code:  code,
	})
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.sess.authLoading = false

	if msg.err != nil {
		m.logger.Warn("authentication failed", "email", msg.email, "error", msg.err)
		text := loginFailedMessage
		if msg.action == authRegister {
			text = registerFailedMessage
		}
		m.sess.auth = m.sess.auth.LoginFailed(errors.New(text))
		return m, nil
	}

	m.sess.auth = m.sess.auth.LoginSucceeded(msg.email)
	for i := range m.authInputs {
		m.authInputs[i].Blur()
	}
	m.otpInput.Reset()

	var cmd tea.Cmd
	if m.section == SectionAuth {
		cmd = m.otpInput.Focus()
	}
	return m, cmd
}

// handleOTPDone stores the token and returns to the login form. Every
// failure maps to the same message.
func (m Model) handleOTPDone(msg otpDoneMsg) (tea.Model, tea.Cmd) {
	m.sess.authLoading = false

	if msg.err != nil || msg.token == "" {
		m.logger.Warn("otp verification failed", "error", msg.err)
		m.sess.auth = m.sess.auth.OTPFailed()
		return m, nil
	}

	if err := m.store.Save(msg.token); err != nil {
		m.logger.Error("saving token failed", "error", err)
		m.alert = "Could not store the session: " + err.Error()
		return m, nil
	}

	m.sess.auth = m.sess.auth.OTPVerified()
	m.resetAuthInputs()
	m.logger.Info("signed in")
	cmd := m.setToken(msg.token)
	return m, cmd
}

func (m Model) authView() string {
	theme := m.theme
	var b strings.Builder

	step := m.sess.auth.Displayed(m.token != "")
	switch step {
	case authflow.StepAuthenticated:
		b.WriteString(theme.title().Render("Signed in") + "\n\n")
		b.WriteString(m.profileView())
		b.WriteString("\n" + theme.faint().Render("X sign out · P purge token · R reload session") + "\n")
		return b.String()

	case authflow.StepOTPPending:
		b.WriteString(theme.title().Render("Enter your code") + "\n\n")
		b.WriteString(theme.faint().Render("A one-time code was issued for "+m.sess.auth.Email+".") + "\n\n")
		b.WriteString(m.otpInput.View() + "\n")

	default:
		login, register := "Login", "Register"
		if m.sess.auth.Mode == authflow.ModeRegister {
			register = theme.selected().Render(" " + register + " ")
			login = theme.faint().Render(" " + login + " ")
		} else {
			login = theme.selected().Render(" " + login + " ")
			register = theme.faint().Render(" " + register + " ")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, login, " ", register) + "\n\n")
		for i := 0; i < m.authFieldCount(); i++ {
			b.WriteString(m.authInputs[i].View() + "\n")
		}
	}

	if m.sess.authLoading {
		b.WriteString("\n" + theme.faint().Render("Please wait…") + "\n")
	}
	if msg := m.sess.auth.Message; msg != "" {
		style := theme.errorText()
		if step == authflow.StepOTPPending && msg != authflow.InvalidCodeMessage {
			style = theme.okText()
		}
		b.WriteString("\n" + style.Render(msg) + "\n")
	}
	return b.String()
}

func (m Model) profileView() string {
	theme := m.theme
	var b strings.Builder

	if m.sess.profile == nil {
		b.WriteString(theme.errorText().Render("Profile unavailable. The token is kept; sign out or purge it if it is stale.") + "\n")
	} else {
		fmt.Fprintf(&b, "User   %s\n", theme.text().Render(m.sess.profile.DisplayName()))
		roles := session.NewRoles(m.sess.profile.Roles...).Sorted()
		if len(roles) == 0 {
			roles = []string{"none"}
		}
		fmt.Fprintf(&b, "Roles  %s\n", theme.text().Render(strings.Join(roles, ", ")))
	}

	if claims, ok := session.ParseClaims(m.token); ok && !claims.ExpiresAt.IsZero() {
		expiry := claims.ExpiresAt.Local().Format("2006-01-02 15:04")
		if claims.Expired(time.Now()) {
			expiry = theme.errorText().Render(expiry + " (expired)")
		}
		fmt.Fprintf(&b, "Expiry %s\n", expiry)
	}
	return b.String()
}
