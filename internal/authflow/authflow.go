package authflow

import (
	"strings"
	"unicode"
)

// OTPLength is the number of digits the backend issues.
const OTPLength = 6

// InvalidCodeMessage is shown for every OTP failure, whatever the cause.
const InvalidCodeMessage = "Invalid or expired code"

type Step string

const (
	StepLoginForm     Step = "login-form"
	StepOTPPending    Step = "otp-pending"
	StepAuthenticated Step = "authenticated"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

func (m Mode) Toggle() Mode {
	if m == ModeRegister {
		return ModeLogin
	}
	return ModeRegister
}

// NormalizeOTP keeps ASCII digits only and truncates to OTPLength.
func NormalizeOTP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == OTPLength {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanSubmitOTP is true only for a complete code.
func CanSubmitOTP(code string) bool {
	return len(code) == OTPLength && NormalizeOTP(code) == code
}

// State is the authentication state machine. The mode selector is only
// meaningful while in StepLoginForm.
type State struct {
	Step    Step
	Mode    Mode
	Email   string
	Message string
}

func New() State {
	return State{Step: StepLoginForm, Mode: ModeLogin}
}

// SetMode switches between login and register; it is ignored outside the
// login form.
func (s State) SetMode(mode Mode) State {
	if s.Step != StepLoginForm {
		return s
	}
	s.Mode = mode
	s.Message = ""
	return s
}

// LoginSucceeded moves to otp-pending for email. Register funnels here too
// after its follow-up login, so the mode resets.
func (s State) LoginSucceeded(email string) State {
	return State{
		Step:    StepOTPPending,
		Mode:    ModeLogin,
		Email:   strings.TrimSpace(email),
		Message: "A code has been sent to " + strings.TrimSpace(email),
	}
}

// LoginFailed stays on the form with the backend's message.
func (s State) LoginFailed(err error) State {
	s.Message = err.Error()
	return s
}

// OTPVerified returns to the login form with every transient field cleared.
func (s State) OTPVerified() State {
	return New()
}

// OTPFailed stays pending with the generic message.
func (s State) OTPFailed() State {
	s.Message = InvalidCodeMessage
	return s
}

// Displayed is the step to render: a stored token on the login form
// reads as authenticated.
func (s State) Displayed(isAuth bool) Step {
	if isAuth && s.Step == StepLoginForm {
		return StepAuthenticated
	}
	return s.Step
}

// Cancel abandons a pending code and returns to the form.
func (s State) Cancel() State {
	return New()
}
