package apierror

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is an HTTP-shaped failure. Servers build one with New and encode
// Code and Message; clients rebuild one from a non-2xx response with
// FromResponse. Error() is always the bare message.
type Error struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Body       string `json:"-"`
	// Cause is set when a response was well-formed HTTP but unusable.
	Cause error `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(code string, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

// Wrap reports cause against a response that carried status and body.
// The message is the cause's.
func Wrap(status int, body string, cause error) *Error {
	return &Error{Message: cause.Error(), HTTPStatus: status, Body: body, Cause: cause}
}

// FromResponse extracts the message of an error response body: the
// "message" or "error" field of a JSON object, a JSON string, or the raw
// text. An empty body falls back to the status text.
func FromResponse(status int, body []byte) *Error {
	raw := strings.TrimSpace(string(body))
	e := &Error{HTTPStatus: status, Body: raw, Message: raw}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch v := parsed.(type) {
		case map[string]any:
			if msg := stringField(v, "message"); msg != "" {
				e.Message = msg
			} else if msg := stringField(v, "error"); msg != "" {
				e.Message = msg
			}
			e.Code = stringField(v, "code")
		case string:
			e.Message = strings.TrimSpace(v)
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	return e
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(v)
}
