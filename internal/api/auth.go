package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.MessageResponse, error) {
	var out model.MessageResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login asks the backend to issue an out-of-band OTP.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	var out model.LoginResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP exchanges the emailed code for a bearer token. A success
// response without an extractable token yields an *apierror.Error with
// that success status, wrapping model.ErrNoToken.
func (c *Client) VerifyOTP(ctx context.Context, req model.OTPVerifyRequest) (string, error) {
	status, data, err := c.send(ctx, http.MethodPost, "/auth/otp/verify", "", req)
	if err != nil {
		return "", err
	}

	token := extractToken(data)
	if token == "" {
		return "", apierror.Wrap(status, strings.TrimSpace(string(data)), model.ErrNoToken)
	}
	return token, nil
}

// tokenFields lists where backends have put the token. "token" is the
// current shape; the others are accepted for older deployments.
var tokenFields = []string{"token", "jwt", "accessToken", "access_token"}

func extractToken(data []byte) string {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return trimToken(string(data))
	}

	switch v := parsed.(type) {
	case string:
		return trimToken(v)
	case map[string]any:
		for _, field := range tokenFields {
			if s, ok := v[field].(string); ok {
				if token := trimToken(s); token != "" {
					return token
				}
			}
		}
	}
	return ""
}

func trimToken(raw string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
}

// Me returns the signed-in profile with roles already flattened.
func (c *Client) Me(ctx context.Context, token string) (*model.Profile, error) {
	var out model.Profile
	if err := c.getJSON(ctx, "/api/me", token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
