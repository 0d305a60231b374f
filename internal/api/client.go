package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketing-front/pkg/apierror"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 8 << 20
)

// Client talks to the ticketing backend. It is stateless: the bearer
// token is passed on every call and an empty token sends no
// Authorization header.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client, which has no timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client for baseURL. A trailing slash is stripped once here.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		bounded := *c.httpClient
		bounded.Timeout = c.timeout
		c.httpClient = &bounded
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// do issues one request and returns the body of a 2xx response. Any other
// status becomes an *apierror.Error whose message is taken from the body.
func (c *Client) do(ctx context.Context, method string, path string, token string, payload any) ([]byte, error) {
	_, data, err := c.send(ctx, method, path, token, payload)
	return data, err
}

// send performs the request and returns the response status with the
// body. Non-2xx statuses come back as *apierror.Error.
func (c *Client) send(ctx context.Context, method string, path string, token string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "request_id", requestID, "method", method, "path", req.URL.Path, "error", err)
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.logger.Debug("api request",
		"request_id", requestID,
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, data, apierror.FromResponse(resp.StatusCode, data)
	}

	return resp.StatusCode, data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, token string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	return decode(http.MethodGet, path, data, out)
}

func (c *Client) sendJSON(ctx context.Context, method string, path string, token string, payload any, out any) error {
	data, err := c.do(ctx, method, path, token, payload)
	if err != nil {
		return err
	}
	return decode(method, path, data, out)
}

func decode(method string, path string, data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
