package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/config"
	"ticketing-front/internal/model"
)

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeBox) SendCode(_ context.Context, email string, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[email] = code
	return nil
}

func (c *codeBox) get(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

func testConfig() *config.DevServer {
	return &config.DevServer{
		ServerPort:         "0",
		ServerReadTimeout:  5 * time.Second,
		ServerWriteTimeout: 5 * time.Second,
		ServerIdleTimeout:  5 * time.Second,
		RequestTimeout:     5 * time.Second,
		JWTSecret:          "app-test-secret-0123456789",
		JWTTTL:             time.Hour,
		OTPTTL:             2 * time.Minute,
		CORSOrigins:        []string{"http://localhost:5173"},
		RateLimitRPM:       10000,
		AuthRateLimitRPM:   10000,
	}
}

type testServer struct {
	*httptest.Server
	codes *codeBox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	codes := &codeBox{}
	application, err := New(context.Background(), testConfig(), codes)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	application.Start(ctx)
	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &testServer{Server: srv, codes: codes}
}

func (s *testServer) call(t *testing.T, method string, path string, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *testServer) signIn(t *testing.T, email string) string {
	t.Helper()

	status, body := s.call(t, http.MethodPost, "/auth/login", "", model.LoginRequest{Email: email, Password: "Azerty!123"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.JSONEq(t, `{"otpRequired":true}`, string(body))

	status, body = s.call(t, http.MethodPost, "/auth/otp/verify", "", model.OTPVerifyRequest{Email: email, Code: s.codes.get(email)})
	require.Equal(t, http.StatusOK, status, string(body))

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealthAndPublicOffers(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, body = srv.call(t, http.MethodGet, "/api/offers", "", nil)
	require.Equal(t, http.StatusOK, status)

	var offers []model.Offer
	require.NoError(t, json.Unmarshal(body, &offers))
	require.Len(t, offers, 3)
	assert.Equal(t, "SOLO", offers[0].Code)
}

func TestProtectedRoutes(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.call(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"missing or invalid authorization header"}`, string(body))

	status, _ = srv.call(t, http.MethodPost, "/auth/register", "", model.RegisterRequest{Email: "fan@jo.fr", Password: "Azerty!123"})
	require.Equal(t, http.StatusOK, status)
	fan := srv.signIn(t, "fan@jo.fr")

	status, body = srv.call(t, http.MethodGet, "/api/me", fan, nil)
	require.Equal(t, http.StatusOK, status)
	var profile model.Profile
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, []string{"ROLE_USER"}, profile.Roles)

	status, _ = srv.call(t, http.MethodGet, "/api/admin/sales", fan, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = srv.call(t, http.MethodPost, "/api/tickets/consume", fan, map[string]string{"finalKey": "x"})
	assert.Equal(t, http.StatusForbidden, status)

	agent := srv.signIn(t, "agent@jo.fr")
	status, body = srv.call(t, http.MethodPost, "/api/tickets/consume", agent, map[string]string{"key": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Ticket not found or already consumed")
	status, _ = srv.call(t, http.MethodGet, "/api/admin/sales", agent, nil)
	assert.Equal(t, http.StatusForbidden, status)

	admin := srv.signIn(t, "admin@jo.fr")
	status, body = srv.call(t, http.MethodGet, "/api/admin/sales", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total":0,"byoffer":[]}`, string(body))
}

func TestAdminOfferLifecycle(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.signIn(t, "admin@jo.fr")

	status, body := srv.call(t, http.MethodPost, "/api/admin/offers", admin, model.OfferInput{Code: "VIP", Name: "VIP", Seats: 1, PriceCents: 9900})
	require.Equal(t, http.StatusCreated, status, string(body))
	var vip model.Offer
	require.NoError(t, json.Unmarshal(body, &vip))
	assert.False(t, vip.Active)

	status, body = srv.call(t, http.MethodPatch, "/api/admin/offers/"+strconv.FormatInt(vip.ID, 10)+"/active", admin, map[string]bool{"active": true})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = srv.call(t, http.MethodGet, "/api/offers", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"code":"VIP"`)

	status, _ = srv.call(t, http.MethodPost, "/api/admin/offers", admin, model.OfferInput{Code: "vip", Name: "Again", Seats: 1})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = srv.call(t, http.MethodDelete, "/api/admin/offers/"+strconv.FormatInt(vip.ID, 10), admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = srv.call(t, http.MethodDelete, "/api/admin/offers/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/offers", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	srv.call(t, http.MethodGet, "/api/offers", "", nil)
	status, body := srv.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.Contains(string(body), `ticketing_http_requests_total{method="GET",route="/api/offers",status="200"} 1`), string(body))
}

func TestServeStopsOnCancel(t *testing.T) {
	application, err := New(context.Background(), testConfig(), &codeBox{})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewRejectsMissingSeedFile(t *testing.T) {
	cfg := testConfig()
	cfg.SeedFile = "/nonexistent/seed.yaml"

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "failed to load seed")
}

func TestNewRejectsUnreachableDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = "postgres://ticketing@127.0.0.1:1/ticketing?sslmode=disable&connect_timeout=1"
	cfg.DBMaxConns = 1

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := New(ctx, cfg, nil)
	assert.ErrorContains(t, err, "failed to connect to database")
}
