//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/api"
	"ticketing-front/internal/config"
	"ticketing-front/internal/devserver/app"
	"ticketing-front/internal/model"
)

const seededPassword = "Azerty!123"

type mailbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *mailbox) SendCode(_ context.Context, email string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *mailbox) latest(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type devServer struct {
	url    string
	client *api.Client
	mail   *mailbox
}

func newDevServer(t *testing.T) *devServer {
	t.Helper()

	cfg := &config.DevServer{
		ServerPort:         "0",
		ServerReadTimeout:  15 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		ServerIdleTimeout:  120 * time.Second,
		RequestTimeout:     30 * time.Second,
		JWTSecret:          "integration-secret-0123456789",
		JWTTTL:             time.Hour,
		OTPTTL:             2 * time.Minute,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       1000,
		AuthRateLimitRPM:   1000,
	}

	mail := &mailbox{codes: map[string]string{}}
	application, err := app.New(context.Background(), cfg, mail)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	application.Start(ctx)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &devServer{url: server.URL, client: api.New(server.URL, api.WithTimeout(10*time.Second)), mail: mail}
}

// dialEvents opens the admin event feed.
func (d *devServer) dialEvents(token string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{"Authorization": {"Bearer " + token}}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(d.url, "http")+"/api/admin/events", header)
}

func (d *devServer) signIn(t *testing.T, email string, password string) string {
	t.Helper()

	ctx := context.Background()
	resp, err := d.client.Login(ctx, model.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	require.True(t, resp.OTPRequired)

	code := d.mail.latest(email)
	require.Len(t, code, 6)

	token, err := d.client.VerifyOTP(ctx, model.OTPVerifyRequest{Email: email, Code: code})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return token
}
