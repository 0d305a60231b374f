package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preflight(t *testing.T, h http.Handler, origin string, method string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, "/api/admin/offers/1/active", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	h := CORS([]string{"http://localhost:5173"})(okHandler())

	rec := preflight(t, h, "http://localhost:5173", http.MethodPatch)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight(t, h, "http://evil.example", http.MethodPatch)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithoutOriginsAllowsAny(t *testing.T) {
	h := CORS(nil)(okHandler())

	rec := preflight(t, h, "http://anywhere.example", http.MethodDelete)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
