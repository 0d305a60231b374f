package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// corsHeaders are the request headers the client and the admin tap send.
var corsHeaders = []string{"Authorization", "Content-Type", requestIDHeader}

// CORS admits browser callers from origins, typically the storefront dev
// server. No origins means any origin. Cookies are never allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	slog.Debug("cors configured", "origins", origins)

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: corsHeaders,
		// Location names created offers; X-Request-ID ties a reply to its log line.
		ExposedHeaders: []string{"Content-Length", "Location", requestIDHeader},
		MaxAge:         3600,
	}).Handler
}
