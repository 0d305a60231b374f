package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"ticketing-front/pkg/apierror"
)

// Recovery answers a handler panic with a 500 apierror body.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			slog.Error("panic recovered",
				"request_id", r.Header.Get(requestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"error", fmt.Sprint(recovered),
				"stack", string(debug.Stack()),
			)
			writeJSONError(w, apierror.New("INTERNAL_ERROR", "Unexpected server error", http.StatusInternalServerError))
		}()

		next.ServeHTTP(w, r)
	})
}
