package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestLog collects what inner handlers learn about a request. The
// auth middleware fills in the user once the token checks out.
type requestLog struct {
	id     string
	userID int64
}

const requestLogContextKey contextKey = "request_log"

// RequestID returns the id Logging assigned to the request, if any.
func RequestID(ctx context.Context) string {
	if entry, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		return entry.id
	}
	return ""
}

func noteUser(ctx context.Context, userID int64) {
	if entry, ok := ctx.Value(requestLogContextKey).(*requestLog); ok {
		entry.userID = userID
	}
}

// Logging tags every request with an id, echoed in X-Request-ID, and logs
// one line per response at a level matching its status.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := &requestLog{id: r.Header.Get(requestIDHeader)}
		if entry.id == "" {
			entry.id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, entry.id)

		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(context.WithValue(r.Context(), requestLogContextKey, entry))

		next.ServeHTTP(recorder, r)

		attrs := []slog.Attr{
			slog.String("request_id", entry.id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
			slog.String("client_ip", r.RemoteAddr),
		}
		if route := routePattern(r); route != "" {
			attrs = append(attrs, slog.String("route", route))
		}
		if entry.userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", entry.userID))
		}
		if recorder.status >= http.StatusBadRequest {
			attrs = append(attrs, recorder.errorAttrs(r)...)
		}

		slog.LogAttrs(r.Context(), levelFor(recorder.status), "request", attrs...)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	errorBody   bytes.Buffer
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.status >= http.StatusBadRequest {
		rw.errorBody.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// errorAttrs decodes an apierror body so its code lands in the log line.
func (rw *statusRecorder) errorAttrs(r *http.Request) []slog.Attr {
	var attrs []slog.Attr
	if r.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", r.URL.RawQuery))
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rw.errorBody.Bytes(), &body); err == nil && body.Message != "" {
		attrs = append(attrs, slog.String("error_code", body.Code), slog.String("error_message", body.Message))
	}
	return attrs
}

// Hijack keeps websocket upgrades working behind the recorder.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
