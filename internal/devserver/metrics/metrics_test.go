package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/devserver/event"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/order/{orderId}/tickets", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/order/7/tickets", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/api/order/{orderId}/tickets", "403")))
}

func TestObserveCountsDomainEvents(t *testing.T) {
	m := New()
	bus := event.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.Observe(ctx, bus)
		close(done)
	}()

	// Observe subscribes asynchronously; publish until the counter moves.
	require.Eventually(t, func() bool {
		bus.Publish(event.Event{Type: event.TypeTicketConsumed})
		return testutil.ToFloat64(m.TicketsConsumed) > 0
	}, time.Second, 10*time.Millisecond)

	m.record(event.Event{Type: event.TypeOrderPlaced, Payload: event.OrderPlaced{OrderID: 1, Tickets: map[int64]int{2: 3}}})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TicketsSold.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced))

	cancel()
	<-done
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.OTPIssued.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ticketing_otp_issued_total 1"))
}

func TestRegisterExtraCollector(t *testing.T) {
	m := New()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ticketing_test_gauge", Help: "test"})
	gauge.Set(3)

	require.NoError(t, m.Register(gauge))
	assert.Error(t, m.Register(gauge))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "ticketing_test_gauge 3")
}
