package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticketing-front/internal/devserver/event"
)

// Metrics holds the devserver collectors. Each instance owns its
// registry so several servers can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	Requests        *prometheus.CounterVec
	OrdersPlaced    prometheus.Counter
	TicketsSold     *prometheus.CounterVec
	TicketsConsumed prometheus.Counter
	OffersChanged   *prometheus.CounterVec
	OTPIssued       prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ticketing_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_orders_placed_total",
			Help: "Total confirmed orders",
		}),
		TicketsSold: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_tickets_sold_total",
			Help: "Total tickets issued per offer",
		}, []string{"offer_id"}),
		TicketsConsumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_tickets_consumed_total",
			Help: "Total tickets consumed at the gate",
		}),
		OffersChanged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketing_offer_changes_total",
			Help: "Admin offer changes by kind",
		}, []string{"kind"}),
		OTPIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_otp_issued_total",
			Help: "Total one-time codes issued",
		}),
	}
}

// Register adds an extra collector, such as the database pool stats.
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.registry.Register(c)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records latency and status per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
	})
}

// Observe counts domain events until ctx is done or the bus closes the
// subscription.
func (m *Metrics) Observe(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.record(e)
		}
	}
}

func (m *Metrics) record(e event.Event) {
	switch e.Type {
	case event.TypeOrderPlaced:
		m.OrdersPlaced.Inc()
		if placed, ok := e.Payload.(event.OrderPlaced); ok {
			for offerID, count := range placed.Tickets {
				m.TicketsSold.WithLabelValues(strconv.FormatInt(offerID, 10)).Add(float64(count))
			}
		}
	case event.TypeTicketConsumed:
		m.TicketsConsumed.Inc()
	case event.TypeOfferCreated:
		m.OffersChanged.WithLabelValues("created").Inc()
	case event.TypeOfferUpdated:
		m.OffersChanged.WithLabelValues("updated").Inc()
	case event.TypeOfferDeleted:
		m.OffersChanged.WithLabelValues("deleted").Inc()
	case event.TypeOTPIssued:
		m.OTPIssued.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
