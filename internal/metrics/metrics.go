// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// note mutations and the realtime stream.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/notely/internal/models"
)

const namespace = "notely"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests.
	// Labels: method, route, status
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures handler latency.
	// Labels: method, route
	RequestDuration *prometheus.HistogramVec

	// ChangeEventsTotal counts published note change events.
	// Labels: type (INSERT, UPDATE, DELETE)
	ChangeEventsTotal *prometheus.CounterVec

	// SummariesTotal counts summarization outcomes.
	// Labels: outcome (ok, empty, rate_limited, error)
	SummariesTotal *prometheus.CounterVec
}

// New creates and registers all collectors, including the Go runtime ones.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChangeEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notes",
			Name:      "change_events_total",
			Help:      "Published note change events by type.",
		}, []string{"type"}),
		SummariesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summarizer",
			Name:      "requests_total",
			Help:      "Summarization requests by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackSubscribers exposes count as the realtime subscriber gauge.
func (m *Metrics) TrackSubscribers(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "subscribers",
		Help:      "Open realtime connections.",
	}, func() float64 { return float64(count()) })
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Publisher is the sink for note change events.
type Publisher interface {
	Publish(userID string, ev models.ChangeEvent)
}

type countingPublisher struct {
	next    Publisher
	counter *prometheus.CounterVec
}

func (p countingPublisher) Publish(userID string, ev models.ChangeEvent) {
	p.counter.WithLabelValues(ev.Type).Inc()
	p.next.Publish(userID, ev)
}

// CountEvents wraps next so every published event is counted by type.
func (m *Metrics) CountEvents(next Publisher) Publisher {
	return countingPublisher{next: next, counter: m.ChangeEventsTotal}
}
