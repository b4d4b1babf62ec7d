package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Prom holds the service metrics. All recording methods are safe on a nil
// receiver so components can run without metrics in tests.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	RateLimited   *prometheus.CounterVec
	AuditFailures prometheus.Counter
	AuditQueued   prometheus.Gauge
	Redirects     *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkvault",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "linkvault",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "linkvault",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkvault",
				Subsystem: "ratelimit",
				Name:      "rejected_total",
				Help:      "Requests rejected by a rate limiter.",
			},
			[]string{"limiter"},
		),
		AuditFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "linkvault",
				Subsystem: "audit",
				Name:      "write_failures_total",
				Help:      "Audit log entries that could not be persisted.",
			},
		),
		AuditQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "linkvault",
				Subsystem: "audit",
				Name:      "queue_length",
				Help:      "Audit log entries waiting for the background writer.",
			},
		),
		Redirects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "linkvault",
				Subsystem: "redirect",
				Name:      "lookups_total",
				Help:      "Short code lookups by outcome.",
			},
			[]string{"result"}, // result=hit|cache_hit|not_found|error
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.RateLimited, p.AuditFailures, p.AuditQueued, p.Redirects)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

func (p *Prom) IncRateLimited(limiter string) {
	if p == nil {
		return
	}
	p.RateLimited.WithLabelValues(limiter).Inc()
}

func (p *Prom) IncAuditFailure() {
	if p == nil {
		return
	}
	p.AuditFailures.Inc()
}

func (p *Prom) SetAuditQueued(n int) {
	if p == nil {
		return
	}
	p.AuditQueued.Set(float64(n))
}

func (p *Prom) IncRedirect(result string) {
	if p == nil {
		return
	}
	p.Redirects.WithLabelValues(result).Inc()
}
