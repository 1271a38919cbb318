package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exams"

// Metrics holds the collectors recorded by the HTTP middleware chain. Each instance owns
// its registry so that several servers (and tests) can coexist in one process.
type Metrics struct {
    registry *prometheus.Registry

    RequestsReceived  prometheus.Counter
    ResponsesByStatus *prometheus.CounterVec
    RequestDuration   prometheus.Histogram
    RateLimitRejected *prometheus.CounterVec
    DatabaseReady     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
    reg := prometheus.NewRegistry()
    reg.MustRegister(
        collectors.NewGoCollector(),
        collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
    )

    f := promauto.With(reg)

    return &Metrics{
        registry: reg,

        RequestsReceived: f.NewCounter(prometheus.CounterOpts{
            Namespace: namespace,
            Subsystem: "http",
            Name:      "requests_received_total",
            Help:      "The total number of HTTP requests received",
        }),

        ResponsesByStatus: f.NewCounterVec(prometheus.CounterOpts{
            Namespace: namespace,
            Subsystem: "http",
            Name:      "responses_sent_total",
            Help:      "The total number of HTTP responses sent, by status code",
        },
            []string{
                "code",
            }),

        RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
            Namespace: namespace,
            Subsystem: "http",
            Name:      "request_duration_seconds",
            Help:      "Time spent processing HTTP requests",
            Buckets:   prometheus.DefBuckets,
        }),

        RateLimitRejected: f.NewCounterVec(prometheus.CounterOpts{
            Namespace: namespace,
            Subsystem: "ratelimit",
            Name:      "rejected_total",
            Help:      "The total number of requests rejected by a rate limiting policy",
        },
            []string{
                "policy",
            }),

        DatabaseReady: f.NewGauge(prometheus.GaugeOpts{
            Namespace: namespace,
            Subsystem: "db",
            Name:      "ready",
            Help:      "1 when the database connection has been established",
        }),
    }
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
    return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
