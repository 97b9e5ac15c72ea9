package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"roamctl/internal/model"
)

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	toggles         *prometheus.CounterVec
	backendErrors   *prometheus.CounterVec
	probesDegraded  *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roamctl_toggles_total",
				Help: "Toggle requests by subsystem and outcome",
			},
			[]string{"subsystem", "result"},
		),
		backendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roamctl_backend_errors_total",
				Help: "Failed backend operations",
			},
			[]string{"op"},
		),
		probesDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roamctl_status_probe_degraded_total",
				Help: "Status probes that fell back to their default value",
			},
			[]string{"probe"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roamctl_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roamctl_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.toggles, m.backendErrors, m.probesDegraded, m.requests, m.requestDuration)
	}
	return m
}

func (m *Metrics) Toggle(subsystem model.Subsystem, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.toggles.WithLabelValues(string(subsystem), result).Inc()
}

func (m *Metrics) BackendError(op string) {
	if m == nil {
		return
	}
	m.backendErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ProbeDegraded(probe string) {
	if m == nil {
		return
	}
	m.probesDegraded.WithLabelValues(probe).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
