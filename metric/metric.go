package metric

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric holds the service's prometheus collectors on a private registry.
type Metric struct {
	registry      *prometheus.Registry
	serviceTiming *prometheus.SummaryVec
	errorCounter  *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	offsets       *prometheus.GaugeVec
}

func New(appID string) *Metric {
	r := strings.NewReplacer(
		"-", "_",
		" ", "_")
	serviceName := r.Replace(appID)

	m := &Metric{
		registry: prometheus.NewRegistry(),
		serviceTiming: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "service_timing",
				Help: fmt.Sprintf("%s timing", serviceName),
			},
			[]string{fmt.Sprintf("%s_service", serviceName)},
		),
		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "error_counter",
				Help: fmt.Sprintf("%s error counter", serviceName),
			},
			[]string{fmt.Sprintf("%s_error", serviceName)},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thermostat_outcomes_total",
				Help: fmt.Sprintf("%s per-thermostat outcomes by status", serviceName),
			},
			[]string{"status"},
		),
		offsets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "thermostat_offset_celsius",
				Help: fmt.Sprintf("%s last offset written to the thermostat", serviceName),
			},
			[]string{"room", "thermostat"},
		),
	}

	m.registry.MustRegister(m.serviceTiming)
	m.registry.MustRegister(m.errorCounter)
	m.registry.MustRegister(m.outcomes)
	m.registry.MustRegister(m.offsets)

	return m
}

func (m *Metric) ErrorCounter(label string) {
	m.errorCounter.
		WithLabelValues(label).
		Inc()
}

func (m *Metric) Timing(start time.Time, label string) {
	m.serviceTiming.
		WithLabelValues(label).
		Observe(time.Since(start).Seconds())
}

// Outcome counts one thermostat outcome of a cycle.
func (m *Metric) Outcome(status string) {
	m.outcomes.
		WithLabelValues(status).
		Inc()
}

// Offset records the offset that was just written to a thermostat.
func (m *Metric) Offset(room, thermostat string, v float64) {
	m.offsets.
		WithLabelValues(room, thermostat).
		Set(v)
}

func (m *Metric) TimeTracker(next http.HandlerFunc, label string) http.HandlerFunc {
	return func(response http.ResponseWriter, request *http.Request) {
		start := time.Now()
		next(response, request)
		m.Timing(start, label)
	}
}

func (m *Metric) RouterHandlerHTTP() http.HandlerFunc {
	return m.stdToHTTPRouterMiddleware(m.handlerHTTP())
}

func (m *Metric) handlerHTTP() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metric) stdToHTTPRouterMiddleware(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
	}
}
