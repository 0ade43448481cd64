package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadsite"

// PrometheusRecorder exports metrics on a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	formSubmissions *prometheus.CounterVec
	calculatorRuns  *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	sideEffects     *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus creates a recorder with its own registry, including the Go
// runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		formSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "form_submissions_total",
				Help:      "Form submissions by form and outcome.",
			},
			[]string{"form", "status"},
		),
		calculatorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculator_runs_total",
				Help:      "Calculator runs by tool and outcome.",
			},
			[]string{"tool", "status"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the rate limiter.",
			},
			[]string{"group"},
		),
		sideEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "side_effects_total",
				Help:      "Fire-and-forget email and CRM calls by outcome.",
			},
			[]string{"kind", "status"},
		),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests,
		p.httpDuration,
		p.formSubmissions,
		p.calculatorRuns,
		p.rateLimited,
		p.sideEffects,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry. Used by tests.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveHTTPRequest records a served request.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncFormSubmission counts a form submission outcome.
func (p *PrometheusRecorder) IncFormSubmission(form, status string) {
	p.formSubmissions.WithLabelValues(form, status).Inc()
}

// IncCalculatorRun counts a calculator run outcome.
func (p *PrometheusRecorder) IncCalculatorRun(tool, status string) {
	p.calculatorRuns.WithLabelValues(tool, status).Inc()
}

// IncRateLimited counts a rejected request.
func (p *PrometheusRecorder) IncRateLimited(group string) {
	p.rateLimited.WithLabelValues(group).Inc()
}

// IncSideEffect counts a finished side effect.
func (p *PrometheusRecorder) IncSideEffect(kind, status string) {
	p.sideEffects.WithLabelValues(kind, status).Inc()
}
