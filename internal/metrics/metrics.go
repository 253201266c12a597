// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/profiles/backend/internal/models"
)

const namespace = "profiles"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	validationFailures *prometheus.CounterVec
	rangeQueries       prometheus.Counter
	httpRequests       *prometheus.CounterVec
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New registers the collectors on reg. reg must also be a Gatherer for Handler
// to serve it, which holds for *prometheus.Registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_validation_failures_total",
			Help:      "Profile rule failures by rule name.",
		}, []string{"rule"}),
		rangeQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_range_queries_total",
			Help:      "Birth year range queries executed.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route template and status.",
		}, []string{"method", "route", "status"}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// ObserveValidation counts one failure per failed rule.
func (m *Metrics) ObserveValidation(errs models.ValidationErrors) {
	if m == nil {
		return
	}
	for _, e := range errs {
		m.validationFailures.WithLabelValues(e.Rule).Inc()
	}
}

// ObserveRangeQuery counts one executed range query.
func (m *Metrics) ObserveRangeQuery() {
	if m == nil {
		return
	}
	m.rangeQueries.Inc()
}

// ObserveHTTPRequest counts one served request. route should be the route
// template, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
