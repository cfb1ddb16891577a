// Package metrics exposes Prometheus instrumentation for ID validation,
// quoting, applications and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service records to.
type Metrics struct {
	IDValidations         *prometheus.CounterVec
	QuotesComputed        prometheus.Counter
	QuoteRejections       *prometheus.CounterVec
	QuotedPrincipal       prometheus.Histogram
	ApplicationsSubmitted *prometheus.CounterVec
	RateLimited           prometheus.Counter
	RequestDuration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// UnmatchedRoute labels requests that no route handled.
const UnmatchedRoute = "unmatched"

// New registers all collectors with reg. Pass prometheus.NewRegistry() in
// tests so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	gatherer, _ := reg.(prometheus.Gatherer)
	return &Metrics{
		gatherer: gatherer,
		IDValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_id_validations_total",
			Help: "ID number validations by verdict",
		}, []string{"result"}),
		QuotesComputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "loan_quotes_computed_total",
			Help: "Total number of quotes computed",
		}),
		QuoteRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_quote_rejections_total",
			Help: "Quote requests rejected at the boundary, by field",
		}, []string{"reason"}),
		QuotedPrincipal: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_quoted_principal_rand",
			Help:    "Distribution of quoted principal amounts",
			Buckets: []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000, 500000, 1000000},
		}),
		ApplicationsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Applications accepted, by risk band",
		}, []string{"band"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "loan_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loan_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
	}
}

// Gatherer returns the registry the collectors were registered with, or nil
// when that registerer cannot be gathered from.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// ObserveIDValidation records one validator verdict.
func (m *Metrics) ObserveIDValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.IDValidations.WithLabelValues(result).Inc()
}

// ObserveQuote records a computed quote.
func (m *Metrics) ObserveQuote(principal float64) {
	m.QuotesComputed.Inc()
	m.QuotedPrincipal.Observe(principal)
}

// ObserveQuoteRejection records a quote request refused by the limits.
func (m *Metrics) ObserveQuoteRejection(reason string) {
	m.QuoteRejections.WithLabelValues(reason).Inc()
}

// ObserveApplication records an accepted application.
func (m *Metrics) ObserveApplication(band string) {
	m.ApplicationsSubmitted.WithLabelValues(band).Inc()
}

// IncrementRateLimited records a throttled request.
func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}

// ObserveRequest records the duration of an HTTP request.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
