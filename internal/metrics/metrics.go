package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	AccountsCreated prometheus.Counter
	LoginFailures   prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "usuarios_accounts_created_total",
			Help: "Total number of accounts registered",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "usuarios_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usuarios_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "usuarios_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}
}

// IncrementAccountsCreated records a successful registration.
func (m *Metrics) IncrementAccountsCreated() {
	m.AccountsCreated.Inc()
}

// IncrementLoginFailures records a login rejected for bad credentials.
func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

// ObserveRequest records one served HTTP request.
// Call with time.Now() taken before the request was handled.
func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
