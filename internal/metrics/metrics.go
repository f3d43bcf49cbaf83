// Package metrics exposes Prometheus counters for the session token lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes.
const (
	OutcomeSignedIn      = "signed_in"
	OutcomeReused        = "reused"
	OutcomeRefreshed     = "refreshed"
	OutcomeRefreshFailed = "refresh_failed"
)

// Handshake results.
const (
	ResultOK      = "ok"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	refreshes   prometheus.Counter
	signOuts    *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "session_manager",
			Name:      "token_evaluations_total",
			Help:      "Session token evaluations by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "session_manager",
			Name:      "token_refresh_requests_total",
			Help:      "Refresh-token grant requests sent to the identity provider.",
		}),
		signOuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "session_manager",
			Name:      "signout_handshakes_total",
			Help:      "Provider logout handshakes by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.evaluations, m.refreshes, m.signOuts)
	return m
}

func (m *Metrics) Evaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RefreshRequest() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}

func (m *Metrics) SignOut(result string) {
	if m == nil {
		return
	}
	m.signOuts.WithLabelValues(result).Inc()
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
