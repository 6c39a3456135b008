// Package metrics exposes Prometheus counters for the storefront stores.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the recorder interfaces declared by the cart,
// session and guard packages.
type Collector struct {
	mirrorOps          *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	guardDecisions     *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mirrorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mirror_ops_total",
			Help: "Remote cart operations by op and result.",
		}, []string{"op", "result"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_session_transitions_total",
			Help: "Session resolution transitions.",
		}, []string{"from", "to"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_guard_decisions_total",
			Help: "Route guard decisions for protected views.",
		}, []string{"decision"}),
	}

	reg.MustRegister(
		c.mirrorOps,
		c.sessionTransitions,
		c.guardDecisions,
	)

	return c
}

// RecordMirror counts a remote cart fetch, save or clear.
func (c *Collector) RecordMirror(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.mirrorOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordSessionTransition(from, to string) {
	c.sessionTransitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordGuardDecision(decision string) {
	c.guardDecisions.WithLabelValues(decision).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
