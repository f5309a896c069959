package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics counts order creations and status transitions.
type OrderMetrics struct {
	OrdersCreated     *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
}

// NewOrderMetrics registers and returns the order collectors. Call once
// at startup; duplicate registration panics.
func NewOrderMetrics() *OrderMetrics {
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puspita",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total number of orders created.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "puspita",
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Total number of applied order status transitions.",
	}, []string{"from", "to"})

	prometheus.MustRegister(created, transitions)
	return &OrderMetrics{OrdersCreated: created, StatusTransitions: transitions}
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
