// Package metrics defines the Prometheus collectors of the storefront.
// Collectors are registered on a caller-supplied registry, so tests and the
// server each get their own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Checkout results used as the "result" label.
const (
	ResultSuccess         = "success"
	ResultEmptyCart       = "empty_cart"
	ResultCartItemMissing = "cart_item_missing"
	ResultOutOfStock      = "out_of_stock"
	ResultError           = "error"
)

// Metrics groups every collector the services update.
type Metrics struct {
	// CheckoutsTotal counts checkout attempts by result.
	CheckoutsTotal *prometheus.CounterVec
	// UnitsSoldTotal counts stock units removed by successful checkouts.
	UnitsSoldTotal prometheus.Counter
	// CheckoutDuration measures PlaceOrder end to end.
	CheckoutDuration prometheus.Histogram
	// LoginsTotal counts login attempts; result is "success" or "failure".
	LoginsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Total number of checkout attempts, by result.",
			},
			[]string{"result"},
		),
		UnitsSoldTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_sold_total",
				Help:      "Total number of stock units sold.",
			},
		),
		CheckoutDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "checkout_duration_seconds",
				Help:      "Duration of the stock reservation transaction.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.CheckoutsTotal, m.UnitsSoldTotal, m.CheckoutDuration, m.LoginsTotal)
	return m
}
