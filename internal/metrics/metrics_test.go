package metrics_test

import (
	"strings"
	"testing"

	"storefront/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.CheckoutsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	m.CheckoutsTotal.WithLabelValues(metrics.ResultOutOfStock).Inc()
	m.UnitsSoldTotal.Add(3)

	expected := `
# HELP storefront_checkouts_total Total number of checkout attempts, by result.
# TYPE storefront_checkouts_total counter
storefront_checkouts_total{result="out_of_stock"} 1
storefront_checkouts_total{result="success"} 1
# HELP storefront_units_sold_total Total number of stock units sold.
# TYPE storefront_units_sold_total counter
storefront_units_sold_total 3
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"storefront_checkouts_total", "storefront_units_sold_total")
	require.NoError(t, err)
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)

	assert.Panics(t, func() { metrics.New(reg) })
}

func TestSeparateRegistriesAreIndependent(t *testing.T) {
	a := metrics.New(prometheus.NewRegistry())
	b := metrics.New(prometheus.NewRegistry())

	a.LoginsTotal.WithLabelValues("failure").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.LoginsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LoginsTotal.WithLabelValues("failure")))
}
