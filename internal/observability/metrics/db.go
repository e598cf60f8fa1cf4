package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBPoolOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Number of live connections owned by the pool",
		},
	)

	DBPoolIdleConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Number of idle connections waiting in the pool",
		},
	)

	DBPoolLeasesInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_leases_in_use",
			Help: "Number of connections currently leased to operations",
		},
	)

	DBPoolStaleReplacedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_pool_stale_replaced_total",
			Help: "Total number of dead connections discarded and replaced",
		},
	)

	DBPoolProbeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_pool_probe_failures_total",
			Help: "Total number of failed liveness probes",
		},
	)

	DBPoolAcquireTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_pool_acquire_timeouts_total",
			Help: "Total number of acquires that timed out waiting for a lease",
		},
	)
)
