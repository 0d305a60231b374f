package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	poolConnsDesc = prometheus.NewDesc(
		"ticketing_db_pool_connections",
		"Connections in the database pool by state",
		[]string{"state"}, nil,
	)
	poolMaxConnsDesc = prometheus.NewDesc(
		"ticketing_db_pool_max_connections",
		"Configured pool size",
		nil, nil,
	)
	poolAcquiresDesc = prometheus.NewDesc(
		"ticketing_db_pool_acquires_total",
		"Connections acquired from the pool",
		nil, nil,
	)
	poolEmptyAcquiresDesc = prometheus.NewDesc(
		"ticketing_db_pool_empty_acquires_total",
		"Acquires that had to wait for a free connection",
		nil, nil,
	)
)

type poolCollector struct {
	stat func() *pgxpool.Stat
}

// Collector exports pool statistics, read at scrape time.
func (db *DB) Collector() prometheus.Collector {
	return poolCollector{stat: db.Pool.Stat}
}

func (c poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolConnsDesc
	ch <- poolMaxConnsDesc
	ch <- poolAcquiresDesc
	ch <- poolEmptyAcquiresDesc
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.stat()
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()), "acquired")
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(stat.IdleConns()), "idle")
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(stat.ConstructingConns()), "constructing")
	ch <- prometheus.MustNewConstMetric(poolMaxConnsDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquiresDesc, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(poolEmptyAcquiresDesc, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}
