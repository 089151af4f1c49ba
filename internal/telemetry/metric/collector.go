package metric

import "github.com/prometheus/client_golang/prometheus"

// SessionCollector reports the number of stored sessions at scrape time.
type SessionCollector struct {
	desc  *prometheus.Desc
	count func() int
}

// NewSessionCollector creates a collector that calls count on every scrape.
func NewSessionCollector(count func() int) *SessionCollector {
	return &SessionCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sessions", "stored"),
			"Sessions currently held in the session store, including expired ones not yet swept",
			nil, nil,
		),
		count: count,
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.count()))
}
