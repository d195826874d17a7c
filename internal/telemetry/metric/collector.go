package metric

import "github.com/prometheus/client_golang/prometheus"

// SizeReporter reports the number of tracked entries.
type SizeReporter interface {
	Len() int
}

// Collector exports the number of client keys tracked by an in-process
// rate limiter. The value is read at scrape time.
type Collector struct {
	limiter SizeReporter
	entries *prometheus.Desc
}

// NewCollector creates a collector for limiter.
func NewCollector(limiter SizeReporter) *Collector {
	return &Collector{
		limiter: limiter,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ratelimit", "entries"),
			"Client keys currently tracked by the rate limiter.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.limiter.Len()))
}
