package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes an Aggregator to Prometheus. Values are read from the
// aggregator at scrape time.
type Collector struct {
	agg *Aggregator

	objects    *prometheus.Desc
	frames     *prometheus.Desc
	retained   *prometheus.Desc
	confidence *prometheus.Desc
	latency    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for agg. Metric names start with
// namespace.
func NewCollector(namespace string, agg *Aggregator) *Collector {
	name := func(n string) string { return prometheus.BuildFQName(namespace, "analytics", n) }
	return &Collector{
		agg: agg,
		objects: prometheus.NewDesc(name("objects_total"),
			"Objects ingested, by category.", []string{"category"}, nil),
		frames: prometheus.NewDesc(name("frames_total"),
			"Detection results ingested.", nil, nil),
		retained: prometheus.NewDesc(name("history_entries"),
			"Frames currently retained in the rolling history.", nil, nil),
		confidence: prometheus.NewDesc(name("average_confidence"),
			"Mean retained confidence score, by category.", []string{"category"}, nil),
		latency: prometheus.NewDesc(name("detection_seconds"),
			"Retained detection latency statistics.", []string{"stat"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objects
	ch <- c.frames
	ch <- c.retained
	ch <- c.confidence
	ch <- c.latency
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.agg.Snapshot()
	for _, cc := range s.CategoryTotals {
		ch <- prometheus.MustNewConstMetric(c.objects, prometheus.CounterValue, float64(cc.Count), cc.Category)
	}
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(s.Frames))
	ch <- prometheus.MustNewConstMetric(c.retained, prometheus.GaugeValue, float64(len(s.History)))
	for _, ac := range s.AverageConfidence {
		ch <- prometheus.MustNewConstMetric(c.confidence, prometheus.GaugeValue, ac.Mean, ac.Category)
	}
	if s.Latency != nil {
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.Latency.Mean, "mean")
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.Latency.Min, "min")
		ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.Latency.Max, "max")
	}
}
