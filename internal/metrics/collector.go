package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mirrored is a provider that fails over between mirrors.
type Mirrored interface {
	Name() string
	Mirrors() []string
	MirrorIndex() int
}

// MirrorCollector implements prometheus.Collector for mirror state.
// It reads each provider's cursor on scrape instead of tracking it.
type MirrorCollector struct {
	providers []Mirrored

	mirrorIndex *prometheus.Desc
	mirrorCount *prometheus.Desc
}

var providerLabels = []string{"provider"}

// NewMirrorCollector creates a collector over the given providers.
func NewMirrorCollector(providers ...Mirrored) *MirrorCollector {
	return &MirrorCollector{
		providers: providers,

		mirrorIndex: prometheus.NewDesc(
			namespace+"_mirror_index",
			"Index of the mirror the provider currently starts from.",
			providerLabels, nil,
		),
		mirrorCount: prometheus.NewDesc(
			namespace+"_mirrors",
			"Number of mirrors configured for the provider.",
			providerLabels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *MirrorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.mirrorIndex
	ch <- c.mirrorCount
}

// Collect implements prometheus.Collector.
func (c *MirrorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, p := range c.providers {
		ch <- prometheus.MustNewConstMetric(c.mirrorIndex, prometheus.GaugeValue, float64(p.MirrorIndex()), p.Name())
		ch <- prometheus.MustNewConstMetric(c.mirrorCount, prometheus.GaugeValue, float64(len(p.Mirrors())), p.Name())
	}
}
