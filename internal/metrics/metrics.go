package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalogd"

// Metrics counts catalog fetches, mirror failovers and dropped records.
// It is handed to the catalog as its fetch observer and to the
// normalizers as their skip observer.
type Metrics struct {
	FetchRequests    *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	MirrorFailovers  *prometheus.CounterVec
	NormalizeSkipped *prometheus.CounterVec
	SubtitleLookups  *prometheus.CounterVec
}

// New creates and registers catalog metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Catalog fetches by provider and outcome.",
		}, []string{"provider", "kind"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Duration of catalog fetches across all tried mirrors.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		MirrorFailovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "failovers_total",
			Help:      "Times a provider moved on to its next mirror.",
		}, []string{"provider"}),
		NormalizeSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "skipped_total",
			Help:      "Malformed records dropped during normalization.",
		}, []string{"schema"}),
		SubtitleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subtitles",
			Name:      "lookups_total",
			Help:      "Subtitle lookups by outcome.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.MirrorFailovers,
		m.NormalizeSkipped,
		m.SubtitleLookups,
	)

	return m
}

// Fetched records one finished fetch. kind is "ok" or an error kind.
func (m *Metrics) Fetched(provider, kind string, elapsed time.Duration) {
	m.FetchRequests.WithLabelValues(provider, kind).Inc()
	m.FetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// FailedOver records a move from mirror from to mirror to.
func (m *Metrics) FailedOver(provider string, from, to int) {
	m.MirrorFailovers.WithLabelValues(provider).Inc()
}

// Skipped records a dropped record.
func (m *Metrics) Skipped(schema string) {
	m.NormalizeSkipped.WithLabelValues(schema).Inc()
}

// SubtitleLookup records the outcome of a subtitle lookup.
func (m *Metrics) SubtitleLookup(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SubtitleLookups.WithLabelValues(result).Inc()
}
