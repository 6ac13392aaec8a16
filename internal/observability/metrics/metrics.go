package metrics

import "github.com/prometheus/client_golang/prometheus"

// ScrubMetrics exposes counters/histograms for the de-identification pipeline.
type ScrubMetrics struct {
	scrubTotal       *prometheus.CounterVec
	entitiesRedacted *prometheus.CounterVec
	removedTotal     *prometheus.CounterVec
	scrubLatency     *prometheus.HistogramVec
}

func NewScrubMetrics(reg prometheus.Registerer) *ScrubMetrics {
	m := &ScrubMetrics{
		scrubTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deid",
			Subsystem: "scrub",
			Name:      "documents_total",
			Help:      "Total documents scrubbed",
		}, []string{"document_type", "status"}),
		entitiesRedacted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deid",
			Subsystem: "scrub",
			Name:      "entities_redacted_total",
			Help:      "Total PHI entities replaced with placeholders",
		}, []string{"entity_type"}),
		removedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deid",
			Subsystem: "scrub",
			Name:      "detections_removed_total",
			Help:      "Candidate detections suppressed by cascade stage",
		}, []string{"reason"}),
		scrubLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "deid",
			Subsystem: "scrub",
			Name:      "latency_seconds",
			Help:      "Latency of a full document scrub",
			Buckets:   prometheus.DefBuckets,
		}, []string{"document_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scrubTotal, m.entitiesRedacted, m.removedTotal, m.scrubLatency)
	return m
}

func (m *ScrubMetrics) ObserveScrub(documentType, status string) {
	if m == nil {
		return
	}
	if documentType == "" {
		documentType = "unknown"
	}
	m.scrubTotal.WithLabelValues(documentType, status).Inc()
}

func (m *ScrubMetrics) ObserveEntityRedacted(entityType string) {
	if m == nil {
		return
	}
	m.entitiesRedacted.WithLabelValues(entityType).Inc()
}

func (m *ScrubMetrics) ObserveRemoved(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.removedTotal.WithLabelValues(reason).Add(float64(count))
}

func (m *ScrubMetrics) ObserveScrubLatency(documentType string, seconds float64) {
	if m == nil {
		return
	}
	if documentType == "" {
		documentType = "unknown"
	}
	m.scrubLatency.WithLabelValues(documentType).Observe(seconds)
}
