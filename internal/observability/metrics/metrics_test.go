package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestScrubMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScrubMetrics(reg)
	m.ObserveScrub("operative_note", "ok")
	m.ObserveScrub("", "error")
	m.ObserveEntityRedacted("PERSON")
	m.ObserveRemoved("below_score_threshold", 3)
	m.ObserveRemoved("below_score_threshold", 0)
	m.ObserveScrubLatency("operative_note", 0.02)
}

func TestScrubMetricsNilSafe(t *testing.T) {
	var m *ScrubMetrics
	m.ObserveScrub("operative_note", "ok")
	m.ObserveEntityRedacted("PERSON")
	m.ObserveRemoved("overlap_conflict", 1)
	m.ObserveScrubLatency("operative_note", 0.1)
}
