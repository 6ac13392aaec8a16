// Package deid implements the PHI de-identification pipeline: a
// length-preserving sanitizer, deterministic regex detectors, a statistical
// recognizer adapter, an ordered filter cascade, overlap resolution, and a
// redactor that splices placeholders into the original text. Every stage is
// a pure function over its inputs; the only shared state is the read-only
// protected-term reference.
package deid

import "strings"

// Entity types used across the pipeline. The recognizer adapter maps
// backend-specific categories onto these names.
const (
	EntityPerson        = "PERSON"
	EntityDateTime      = "DATE_TIME"
	EntityLocation      = "LOCATION"
	EntityAddress       = "ADDRESS"
	EntityMRN           = "MRN"
	EntityEmail         = "EMAIL_ADDRESS"
	EntityPhone         = "PHONE_NUMBER"
	EntitySSN           = "US_SSN"
	EntityDriverLicense = "US_DRIVER_LICENSE"
	EntityAge           = "AGE"
	EntityURL           = "URL"
)

// SourceForcedPatientName marks detections extracted from structured patient
// header lines. Context-based cascade stages never suppress these; the
// allowlist and score stages still apply.
const SourceForcedPatientName = "forced_patient_name"

// Detection is a candidate PHI span over the original text, half-open
// [Start, End). Detections are value objects: stages build new slices and
// never mutate a detection in place.
type Detection struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
	Source     string  `json:"source,omitempty"`
}

// Valid reports whether the span is well formed within a text of n bytes.
func (d Detection) Valid(n int) bool {
	return d.Start >= 0 && d.Start < d.End && d.End <= n
}

// Text returns the slice of text covered by the detection.
func (d Detection) Text(text string) string {
	return text[d.Start:d.End]
}

// Overlaps reports whether the two spans intersect.
func (d Detection) Overlaps(o Detection) bool {
	return d.Start < o.End && o.Start < d.End
}

func (d Detection) length() int { return d.End - d.Start }

// detectionKey identifies a detection by full field equality. Used for
// multiset diffs so duplicate-valued detections are tolerated.
type detectionKey struct {
	entityType string
	start      int
	end        int
	score      float64
	source     string
}

func (d Detection) key() detectionKey {
	return detectionKey{d.EntityType, d.Start, d.End, d.Score, d.Source}
}

// normalizeCandidates prepares raw candidates for the cascade: malformed
// spans (out of bounds or start >= end) are dropped silently, and any span
// crossing a newline is truncated to its first line so a placeholder never
// swallows the next line's unrelated content.
func normalizeCandidates(text string, dets []Detection) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if !d.Valid(len(text)) {
			continue
		}
		if idx := strings.IndexByte(text[d.Start:d.End], '\n'); idx >= 0 {
			if idx == 0 {
				continue
			}
			d.End = d.Start + idx
		}
		out = append(out, d)
	}
	return out
}

// removedBetween returns the multiset difference before \ after, keyed by
// full detection field equality.
func removedBetween(before, after []Detection) []Detection {
	if len(before) == len(after) {
		return nil
	}
	remaining := make(map[detectionKey]int, len(after))
	for _, d := range after {
		remaining[d.key()]++
	}
	var removed []Detection
	for _, d := range before {
		if remaining[d.key()] > 0 {
			remaining[d.key()]--
			continue
		}
		removed = append(removed, d)
	}
	return removed
}

// dedupeDetections removes exact (start, end, type) duplicates, keeping the
// first occurrence.
func dedupeDetections(dets []Detection) []Detection {
	type spanKey struct {
		start, end int
		entityType string
	}
	seen := make(map[spanKey]bool, len(dets))
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		k := spanKey{d.Start, d.End, d.EntityType}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}
