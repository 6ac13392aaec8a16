package deid

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// contextWindowRadius is the review window captured either side of a
// detection in the audit report.
const contextWindowRadius = 40

// AuditedDetection is one raw (pre-cascade) candidate with its text and a
// review context window.
type AuditedDetection struct {
	EntityType         string  `json:"entity_type"`
	Start              int     `json:"start"`
	End                int     `json:"end"`
	Score              float64 `json:"score"`
	Source             string  `json:"source,omitempty"`
	DetectedText       string  `json:"detected_text"`
	SurroundingContext string  `json:"surrounding_context"`
}

// RemovedDetectionRecord is an immutable audit entry for one suppressed
// detection, tagged with the cascade stage (or resolver) that removed it.
type RemovedDetectionRecord struct {
	Reason             string  `json:"reason"`
	EntityType         string  `json:"entity_type"`
	Start              int     `json:"start"`
	End                int     `json:"end"`
	Score              float64 `json:"score"`
	Source             string  `json:"source,omitempty"`
	DetectedText       string  `json:"detected_text"`
	SurroundingContext string  `json:"surrounding_context"`
}

// ConfigSnapshot freezes the scrubber settings that were active for a run.
type ConfigSnapshot struct {
	ScoreThresholds               map[string]float64 `json:"score_thresholds"`
	RelativeDatetimePhrases       []string           `json:"relative_datetime_phrases"`
	EnableDriverLicenseRecognizer bool               `json:"enable_driver_license_recognizer"`
}

// AuditReport is the complete before/after record of one scrub: every raw
// candidate, every removal with its reason, the active configuration, and
// the final redacted text. RedactedText always equals the ScrubbedText of
// the ScrubResult from the same run.
type AuditReport struct {
	RunID             string                   `json:"run_id"`
	CreatedAt         time.Time                `json:"created_at"`
	DocumentType      string                   `json:"document_type,omitempty"`
	Specialty         string                   `json:"specialty,omitempty"`
	Config            ConfigSnapshot           `json:"config"`
	Detections        []AuditedDetection       `json:"detections"`
	RemovedDetections []RemovedDetectionRecord `json:"removed_detections"`
	RedactedText      string                   `json:"redacted_text"`
}

// JSON renders the report in its stable wire shape.
func (r *AuditReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// auditBuilder folds per-stage removal diffs into an AuditReport.
type auditBuilder struct {
	text   string
	report *AuditReport
}

func newAuditBuilder(text string, meta DocumentMeta, snapshot ConfigSnapshot) *auditBuilder {
	return &auditBuilder{
		text: text,
		report: &AuditReport{
			RunID:             uuid.NewString(),
			CreatedAt:         time.Now().UTC(),
			DocumentType:      meta.DocumentType,
			Specialty:         meta.Specialty,
			Config:            snapshot,
			Detections:        []AuditedDetection{},
			RemovedDetections: []RemovedDetectionRecord{},
		},
	}
}

// recordRaw captures every pre-cascade candidate with its context window.
func (b *auditBuilder) recordRaw(dets []Detection) {
	for _, d := range dets {
		b.report.Detections = append(b.report.Detections, AuditedDetection{
			EntityType:         d.EntityType,
			Start:              d.Start,
			End:                d.End,
			Score:              d.Score,
			Source:             d.Source,
			DetectedText:       d.Text(b.text),
			SurroundingContext: contextWindow(b.text, d.Start, d.End),
		})
	}
}

// recordRemoved appends one record per removed detection, tagged with the
// removing stage's reason.
func (b *auditBuilder) recordRemoved(reason string, removed []Detection) {
	for _, d := range removed {
		b.report.RemovedDetections = append(b.report.RemovedDetections, RemovedDetectionRecord{
			Reason:             reason,
			EntityType:         d.EntityType,
			Start:              d.Start,
			End:                d.End,
			Score:              d.Score,
			Source:             d.Source,
			DetectedText:       d.Text(b.text),
			SurroundingContext: contextWindow(b.text, d.Start, d.End),
		})
	}
}

// contextWindow returns the fixed-width text window around [start, end).
func contextWindow(text string, start, end int) string {
	lo := start - contextWindowRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindowRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
