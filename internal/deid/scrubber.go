package deid

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/phi-scrubber/internal/deid/terms"
	"github.com/wolfman30/phi-scrubber/internal/observability/metrics"
	"github.com/wolfman30/phi-scrubber/pkg/logging"
)

// Detector proposes candidate PHI spans for a text buffer. The statistical
// recognizer backends in internal/recognizer implement it; offsets must be
// byte offsets into the given text.
type Detector interface {
	DetectEntities(ctx context.Context, text string) ([]Detection, error)
}

// DefaultScoreThresholds are the per-entity-type minimum scores. The empty
// key is the fallback for unrecognized types.
func DefaultScoreThresholds() map[string]float64 {
	return map[string]float64{
		EntityPerson:   0.50,
		EntityDateTime: 0.60,
		EntityLocation: 0.70,
		EntityMRN:      0.50,
		"":             0.50,
	}
}

// DefaultRelativeDatetimePhrases are vague relative-time phrases excluded
// from DATE_TIME redaction.
func DefaultRelativeDatetimePhrases() []string {
	return []string{
		"about a week", "in a week", "next week",
		"today", "tomorrow", "yesterday", "same day",
	}
}

// Options configure a Scrubber. Resolved once at construction and immutable
// for the scrubber's lifetime.
type Options struct {
	// ScoreThresholds maps entity type to minimum score. Missing types fall
	// back to the "" entry, then to the package default.
	ScoreThresholds map[string]float64

	// RelativeDatetimePhrases overrides the default exclusion phrase list.
	RelativeDatetimePhrases []string

	// EnableDriverLicenseRecognizer keeps US_DRIVER_LICENSE detections from
	// the backend. Off by default: the license recognizer false-positives
	// on device model numbers in this domain.
	EnableDriverLicenseRecognizer bool

	Logger  *logging.Logger
	Metrics *metrics.ScrubMetrics
}

// resolvedOptions is the frozen, lookup-friendly form of Options.
type resolvedOptions struct {
	thresholds      map[string]float64
	relativePhrases map[string]bool
	phraseList      []string
	enableDL        bool
}

func (o *resolvedOptions) thresholdFor(entityType string) float64 {
	if v, ok := o.thresholds[entityType]; ok {
		return v
	}
	return o.thresholds[""]
}

// DocumentMeta describes the document being scrubbed; recorded in the audit.
type DocumentMeta struct {
	DocumentType string
	Specialty    string
}

// Scrubber runs the full de-identification pipeline. Safe for concurrent
// use: per-document state is function-local and the shared term reference
// is read-only.
type Scrubber struct {
	detector Detector
	opts     resolvedOptions
	terms    *terms.Reference
	logger   *logging.Logger
	metrics  *metrics.ScrubMetrics
	tracer   trace.Tracer
}

// NewScrubber builds a Scrubber around the given detector. Pass
// recognizer.StubDetector explicitly for degraded operation without a
// statistical backend; a nil detector is a programming error.
func NewScrubber(detector Detector, opts Options) *Scrubber {
	if detector == nil {
		panic("deid: detector cannot be nil")
	}

	thresholds := DefaultScoreThresholds()
	for k, v := range opts.ScoreThresholds {
		thresholds[k] = v
	}
	if _, ok := thresholds[""]; !ok {
		thresholds[""] = 0.50
	}

	phrases := opts.RelativeDatetimePhrases
	if phrases == nil {
		phrases = DefaultRelativeDatetimePhrases()
	}
	phraseSet := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		phraseSet[strings.ToLower(strings.TrimSpace(p))] = true
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Scrubber{
		detector: detector,
		opts: resolvedOptions{
			thresholds:      thresholds,
			relativePhrases: phraseSet,
			phraseList:      append([]string(nil), phrases...),
			enableDL:        opts.EnableDriverLicenseRecognizer,
		},
		terms:   terms.Load(),
		logger:  logger.Component("deid"),
		metrics: opts.Metrics,
		tracer:  otel.Tracer("phiscrubber/deid"),
	}
}

// ScrubWithAudit runs the pipeline over text and returns the redacted
// result together with the full audit trail.
func (s *Scrubber) ScrubWithAudit(ctx context.Context, text string, meta DocumentMeta) (ScrubResult, *AuditReport, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "deid.scrub")
	defer span.End()
	span.SetAttributes(
		attribute.String("deid.document_type", meta.DocumentType),
		attribute.Int("deid.text_bytes", len(text)),
	)

	sanitized := Sanitize(text)
	audit := newAuditBuilder(sanitized, meta, s.configSnapshot())
	if sanitized == "" {
		s.metrics.ObserveScrub(meta.DocumentType, "ok")
		return ScrubResult{ScrubbedText: "", Entities: []ScrubbedEntity{}}, audit.report, nil
	}

	statistical, err := s.detector.DetectEntities(ctx, sanitized)
	if err != nil {
		s.metrics.ObserveScrub(meta.DocumentType, "error")
		return ScrubResult{}, nil, fmt.Errorf("deid: entity detection failed: %w", err)
	}
	statistical = s.gateLicenseDetections(statistical)

	candidates := make([]Detection, 0, len(statistical)+16)
	candidates = append(candidates, statistical...)
	candidates = append(candidates, detectDateTime(sanitized)...)
	candidates = append(candidates, detectAddresses(sanitized)...)
	candidates = append(candidates, detectForcedPatientNames(sanitized)...)

	candidates = normalizeCandidates(sanitized, candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})
	audit.recordRaw(candidates)

	p := newPipeline(sanitized, &s.opts, s.terms)
	kept := runCascade(p, candidates, func(reason string, removed []Detection) {
		audit.recordRemoved(reason, removed)
		s.metrics.ObserveRemoved(reason, len(removed))
	})

	final := resolveOverlaps(kept)
	if removed := removedBetween(kept, final); len(removed) > 0 {
		audit.recordRemoved("overlap_conflict", removed)
		s.metrics.ObserveRemoved("overlap_conflict", len(removed))
	}

	result := redact(sanitized, final)
	audit.report.RedactedText = result.ScrubbedText

	for _, e := range result.Entities {
		s.metrics.ObserveEntityRedacted(e.EntityType)
	}
	s.metrics.ObserveScrub(meta.DocumentType, "ok")
	s.metrics.ObserveScrubLatency(meta.DocumentType, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("deid.entities_redacted", len(result.Entities)),
		attribute.Int("deid.detections_removed", len(audit.report.RemovedDetections)),
	)
	s.logger.Debug("document scrubbed",
		"document_type", meta.DocumentType,
		"candidates", len(candidates),
		"redacted", len(result.Entities),
	)

	return result, audit.report, nil
}

// Scrub is the convenience form of ScrubWithAudit that discards the audit.
func (s *Scrubber) Scrub(ctx context.Context, text string, meta DocumentMeta) (ScrubResult, error) {
	result, _, err := s.ScrubWithAudit(ctx, text, meta)
	return result, err
}

// gateLicenseDetections drops US_DRIVER_LICENSE detections unless that
// recognizer class is explicitly enabled.
func (s *Scrubber) gateLicenseDetections(dets []Detection) []Detection {
	if s.opts.enableDL {
		return dets
	}
	return keepWhere(dets, func(d Detection) bool {
		return d.EntityType != EntityDriverLicense
	})
}

func (s *Scrubber) configSnapshot() ConfigSnapshot {
	thresholds := make(map[string]float64, len(s.opts.thresholds))
	for k, v := range s.opts.thresholds {
		thresholds[k] = v
	}
	return ConfigSnapshot{
		ScoreThresholds:               thresholds,
		RelativeDatetimePhrases:       append([]string(nil), s.opts.phraseList...),
		EnableDriverLicenseRecognizer: s.opts.enableDL,
	}
}
