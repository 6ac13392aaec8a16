package deid

import (
	"regexp"
	"strings"
)

// Lookback/lookahead windows for inline provider-context checks.
const (
	providerLookback  = 40
	providerLookahead = 20
)

var (
	// Structured provider/staff label lines: "SURGEON: ...", "RN: ...".
	reProviderLabelLine = regexp.MustCompile(`(?i)^\s*(?:surgeon|attending|assistant|fellow|resident|anesthesiologist|anesthesia|provider|physician|proceduralist|operator|referring(?:\s+physician)?|dictated\s+by|performed\s+by|staff|nurse|rn|lpn|crna|np|pa|rt)\s*:`)

	// A "Patient:" label anywhere on the line always keeps the detection.
	rePatientLabel = regexp.MustCompile(`(?i)\bpatient\s*:`)

	// Inline role labels and honorifics immediately before a name.
	reProviderPrefix = regexp.MustCompile(`(?i)(?:\b(?:surgeon|attending|assistant|fellow|resident|anesthesiologist|physician|provider|proceduralist|nurse)\s*[:\-]?\s*|\b(?:dr\.?|doctor)\s+)$`)

	// Credential suffix shortly after a name: ", MD" / " DO".
	reCredentialSuffix = regexp.MustCompile(`(?i)^\s*,?\s*(?:m\.?d\.?|d\.?o\.?|rn|np|pa(?:-c)?|crna|facs|fccp|mbbs)\b`)

	// Signature-block markers.
	reRecommendationsHeader = regexp.MustCompile(`(?im)^\s*recommendations?\s*:`)
	reCredentialToken       = regexp.MustCompile(`(?i)\b(?:m\.?d\.?|d\.?o\.?|np|pa(?:-c)?|crna|rn|facs|fccp|mbbs)\b`)

	// Fixed service-name phrases that appear in provider signatures.
	reServicePhrase = regexp.MustCompile(`(?i)\b(?:interventional\s+pulmonology|pulmonary\s+(?:medicine|and\s+critical\s+care)|thoracic\s+surgery|critical\s+care\s+medicine|cardiothoracic\s+surgery)\b`)
)

// contextSuppressible reports whether context-based stages may suppress the
// detection. Forced patient names are exempt.
func contextSuppressible(d Detection) bool {
	return d.Source != SourceForcedPatientName
}

// filterProviderLines drops PERSON detections sitting on a structured
// provider/staff label line, unless the line is also a Patient: label line.
func filterProviderLines(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityPerson || !contextSuppressible(d) {
			return true
		}
		line := p.line(d.Start)
		if rePatientLabel.MatchString(line) {
			return true
		}
		return !reProviderLabelLine.MatchString(line)
	})
}

// filterProviderContext drops PERSON detections preceded by an inline role
// label or Dr./Doctor prefix, or followed by a credential suffix. A Patient:
// label on the same line overrides and keeps the detection.
func filterProviderContext(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityPerson || !contextSuppressible(d) {
			return true
		}
		if rePatientLabel.MatchString(p.line(d.Start)) {
			return true
		}

		back := d.Start - providerLookback
		if back < 0 {
			back = 0
		}
		lookback := p.text[back:d.Start]
		// The prefix must be on the detection's own line.
		if idx := strings.LastIndexByte(lookback, '\n'); idx >= 0 {
			lookback = lookback[idx+1:]
		}
		if reProviderPrefix.MatchString(lookback) {
			return false
		}

		ahead := d.End + providerLookahead
		if ahead > len(p.text) {
			ahead = len(p.text)
		}
		lookahead := p.text[d.End:ahead]
		if idx := strings.IndexByte(lookahead, '\n'); idx >= 0 {
			lookahead = lookahead[:idx]
		}
		return !reCredentialSuffix.MatchString(lookahead)
	})
}

// filterSignatureBlock drops PERSON detections inside the trailing signature
// region when their line carries both a credential token and a service-name
// phrase.
func filterSignatureBlock(p *pipeline, dets []Detection) []Detection {
	region := len(p.text) * 3 / 4
	if loc := reRecommendationsHeader.FindStringIndex(p.text); loc != nil && loc[0] < region {
		region = loc[0]
	}

	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityPerson || !contextSuppressible(d) {
			return true
		}
		if d.Start < region {
			return true
		}
		line := p.line(d.Start)
		if rePatientLabel.MatchString(line) {
			return true
		}
		return !(reCredentialToken.MatchString(line) && reServicePhrase.MatchString(line))
	})
}
