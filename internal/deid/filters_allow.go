package deid

import (
	"regexp"
	"strings"
)

var (
	// Pure uppercase section-header words: "FINDINGS", "ESTIMATED BLOOD LOSS".
	reUppercaseHeader = regexp.MustCompile(`^[A-Z][A-Z .&-]*$`)

	// "Label:" header shape at the start of a line.
	reLabelHeader = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z /-]{0,40}:`)
)

// filterAllowlist drops detections whose text is protected clinical
// vocabulary, either as an exact term or via a word-bounded substring match.
// ADDRESS detections and forced patient names pass through untouched:
// addresses are never clinical vocabulary, and the forced extraction already
// proved the span is the patient.
func filterAllowlist(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType == EntityAddress || d.Source == SourceForcedPatientName {
			return true
		}
		text := d.Text(p.text)
		if p.terms.IsProtected(text) {
			return false
		}
		return !p.terms.ContainsProtected(text)
	})
}

// filterHeaders drops PERSON/LOCATION detections that are really section
// headers or labels: pure uppercase header words, digit-bearing tokens,
// slash/colon-bearing tokens, and names sitting inside a "Label:" prefix.
func filterHeaders(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityPerson && d.EntityType != EntityLocation {
			return true
		}
		if !contextSuppressible(d) {
			return true
		}
		text := strings.TrimSpace(d.Text(p.text))
		if text == "" {
			return false
		}
		if strings.ContainsAny(text, "0123456789/:") {
			return false
		}
		if len(text) > 1 && reUppercaseHeader.MatchString(text) {
			return false
		}
		return !inLabelHeader(p, d)
	})
}

// inLabelHeader reports whether the detection sits inside the "Label:" part
// of its line.
func inLabelHeader(p *pipeline, d Detection) bool {
	ln := lineAt(p.lines, d.Start)
	line := p.text[ln.start:ln.end]
	loc := reLabelHeader.FindStringIndex(line)
	if loc == nil {
		return false
	}
	// The label region ends at the colon; a detection beyond it is line
	// content, not header.
	return d.End <= ln.start+loc[1]
}

// filterLowScores drops detections below the per-entity-type threshold.
func filterLowScores(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		return d.Score >= p.opts.thresholdFor(d.EntityType)
	})
}
