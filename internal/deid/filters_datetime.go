package deid

import (
	"regexp"
	"strings"
)

var (
	// Durations: "30 second", "2.5 hours", "10 min".
	reDuration = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?[\s-]*(?:seconds?|secs?|minutes?|mins?|hours?|hrs?|days?|weeks?|months?|years?|yrs?)$`)

	// Purely numeric detection text, the only shape that can be a
	// measurement value.
	reNumericText = regexp.MustCompile(`^[\d.,/]+$`)

	// Unit token immediately after a numeric span. "%" needs no trailing
	// boundary since it is not a word character.
	reUnitSuffix = regexp.MustCompile(`(?i)^\s*(?:%|(?:ml|cc|mg|mcg|µg|g|kg|mm|cm|fr|french|units?|mmhg|l|lpm|puffs?|gauge|ga)\b)`)
)

// filterDurations drops DATE_TIME detections that are durations or vague
// relative phrases ("today", "next week"), which carry no identifying value.
func filterDurations(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityDateTime {
			return true
		}
		text := strings.TrimSpace(d.Text(p.text))
		if reDuration.MatchString(text) {
			return false
		}
		return !p.opts.relativePhrases[strings.ToLower(text)]
	})
}

// filterMeasurements drops numeric DATE_TIME detections immediately
// followed by a unit token ("30 ml", "14:00" never matches because of the
// colon).
func filterMeasurements(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityDateTime {
			return true
		}
		if !reNumericText.MatchString(strings.TrimSpace(d.Text(p.text))) {
			return true
		}
		return !reUnitSuffix.MatchString(p.text[d.End:])
	})
}

// filterStrictDateTime re-validates every remaining DATE_TIME detection
// against the known grammars, guarding against statistical spans that
// over-extend into surrounding words.
func filterStrictDateTime(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if d.EntityType != EntityDateTime {
			return true
		}
		return matchesStrictDateTime(strings.TrimSpace(d.Text(p.text)))
	})
}
