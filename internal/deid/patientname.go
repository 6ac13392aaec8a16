package deid

import (
	"regexp"
	"strings"
)

// Structured header lines whose first sentence names the patient, e.g.
//
//	INDICATION FOR OPERATION:
//	Jane Doe is a 64-year-old woman with ...
//
// The capitalized 2-4 word phrase before "is a/an" is the patient name.
var reForcedNameHeader = regexp.MustCompile(
	`(?m)^(?:INDICATION FOR OPERATION|IMPRESSION/PLAN)\s*:\s*\n?\s*` +
		`((?:[A-Z][A-Za-z'.-]+)(?:\s+[A-Z][A-Za-z'.-]+){1,3})\s+is\s+an?\b`)

// detectForcedPatientNames extracts patient names from structured header
// lines and flags every literal occurrence of each name in the document as
// PERSON with score 1.0. The source tag exempts these detections from the
// provider-context suppression stages.
func detectForcedPatientNames(text string) []Detection {
	var dets []Detection
	seen := map[string]bool{}

	for _, m := range reForcedNameHeader.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if seen[name] {
			continue
		}
		seen[name] = true
		dets = append(dets, findLiteralOccurrences(text, name)...)
	}

	return dedupeDetections(dets)
}

// findLiteralOccurrences flags each whole-word occurrence of name in text.
func findLiteralOccurrences(text, name string) []Detection {
	var dets []Detection
	for off := 0; ; {
		idx := strings.Index(text[off:], name)
		if idx < 0 {
			break
		}
		start := off + idx
		end := start + len(name)
		off = end
		if !wordBoundary(text, start, end) {
			continue
		}
		dets = append(dets, Detection{
			EntityType: EntityPerson,
			Start:      start,
			End:        end,
			Score:      1.0,
			Source:     SourceForcedPatientName,
		})
	}
	return dets
}

// wordBoundary reports whether [start, end) is not embedded in a longer
// letter/digit run.
func wordBoundary(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
