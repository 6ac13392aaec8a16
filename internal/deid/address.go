package deid

import "regexp"

const usStates = `(?:AL|AK|AZ|AR|CA|CO|CT|DE|DC|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)`

var (
	// A line that starts with a building number followed by words ending in a
	// recognized street-suffix token.
	reStreetLine = regexp.MustCompile(`^\s*\d+[A-Za-z]?\s+(?:[A-Za-z0-9'.-]+\s+){0,4}(?:St|Street|Ave|Avenue|Rd|Road|Blvd|Boulevard|Dr|Drive|Ln|Lane|Way|Ct|Court|Pl|Place|Pkwy|Parkway|Hwy|Highway|Ter|Terrace|Cir|Circle)\.?(?:\s*,?\s*(?:Suite|Ste|Apt|Unit|#)\s*\S+)?\s*$`)

	reStateZip = regexp.MustCompile(`\b` + usStates + `\s+\d{5}(?:-\d{4})?\b`)
	reMailCode = regexp.MustCompile(`\bMC\s?\d{3,6}\b`)
)

// detectAddresses flags street lines confirmed by a following STATE ZIP
// line, bare STATE ZIP occurrences anywhere, and mail-code tokens.
func detectAddresses(text string) []Detection {
	var dets []Detection
	lines := splitLines(text)

	for i, ln := range lines {
		if !reStreetLine.MatchString(text[ln.start:ln.end]) {
			continue
		}
		if i+1 >= len(lines) {
			continue
		}
		next := lines[i+1]
		if !reStateZip.MatchString(text[next.start:next.end]) {
			continue
		}
		start, end := trimSpan(text, ln.start, ln.end)
		if start < end {
			dets = append(dets, Detection{
				EntityType: EntityAddress,
				Start:      start,
				End:        end,
				Score:      0.9,
				Source:     "pattern_address",
			})
		}
	}

	for _, m := range reStateZip.FindAllStringIndex(text, -1) {
		dets = append(dets, Detection{
			EntityType: EntityAddress,
			Start:      m[0],
			End:        m[1],
			Score:      0.9,
			Source:     "pattern_address",
		})
	}

	for _, m := range reMailCode.FindAllStringIndex(text, -1) {
		dets = append(dets, Detection{
			EntityType: EntityAddress,
			Start:      m[0],
			End:        m[1],
			Score:      0.85,
			Source:     "pattern_address",
		})
	}

	return dedupeDetections(dets)
}

// trimSpan shrinks [start, end) past leading and trailing whitespace.
func trimSpan(text string, start, end int) (int, int) {
	for start < end && (text[start] == ' ' || text[start] == '\t') {
		start++
	}
	for end > start && (text[end-1] == ' ' || text[end-1] == '\t' || text[end-1] == '\r') {
		end--
	}
	return start, end
}
