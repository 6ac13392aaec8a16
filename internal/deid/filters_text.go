package deid

import (
	"regexp"
	"strings"
)

var (
	// Alphanumeric device-model-looking tokens: T190, BF-1TH190, ERBE2.
	reModelToken = regexp.MustCompile(`\b[A-Z]{1,4}-?[0-9]{1,2}[A-Z]{0,2}[0-9]{0,4}[A-Za-z]?\b`)

	reDeviceKeyword = regexp.MustCompile(`(?i)\b(?:bronchoscope|scope|cryoprobe|needle|catheter|probe|stent|balloon|forceps)\b`)
	reMRNLabel      = regexp.MustCompile(`(?i)\b(?:mrn|id)\s*[:#]`)

	// Known credential abbreviations, matched against the detection text
	// with punctuation stripped and upper-cased.
	credentialAbbrevs = map[string]bool{
		"MD": true, "DO": true, "RN": true, "NP": true, "PA": true,
		"PAC": true, "CRNA": true, "LPN": true, "BSN": true, "RT": true,
		"FACS": true, "FCCP": true, "MBBS": true, "PHD": true,
		"DDS": true, "DMD": true,
	}

	// 5-character alphanumeric procedure-code tokens (CPT, HCPCS).
	reCodeToken     = regexp.MustCompile(`\b[A-Z0-9]{5}\b`)
	reCodingKeyword = regexp.MustCompile(`(?i)\b(?:cpt|hcpcs|icd(?:-?(?:9|10|11))?(?:-?cm)?|code[sd]?)\b`)
)

// filterDeviceModelContext drops detections fully contained in a device
// model token that appears near device-context keywords, unless the line
// carries an MRN/ID label.
func filterDeviceModelContext(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		if !contextSuppressible(d) {
			return true
		}
		ln := lineAt(p.lines, d.Start)
		line := p.text[ln.start:ln.end]
		if reMRNLabel.MatchString(line) {
			return true
		}

		contained := false
		for _, m := range reModelToken.FindAllStringIndex(line, -1) {
			if ln.start+m[0] <= d.Start && d.End <= ln.start+m[1] {
				contained = true
				break
			}
		}
		if !contained {
			return true
		}
		return !nearDeviceKeyword(p, ln)
	})
}

// nearDeviceKeyword checks the token's line and its immediate neighbors for
// device-context vocabulary.
func nearDeviceKeyword(p *pipeline, ln lineSpan) bool {
	lo := ln.start - 80
	if lo < 0 {
		lo = 0
	}
	hi := ln.end + 80
	if hi > len(p.text) {
		hi = len(p.text)
	}
	return reDeviceKeyword.MatchString(p.text[lo:hi])
}

// filterCredentials drops any detection whose normalized text is a known
// credential abbreviation.
func filterCredentials(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		return !credentialAbbrevs[normalizeToken(d.Text(p.text))]
	})
}

// normalizeToken strips punctuation and upper-cases, so "M.D." and "md"
// normalize identically.
func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// filterProcedureCodes drops detections overlapping a 5-character
// alphanumeric code token when the line has a coding-context keyword, or
// when the token begins a non-address line.
func filterProcedureCodes(p *pipeline, dets []Detection) []Detection {
	return keepWhere(dets, func(d Detection) bool {
		ln := lineAt(p.lines, d.Start)
		line := p.text[ln.start:ln.end]

		codingLine := reCodingKeyword.MatchString(line)
		for _, m := range reCodeToken.FindAllStringIndex(line, -1) {
			tokStart, tokEnd := ln.start+m[0], ln.start+m[1]
			if d.End <= tokStart || tokEnd <= d.Start {
				continue
			}
			if codingLine {
				return false
			}
			if tokStart == ln.start+indentWidth(line) && !isAddressLine(line) {
				return false
			}
		}
		return true
	})
}

func indentWidth(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

func isAddressLine(line string) bool {
	return reStreetLine.MatchString(line) || reStateZip.MatchString(line)
}
