package deid

import (
	"regexp"
	"strconv"
)

const monthNames = `(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)`

// Grammars for the deterministic date/time detector. The compact-time form
// is gated by validCompactTime below, not by the regex alone.
var (
	reISODateTime   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(?::\d{2})?\b`)
	reISODate       = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	reSlashTime     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:,)? +\d{1,2}:\d{2}(?::\d{2})?(?: ?[AaPp]\.?[Mm]\.?)?\b`)
	reSlashCompact  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4} +(\d{4})\b`)
	reSlashDate     = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	reMonthFirst    = regexp.MustCompile(`\b` + monthNames + `\.? +\d{1,2}(?:st|nd|rd|th)?,? +\d{4}\b`)
	reDayFirst      = regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)? +` + monthNames + `\.?,? +\d{4}\b`)
	reMonthYearOnly = regexp.MustCompile(`\b` + monthNames + `\.?,? +\d{4}\b`)
)

// strictDateTimePatterns anchor the same grammars (plus bare times and
// month-day forms) for whole-text re-validation of statistical DATE_TIME
// detections whose spans may have over-extended.
var strictDateTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?$`),
	regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}(?:,? +\d{1,2}:\d{2}(?::\d{2})?(?: ?[AaPp]\.?[Mm]\.?)?)?$`),
	regexp.MustCompile(`^` + monthNames + `\.? +\d{1,2}(?:st|nd|rd|th)?,? +\d{4}$`),
	regexp.MustCompile(`^\d{1,2}(?:st|nd|rd|th)? +` + monthNames + `\.?,? +\d{4}$`),
	regexp.MustCompile(`^` + monthNames + `\.?,? +\d{4}$`),
	regexp.MustCompile(`^` + monthNames + `\.? +\d{1,2}(?:st|nd|rd|th)?$`),
	regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?(?: ?[AaPp]\.?[Mm]\.?)?$`),
	regexp.MustCompile(`^(?:19|20)\d{2}$`),
}

// reStrictCompact mirrors reSlashCompact for whole-span re-validation. The
// captured digits still need validCompactTime, same as at detection time.
var reStrictCompact = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} +(\d{4})$`)

// detectDateTime runs every date/time grammar over the text and emits
// deduplicated DATE_TIME detections.
func detectDateTime(text string) []Detection {
	var dets []Detection

	add := func(pairs [][]int, score float64) {
		for _, m := range pairs {
			dets = append(dets, Detection{
				EntityType: EntityDateTime,
				Start:      m[0],
				End:        m[1],
				Score:      score,
				Source:     "pattern_datetime",
			})
		}
	}

	add(reISODateTime.FindAllStringIndex(text, -1), 0.95)
	add(reSlashTime.FindAllStringIndex(text, -1), 0.95)

	// Compact military time only counts when the trailing digits form a
	// legal 24-hour time; otherwise the match is date followed by some
	// other number (an accession, a page count).
	for _, m := range reSlashCompact.FindAllStringSubmatchIndex(text, -1) {
		if validCompactTime(text[m[2]:m[3]]) {
			add([][]int{{m[0], m[1]}}, 0.95)
		}
	}

	add(reISODate.FindAllStringIndex(text, -1), 0.9)
	add(reSlashDate.FindAllStringIndex(text, -1), 0.9)
	add(reMonthFirst.FindAllStringIndex(text, -1), 0.9)
	add(reDayFirst.FindAllStringIndex(text, -1), 0.9)
	add(reMonthYearOnly.FindAllStringIndex(text, -1), 0.85)

	return dedupeOverlappedSameType(dedupeDetections(dets))
}

// validCompactTime reports whether a 4-digit string is a legal HHMM
// 24-hour time.
func validCompactTime(s string) bool {
	if len(s) != 4 {
		return false
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return false
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil {
		return false
	}
	return hh >= 0 && hh <= 23 && mm >= 0 && mm <= 59
}

// matchesStrictDateTime reports whether the whole string is one of the known
// date/time grammars.
func matchesStrictDateTime(s string) bool {
	for _, re := range strictDateTimePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	if m := reStrictCompact.FindStringSubmatch(s); m != nil {
		return validCompactTime(m[1])
	}
	return false
}

// dedupeOverlappedSameType drops detections fully contained in a longer
// detection of the same type, so "01/02/2099 14:30" does not also yield the
// inner "01/02/2099".
func dedupeOverlappedSameType(dets []Detection) []Detection {
	out := make([]Detection, 0, len(dets))
	for i, d := range dets {
		contained := false
		for j, o := range dets {
			if i == j || d.EntityType != o.EntityType {
				continue
			}
			if o.Start <= d.Start && d.End <= o.End && o.length() > d.length() {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, d)
		}
	}
	return out
}
