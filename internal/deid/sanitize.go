package deid

import "unicode/utf8"

// invisibleRunes are zero-width and invisible formatting characters that
// break regex matching and span alignment when left in clinical text.
var invisibleRunes = map[rune]bool{
	' ': true, // no-break space
	'­': true, // soft hyphen
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	'‎': true, // left-to-right mark
	'‏': true, // right-to-left mark
	' ': true, // line separator
	' ': true, // paragraph separator
	'⁠': true, // word joiner
	// Zero width no-break space / BOM. Escaped: a raw U+FEFF is only legal
	// as the first code point of a Go source file.
	'\uFEFF': true,
}

// Sanitize replaces invisible formatting characters with visible spaces.
// Each replaced rune becomes a run of spaces of the same byte width, so
// len(Sanitize(t)) == len(t) and every byte offset into the result maps 1:1
// onto the input. Every downstream stage depends on this.
func Sanitize(text string) string {
	var buf []byte
	for i, r := range text {
		if !invisibleRunes[r] {
			continue
		}
		if buf == nil {
			buf = []byte(text)
		}
		for j := 0; j < utf8.RuneLen(r); j++ {
			buf[i+j] = ' '
		}
	}
	if buf == nil {
		return text
	}
	return string(buf)
}
