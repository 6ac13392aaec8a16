package deid

import "sort"

// lineSpan is the half-open byte range of one line, excluding its newline.
type lineSpan struct {
	start, end int
}

// splitLines builds a line table over the text. Every byte of the text maps
// to exactly one line; the trailing newline byte belongs to the line it ends.
func splitLines(text string) []lineSpan {
	var lines []lineSpan
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, lineSpan{start, i})
			start = i + 1
		}
	}
	if start < len(text) || len(lines) == 0 {
		lines = append(lines, lineSpan{start, len(text)})
	}
	return lines
}

// lineAt returns the line containing byte offset pos.
func lineAt(lines []lineSpan, pos int) lineSpan {
	i := sort.Search(len(lines), func(i int) bool {
		// The newline byte at lines[i].end still belongs to line i.
		return pos <= lines[i].end
	})
	if i >= len(lines) {
		return lines[len(lines)-1]
	}
	return lines[i]
}
