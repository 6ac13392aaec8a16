package deid

import (
	"fmt"
	"strings"
)

// ScrubbedEntity records one placeholder in the scrubbed text. Offsets
// reference the original text, not the redacted text.
type ScrubbedEntity struct {
	Placeholder   string `json:"placeholder"`
	EntityType    string `json:"entity_type"`
	OriginalStart int    `json:"original_start"`
	OriginalEnd   int    `json:"original_end"`
}

// ScrubResult is the redacted document: the scrubbed text plus an ordered,
// pairwise non-overlapping entity map. Immutable once produced.
type ScrubResult struct {
	ScrubbedText string           `json:"scrubbed_text"`
	Entities     []ScrubbedEntity `json:"entities"`
}

// redact splices <ENTITY_TYPE> placeholders into text for every accepted
// detection. Splicing runs right to left so earlier offsets stay valid for
// subsequent splices. accepted must be sorted ascending by start and
// non-overlapping; the resolver guarantees both. A violation means the
// pipeline is broken, and leaking unredacted text is the one forbidden
// outcome, so this fails loudly instead of returning the input.
func redact(text string, accepted []Detection) ScrubResult {
	if len(accepted) == 0 {
		return ScrubResult{ScrubbedText: text, Entities: []ScrubbedEntity{}}
	}

	scrubbed := text
	entities := make([]ScrubbedEntity, 0, len(accepted))
	for i := len(accepted) - 1; i >= 0; i-- {
		d := accepted[i]
		if !d.Valid(len(text)) {
			panic(fmt.Sprintf("deid: redactor got invalid span [%d,%d) of %d bytes", d.Start, d.End, len(text)))
		}
		if i < len(accepted)-1 && d.End > accepted[i+1].Start {
			panic(fmt.Sprintf("deid: redactor got overlapping spans [%d,%d) and [%d,%d)",
				d.Start, d.End, accepted[i+1].Start, accepted[i+1].End))
		}
		placeholder := "<" + strings.ToUpper(d.EntityType) + ">"
		scrubbed = scrubbed[:d.Start] + placeholder + scrubbed[d.End:]
		entities = append(entities, ScrubbedEntity{
			Placeholder:   placeholder,
			EntityType:    d.EntityType,
			OriginalStart: d.Start,
			OriginalEnd:   d.End,
		})
	}

	// Built right to left; the public contract is ascending by start.
	for i, j := 0, len(entities)-1; i < j; i, j = i+1, j-1 {
		entities[i], entities[j] = entities[j], entities[i]
	}

	return ScrubResult{ScrubbedText: scrubbed, Entities: entities}
}
