package deid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactSplicesPlaceholders(t *testing.T) {
	text := "Patient Jane Doe seen on 01/02/2099 in clinic."
	jStart, jEnd := findSpan(t, text, "Jane Doe")
	dStart, dEnd := findSpan(t, text, "01/02/2099")

	result := redact(text, []Detection{
		{EntityType: EntityPerson, Start: jStart, End: jEnd, Score: 0.9},
		{EntityType: EntityDateTime, Start: dStart, End: dEnd, Score: 0.9},
	})

	assert.Equal(t, "Patient <PERSON> seen on <DATE_TIME> in clinic.", result.ScrubbedText)
	require.Len(t, result.Entities, 2)

	assert.Equal(t, "<PERSON>", result.Entities[0].Placeholder)
	assert.Equal(t, jStart, result.Entities[0].OriginalStart)
	assert.Equal(t, jEnd, result.Entities[0].OriginalEnd)
	assert.Equal(t, "<DATE_TIME>", result.Entities[1].Placeholder)
	assert.Equal(t, dStart, result.Entities[1].OriginalStart)
}

func TestRedactOrdersEntitiesAscending(t *testing.T) {
	text := "aa bb cc dd ee"
	result := redact(text, []Detection{
		{EntityType: EntityPerson, Start: 0, End: 2, Score: 0.9},
		{EntityType: EntityPerson, Start: 6, End: 8, Score: 0.9},
		{EntityType: EntityPerson, Start: 12, End: 14, Score: 0.9},
	})

	require.Len(t, result.Entities, 3)
	for i := 1; i < len(result.Entities); i++ {
		assert.Greater(t, result.Entities[i].OriginalStart, result.Entities[i-1].OriginalStart)
	}
}

func TestRedactNoDetections(t *testing.T) {
	result := redact("clean narrative", nil)
	assert.Equal(t, "clean narrative", result.ScrubbedText)
	assert.Empty(t, result.Entities)
	assert.NotNil(t, result.Entities)
}

func TestRedactPanicsOnOverlap(t *testing.T) {
	// An overlapping accepted set means the resolver invariant is broken;
	// leaking text on internal error is forbidden, so this must not return.
	assert.Panics(t, func() {
		redact("0123456789", []Detection{
			{EntityType: EntityPerson, Start: 0, End: 5, Score: 0.9},
			{EntityType: EntityMRN, Start: 3, End: 8, Score: 0.9},
		})
	})
}

func TestRedactPanicsOnInvalidSpan(t *testing.T) {
	assert.Panics(t, func() {
		redact("short", []Detection{
			{EntityType: EntityPerson, Start: 2, End: 99, Score: 0.9},
		})
	})
}
