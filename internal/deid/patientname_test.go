package deid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forcedNameNote = `OPERATIVE NOTE

INDICATION FOR OPERATION:
Jane Doe is a 64-year-old woman with a right lower lobe mass.

PROCEDURE:
Flexible bronchoscopy performed. Jane Doe tolerated the procedure well.

IMPRESSION/PLAN:
Jane Doe is an appropriate candidate for EBUS staging.
`

func TestDetectForcedPatientNames(t *testing.T) {
	dets := detectForcedPatientNames(forcedNameNote)
	require.NotEmpty(t, dets)

	count := 0
	for _, d := range dets {
		assert.Equal(t, EntityPerson, d.EntityType)
		assert.Equal(t, 1.0, d.Score)
		assert.Equal(t, SourceForcedPatientName, d.Source)
		assert.Equal(t, "Jane Doe", d.Text(forcedNameNote))
		count++
	}
	// Header occurrence, procedure narrative, and the plan header.
	assert.Equal(t, 3, count)
}

func TestDetectForcedPatientNamesNoHeader(t *testing.T) {
	text := "Jane Doe is a 64-year-old woman.\nNo structured header present."
	assert.Empty(t, detectForcedPatientNames(text))
}

func TestDetectForcedPatientNamesIgnoresClinicalSentencesWithoutName(t *testing.T) {
	text := "INDICATION FOR OPERATION:\nThe airway is a difficult one to manage.\n"
	assert.Empty(t, detectForcedPatientNames(text))
}

func TestDetectForcedPatientNamesWordBoundary(t *testing.T) {
	text := "INDICATION FOR OPERATION:\nJane Doe is a 70-year-old woman.\nDiscussed with Jane Doering, RN. Jane Doe discharged.\n"
	dets := detectForcedPatientNames(text)
	for _, d := range dets {
		assert.Equal(t, "Jane Doe", d.Text(text))
	}
	// "Jane Doering" contains the name as a prefix but is not a whole-word
	// occurrence.
	assert.Len(t, dets, 2)
}
