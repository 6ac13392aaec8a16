package deid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/phi-scrubber/internal/deid/terms"
)

func testPipeline(text string) *pipeline {
	phrases := map[string]bool{}
	for _, p := range DefaultRelativeDatetimePhrases() {
		phrases[strings.ToLower(p)] = true
	}
	return newPipeline(text, &resolvedOptions{
		thresholds:      DefaultScoreThresholds(),
		relativePhrases: phrases,
		phraseList:      DefaultRelativeDatetimePhrases(),
	}, terms.Load())
}

func personAt(t *testing.T, text, name string, score float64) Detection {
	t.Helper()
	start, end := findSpan(t, text, name)
	return Detection{EntityType: EntityPerson, Start: start, End: end, Score: score, Source: "test"}
}

func forcedPersonAt(t *testing.T, text, name string) Detection {
	t.Helper()
	start, end := findSpan(t, text, name)
	return Detection{EntityType: EntityPerson, Start: start, End: end, Score: 1.0, Source: SourceForcedPatientName}
}

func detectionAt(t *testing.T, text, substr, entityType string, score float64) Detection {
	t.Helper()
	start, end := findSpan(t, text, substr)
	return Detection{EntityType: entityType, Start: start, End: end, Score: score, Source: "test"}
}

func TestFilterProviderLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		keep bool
	}{
		{"surgeon label", "SURGEON: John Smith, MD", false},
		{"attending label", "ATTENDING: John Smith", false},
		{"rn label", "RN: John Smith", false},
		{"lowercase label", "surgeon: John Smith", false},
		{"patient label wins", "Patient: John Smith", true},
		{"patient and role on one line", "SURGEON consult for Patient: John Smith", true},
		{"narrative line", "John Smith tolerated the procedure.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			dets := []Detection{personAt(t, tt.text, "John Smith", 0.9)}
			kept := filterProviderLines(p, dets)
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterProviderLinesExemptsForcedNames(t *testing.T) {
	text := "SURGEON: John Smith, MD"
	p := testPipeline(text)
	kept := filterProviderLines(p, []Detection{forcedPersonAt(t, text, "John Smith")})
	assert.Len(t, kept, 1, "forced patient names survive provider-line suppression")
}

func TestFilterProviderContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		keep bool
	}{
		{"dr prefix", "Discussed with Dr. John Smith before induction.", false},
		{"doctor prefix", "Doctor John Smith reviewed the images.", false},
		{"inline role label", "fellow: John Smith assisted.", false},
		{"credential suffix", "Consent obtained by John Smith, MD prior to start.", false},
		{"do suffix", "Reviewed by John Smith DO overnight.", false},
		{"patient label overrides suffix", "Patient: John Smith, MD card on file.", true},
		{"plain narrative", "John Smith returned to the recovery area.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			kept := filterProviderContext(p, []Detection{personAt(t, tt.text, "John Smith", 0.9)})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterProviderContextPrefixMustShareLine(t *testing.T) {
	text := "Consult by Dr. Adams.\nJohn Smith was resting comfortably."
	p := testPipeline(text)
	kept := filterProviderContext(p, []Detection{personAt(t, text, "John Smith", 0.9)})
	assert.Len(t, kept, 1, "a Dr. prefix on the previous line is not context")
}

func TestFilterSignatureBlock(t *testing.T) {
	text := "PROCEDURE:\nFlexible bronchoscopy with lavage.\n\nRecommendations:\nFollow up in two weeks.\nJohn Smith, MD, Interventional Pulmonology\n"
	p := testPipeline(text)

	signed := personAt(t, text, "John Smith", 0.9)
	kept := filterSignatureBlock(p, []Detection{signed})
	assert.Empty(t, kept, "credential plus service phrase in the trailing block is a signature")
}

func TestFilterSignatureBlockKeepsBodyDetections(t *testing.T) {
	text := "PROCEDURE:\nJohn Smith seen in consultation today regarding a mass.\nLong narrative follows with additional detail for context.\n\nRecommendations:\nFollow up in two weeks with imaging beforehand.\n"
	p := testPipeline(text)

	body := personAt(t, text, "John Smith", 0.9)
	kept := filterSignatureBlock(p, []Detection{body})
	assert.Len(t, kept, 1, "detections before the signature region stay")
}

func TestFilterDeviceModelContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		tok  string
		keep bool
	}{
		{"scope model near keyword", "The T190 therapeutic bronchoscope was advanced.", "T190", false},
		{"cryoprobe model", "A 1.9 mm cryoprobe, model ERB24, was used.", "ERB24", false},
		{"model with no device context", "Case T190 reviewed at conference.", "T190", true},
		{"mrn label wins", "MRN: T190 bronchoscope clinic record.", "T190", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := detectionAt(t, tt.text, tt.tok, EntityPerson, 0.8)
			kept := filterDeviceModelContext(p, []Detection{det})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterCredentials(t *testing.T) {
	text := "Consent by John Smith, M.D. and staff RN team."
	p := testPipeline(text)

	dets := []Detection{
		detectionAt(t, text, "M.D.", EntityPerson, 0.9),
		detectionAt(t, text, "RN", EntityPerson, 0.9),
		personAt(t, text, "John Smith", 0.9),
	}
	kept := filterCredentials(p, dets)
	require.Len(t, kept, 1)
	assert.Equal(t, "John Smith", kept[0].Text(text))
}

func TestFilterProcedureCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		tok  string
		typ  string
		keep bool
	}{
		{"cpt keyword line", "CPT: 31653 billed for the staging procedure.", "31653", EntityMRN, false},
		{"hcpcs keyword line", "HCPCS A4550 supplies documented.", "A4550", EntityMRN, false},
		{"code starts line", "31653 bronchoscopy with EBUS-TBNA, three stations.", "31653", EntityMRN, false},
		{"plain number elsewhere", "Estimated blood loss 31653 not plausible.", "31653", EntityMRN, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := detectionAt(t, tt.text, tt.tok, tt.typ, 0.9)
			kept := filterProcedureCodes(p, []Detection{det})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterProcedureCodesKeepsAddressLines(t *testing.T) {
	// A building number starting a street line is not a procedure code.
	text := "44182 County Road 12 Ct\nDurango, CO 81301"
	p := testPipeline(text)
	det := detectionAt(t, text, "44182", EntityAddress, 0.9)
	kept := filterProcedureCodes(p, []Detection{det})
	assert.Len(t, kept, 1)
}

func TestFilterDurations(t *testing.T) {
	tests := []struct {
		name string
		text string
		span string
		keep bool
	}{
		{"seconds duration", "A 30 second apnea test performed; stable.", "30 second", false},
		{"minutes duration", "Observed for 45 minutes in recovery.", "45 minutes", false},
		{"relative phrase", "Returns next week for staging.", "next week", false},
		{"relative word", "Discharged today in stable condition.", "today", false},
		{"real date", "Procedure on 01/02/2099 as planned.", "01/02/2099", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := detectionAt(t, tt.text, tt.span, EntityDateTime, 0.9)
			kept := filterDurations(p, []Detection{det})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterMeasurements(t *testing.T) {
	tests := []struct {
		name string
		text string
		span string
		keep bool
	}{
		{"ml suffix", "Instilled 120 ml of saline.", "120", false},
		{"mg suffix", "Given 2 mg midazolam.", "2", false},
		{"percent suffix", "Saturation 94% on room air.", "94", false},
		{"no unit", "Scheduled 2024 follow-up review.", "2024", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := detectionAt(t, tt.text, tt.span, EntityDateTime, 0.9)
			kept := filterMeasurements(p, []Detection{det})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterStrictDateTime(t *testing.T) {
	text := "Seen on 01/02/2099 and again afterwards."
	p := testPipeline(text)

	good := detectionAt(t, text, "01/02/2099", EntityDateTime, 0.9)
	bad := detectionAt(t, text, "on 01/02/2099", EntityDateTime, 0.9)
	kept := filterStrictDateTime(p, []Detection{good, bad})
	require.Len(t, kept, 1)
	assert.Equal(t, "01/02/2099", kept[0].Text(text))
}

func TestFilterAllowlistSupremacy(t *testing.T) {
	spans := []string{"Left Upper Lobe", "Dumon", "EBUS", "4R", "7", "11Rs", "carina", "cryoprobe"}
	for _, span := range spans {
		t.Run(span, func(t *testing.T) {
			text := "Finding at " + span + " noted during the procedure."
			p := testPipeline(text)
			det := detectionAt(t, text, span, EntityPerson, 0.99)
			kept := filterAllowlist(p, []Detection{det})
			assert.Empty(t, kept, "protected term %q must never survive as a detection", span)
		})
	}
}

func TestFilterAllowlistSubstringMatch(t *testing.T) {
	text := "Biopsies of the left upper lobe lesion obtained."
	p := testPipeline(text)
	det := detectionAt(t, text, "the left upper lobe lesion", EntityLocation, 0.9)
	kept := filterAllowlist(p, []Detection{det})
	assert.Empty(t, kept, "span containing a protected term is suppressed")
}

func TestFilterAllowlistSurnameCollisions(t *testing.T) {
	tests := []struct {
		name string
		text string
		span string
	}{
		{"mac as surname", "Patient: Mac Johnson admitted overnight.", "Mac Johnson"},
		{"cook as surname", "Patient: Sarah Cook tolerated sedation.", "Sarah Cook"},
		{"merit as surname", "Patient: Merit Smith discharged home.", "Merit Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := personAt(t, tt.text, tt.span, 0.9)
			kept := filterAllowlist(p, []Detection{det})
			assert.Len(t, kept, 1, "a name containing a device or sedation term stays redactable")
		})
	}
}

func TestFilterAllowlistExemptions(t *testing.T) {
	text := "Dumon Street clinic, Portland, OR 97201. Dumon is the patient surname here."
	p := testPipeline(text)

	addr := detectionAt(t, text, "OR 97201", EntityAddress, 0.9)
	forced := forcedPersonAt(t, text, "Dumon")

	kept := filterAllowlist(p, []Detection{addr, forced})
	assert.Len(t, kept, 2, "ADDRESS and forced patient names bypass the allowlist")
}

func TestFilterHeaders(t *testing.T) {
	tests := []struct {
		name string
		text string
		span string
		typ  string
		keep bool
	}{
		{"uppercase header", "FINDINGS AND PLAN\nAirways patent.", "FINDINGS AND PLAN", EntityPerson, false},
		{"digit bearing", "Sample A123 collected.", "A123", EntityPerson, false},
		{"slash bearing", "IMPRESSION/PLAN reviewed.", "IMPRESSION/PLAN", EntityLocation, false},
		{"label prefix", "Consent Status: obtained and witnessed.", "Consent Status", EntityPerson, false},
		{"ordinary name", "Seen by the team with Maria Gonzalez present.", "Maria Gonzalez", EntityPerson, true},
		{"non person type untouched", "Sample A123 collected.", "A123", EntityMRN, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPipeline(tt.text)
			det := detectionAt(t, tt.text, tt.span, tt.typ, 0.9)
			kept := filterHeaders(p, []Detection{det})
			if tt.keep {
				assert.Len(t, kept, 1)
			} else {
				assert.Empty(t, kept)
			}
		})
	}
}

func TestFilterLowScores(t *testing.T) {
	text := "John Smith seen 01/02/2099 at the Portland clinic."
	p := testPipeline(text)

	dets := []Detection{
		personAt(t, text, "John Smith", 0.49),
		detectionAt(t, text, "01/02/2099", EntityDateTime, 0.59),
		detectionAt(t, text, "Portland", EntityLocation, 0.69),
		detectionAt(t, text, "clinic", "UNKNOWN_TYPE", 0.49),
	}
	kept := filterLowScores(p, dets)
	assert.Empty(t, kept, "all detections sit just below their thresholds")

	dets = []Detection{
		personAt(t, text, "John Smith", 0.50),
		detectionAt(t, text, "01/02/2099", EntityDateTime, 0.60),
		detectionAt(t, text, "Portland", EntityLocation, 0.70),
		detectionAt(t, text, "clinic", "UNKNOWN_TYPE", 0.50),
	}
	kept = filterLowScores(p, dets)
	assert.Len(t, kept, 4, "thresholds are inclusive")
}

func TestRunCascadeReportsRemovals(t *testing.T) {
	text := "SURGEON: John Smith, MD\nPatient: Jane Doe seen 01/02/2099."
	p := testPipeline(text)

	dets := []Detection{
		personAt(t, text, "John Smith", 0.9),
		personAt(t, text, "Jane Doe", 0.9),
		detectionAt(t, text, "01/02/2099", EntityDateTime, 0.9),
	}

	removedBy := map[string]int{}
	kept := runCascade(p, dets, func(reason string, removed []Detection) {
		removedBy[reason] += len(removed)
	})

	assert.Equal(t, 1, removedBy["provider_line"], "provider suppression recorded")
	require.Len(t, kept, 2)
	assert.Equal(t, "Jane Doe", kept[0].Text(text))
	assert.Equal(t, "01/02/2099", kept[1].Text(text))
}
