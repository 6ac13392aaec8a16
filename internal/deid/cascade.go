package deid

import "github.com/wolfman30/phi-scrubber/internal/deid/terms"

// stage is one ordered filtering step. reason is the string recorded in the
// audit log for every detection the stage removes.
type stage struct {
	reason string
	apply  func(p *pipeline, dets []Detection) []Detection
}

// pipeline carries the per-document state shared by cascade stages: the
// sanitized text, its line table, the resolved options, and the protected
// term reference. Stages read it; nothing writes it after construction.
type pipeline struct {
	text  string
	lines []lineSpan
	opts  *resolvedOptions
	terms *terms.Reference
}

func newPipeline(text string, opts *resolvedOptions, ref *terms.Reference) *pipeline {
	return &pipeline{
		text:  text,
		lines: splitLines(text),
		opts:  opts,
		terms: ref,
	}
}

func (p *pipeline) line(pos int) string {
	ln := lineAt(p.lines, pos)
	return p.text[ln.start:ln.end]
}

// cascadeStages returns the fixed, order-sensitive stage list. Reordering
// stages changes which rule gets credit for a removal and, in some cases,
// whether a detection survives at all.
func cascadeStages() []stage {
	return []stage{
		{"provider_line", filterProviderLines},
		{"provider_context", filterProviderContext},
		{"signature_block", filterSignatureBlock},
		{"device_model_context", filterDeviceModelContext},
		{"credential", filterCredentials},
		{"procedure_code_context", filterProcedureCodes},
		{"duration_or_relative_time", filterDurations},
		{"measurement_unit", filterMeasurements},
		{"strict_datetime_revalidation", filterStrictDateTime},
		{"protected_term_allowlist", filterAllowlist},
		{"header_false_positive", filterHeaders},
		{"below_score_threshold", filterLowScores},
	}
}

// runCascade applies every stage in order, reporting each stage's removals
// to onRemoved with the stage reason.
func runCascade(p *pipeline, dets []Detection, onRemoved func(reason string, removed []Detection)) []Detection {
	cur := dets
	for _, st := range cascadeStages() {
		next := st.apply(p, cur)
		if onRemoved != nil {
			if removed := removedBetween(cur, next); len(removed) > 0 {
				onRemoved(st.reason, removed)
			}
		}
		cur = next
	}
	return cur
}

// keepWhere returns the detections for which keep returns true. The input
// slice is never modified.
func keepWhere(dets []Detection, keep func(Detection) bool) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
