package deid

import "sort"

// typePriority ranks entity types for overlap resolution. More specific,
// higher-risk identifiers win over broader categories. Hand-tuned values
// preserved as defaults; see DESIGN.md.
var typePriority = map[string]int{
	EntityMRN:           100,
	EntitySSN:           95,
	EntityEmail:         90,
	EntityPhone:         90,
	EntityAddress:       85,
	EntityDateTime:      80,
	EntityPerson:        70,
	EntityLocation:      60,
	EntityDriverLicense: 50,
}

// resolveOverlaps reduces the detection set to a non-overlapping one.
// Detections are ranked by (type priority, score, span length, earliest
// start, entity type) and accepted greedily; any span overlapping an
// already-accepted span loses. Ties break deterministically, so repeated
// runs over the same input produce identical output. The result is sorted
// ascending by start.
func resolveOverlaps(dets []Detection) []Detection {
	if len(dets) == 0 {
		return nil
	}

	ranked := make([]Detection, len(dets))
	copy(ranked, dets)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if pa, pb := typePriority[a.EntityType], typePriority[b.EntityType]; pa != pb {
			return pa > pb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if la, lb := a.length(), b.length(); la != lb {
			return la > lb
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.EntityType > b.EntityType
	})

	accepted := make([]Detection, 0, len(ranked))
	for _, d := range ranked {
		conflict := false
		for _, a := range accepted {
			if d.Overlaps(a) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, d)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}
