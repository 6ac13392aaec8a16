// Package terms holds the protected clinical vocabulary: anatomical and
// procedure terms, device and manufacturer names, and a broader clinical
// allowlist. These terms are clinically essential and must never be
// redacted, no matter how confident a recognizer is about them.
//
// The reference is built once per process and is read-only afterwards, so it
// is safe for unsynchronized concurrent reads from parallel scrubs.
package terms

import (
	"regexp"
	"strings"
	"sync"
)

var (
	loadOnce sync.Once
	loaded   *Reference
)

// Reference is the process-wide protected-term lookup.
type Reference struct {
	protected map[string]bool
	boundary  *regexp.Regexp
}

// Load returns the shared Reference, building it on first use.
func Load() *Reference {
	loadOnce.Do(func() {
		loaded = build()
	})
	return loaded
}

// IsProtected reports whether the whole term, normalized, is in the
// protected vocabulary.
func (r *Reference) IsProtected(term string) bool {
	return r.protected[Normalize(term)]
}

// ContainsProtected reports whether any word-bounded substring of text is a
// protected term.
func (r *Reference) ContainsProtected(text string) bool {
	return r.boundary.MatchString(text)
}

// Normalize lowercases and strips surrounding punctuation so "Dumon," and
// "dumon" compare equal.
func Normalize(term string) string {
	term = strings.TrimFunc(term, func(r rune) bool {
		return !alnum(r)
	})
	return strings.ToLower(term)
}

func alnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// anatomyTerms cover airway anatomy, lobes, segments, and lymph node
// stations referenced in bronchoscopy and thoracic procedure notes.
var anatomyTerms = []string{
	"trachea", "carina", "larynx", "glottis", "subglottis", "vocal cords",
	"bronchus", "bronchus intermedius", "mainstem", "left mainstem",
	"right mainstem", "left main bronchus", "right main bronchus",
	"left upper lobe", "left lower lobe", "lingula",
	"right upper lobe", "right middle lobe", "right lower lobe",
	"upper lobe", "middle lobe", "lower lobe",
	"LUL", "LLL", "RUL", "RML", "RLL",
	"apical segment", "posterior segment", "anterior segment",
	"superior segment", "basilar segment",
	"pleura", "pleural space", "mediastinum", "hilum",
	// Mediastinal and hilar lymph node stations (IASLC map).
	"2R", "2L", "4R", "4L", "7", "8", "9", "10R", "10L",
	"11R", "11L", "11Rs", "11Ri", "11Ls", "12R", "12L",
	"station 2R", "station 2L", "station 4R", "station 4L", "station 7",
	"station 10R", "station 10L", "station 11R", "station 11L",
}

// procedureTerms are procedure names and technique vocabulary.
var procedureTerms = []string{
	"bronchoscopy", "flexible bronchoscopy", "rigid bronchoscopy",
	"EBUS", "EBUS-TBNA", "TBNA", "transbronchial biopsy",
	"endobronchial biopsy", "navigational bronchoscopy",
	"BAL", "bronchoalveolar lavage", "lavage", "brushing", "washings",
	"ROSE", "rapid on-site evaluation",
	"thoracentesis", "pleuroscopy", "thoracoscopy", "pleurodesis",
	"cryobiopsy", "cryotherapy", "cryoablation",
	"APC", "argon plasma coagulation", "electrocautery", "laser ablation",
	"balloon dilation", "stent placement", "stent revision",
	"fiducial placement", "tracheostomy", "intubation", "extubation",
	"mechanical debridement", "tumor debulking",
}

// deviceTerms are airway devices and their manufacturers. Recognizers read
// these as person or organization names with some regularity.
var deviceTerms = []string{
	"Dumon", "Montgomery", "T-tube", "Ultraflex", "Bonastent", "AERO",
	"Dynamic stent", "silicone stent", "hybrid stent",
	"Olympus", "Fujifilm", "Pentax", "Storz", "Karl Storz",
	"Boston Scientific", "Cook", "Cook Medical", "Merit", "Medtronic",
	"Erbe", "ConMed",
	"cryoprobe", "bronchoscope", "therapeutic bronchoscope",
	"EBUS scope", "Wang needle", "ViziShot", "Expect needle",
	"Arndt blocker", "Fogarty",
}

// clinicalTerms is the broader allowlist: common clinical vocabulary that
// statistical recognizers flag as names or locations in narrative text.
var clinicalTerms = []string{
	"apnea", "atelectasis", "hemoptysis", "stridor", "stenosis",
	"granulation", "granulation tissue", "malacia", "tracheomalacia",
	"bronchomalacia", "sarcoidosis", "lymphadenopathy", "adenopathy",
	"adenocarcinoma", "squamous cell carcinoma", "small cell",
	"non-small cell", "carcinoid", "lymphoma", "metastasis",
	"fentanyl", "midazolam", "propofol", "lidocaine", "epinephrine",
	"normal saline", "general anesthesia", "moderate sedation", "MAC",
	"fluoroscopy", "ultrasound",
	"operating room", "bronchoscopy suite", "recovery", "PACU", "ICU",
}

// exactOnlyTerms collide with common surnames, so they never join the
// substring alternation: "Mac Johnson" or "Dr. Cook" must stay eligible for
// redaction. Whole-span lookups still protect them.
var exactOnlyTerms = map[string]bool{
	"mac":   true,
	"cook":  true,
	"merit": true,
}

func build() *Reference {
	all := make([]string, 0,
		len(anatomyTerms)+len(procedureTerms)+len(deviceTerms)+len(clinicalTerms))
	all = append(all, anatomyTerms...)
	all = append(all, procedureTerms...)
	all = append(all, deviceTerms...)
	all = append(all, clinicalTerms...)

	protected := make(map[string]bool, len(all))
	quoted := make([]string, 0, len(all))
	for _, t := range all {
		norm := Normalize(t)
		if norm == "" || protected[norm] {
			continue
		}
		protected[norm] = true
		// Station tokens like "4R" or "7" stay exact-match only. Inside the
		// word-bounded alternation they would fire on digits within dates
		// and identifiers and suppress real PHI. Surname-colliding terms
		// are held out for the same reason.
		if len(norm) >= 3 && !exactOnlyTerms[norm] {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}

	// One word-bounded alternation over the longer vocabulary, used to find
	// protected terms inside larger candidate spans.
	boundary := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)

	return &Reference{
		protected: protected,
		boundary:  boundary,
	}
}
