// Package report normalizes the visual-analysis report produced by the
// multimodal analysis service into a typed, fully defaulted record.
//
// Normalization never fails: missing or malformed fields fall back to
// conservative defaults so the director can always produce a plan.
package report

import (
	"strings"
)

// Entity types.
const (
	EntitySingleSimple  = "single_simple"
	EntitySingleComplex = "single_complex"
	EntityMultiObject   = "multi_object"
)

// Levels used by construction_lines, broken_lines and anatomy_risk.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Low-construction sub-levels.
const (
	SublevelNone     = "none"
	SublevelOneTwo   = "one_two"
	SublevelTwoThree = "two_three"
)

// Line qualities.
const (
	LineMessy      = "messy"
	LineStructured = "structured"
	LineClean      = "clean"
)

// Complexity values.
const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// Object scales.
const (
	ScaleSmall  = "small"
	ScaleMedium = "medium"
	ScaleLarge  = "large"
)

// Report keys read by Normalize.
const (
	KeyEntityType              = "entity_type"
	KeyEntityExamples          = "entity_examples"
	KeyConstructionLines       = "construction_lines"
	KeyLowConstructionSublevel = "low_construction_sublevel"
	KeyBrokenLines             = "broken_lines"
	KeyLineQuality             = "line_quality"
	KeyAnatomyRisk             = "anatomy_risk"
	KeyComplexity              = "complexity"
	KeyObjectScale             = "object_scale"
	KeySubjectDetails          = "subject_details"
	KeyStyleMatch              = "style_match"
	KeyIssues                  = "issues"
	KeyNotes                   = "notes"
	KeyFixes                   = "fixes"
	KeyRemoves                 = "removes"
	KeyPreserve                = "preserve"

	KeyReferenceFinalScore        = "reference_final_score"
	KeyReferenceConflictPenalty   = "reference_conflict_penalty"
	KeyReferenceStyleDistance     = "reference_style_distance"
	KeyReferenceTextConflict      = "reference_text_conflict"
	KeyReferenceImageConflict     = "reference_image_conflict"
	KeyReferenceAccessoryMismatch = "reference_accessory_mismatch"
	KeyReferenceIsColored         = "reference_is_colored"
)

// Defaults applied when a categorical field is missing or unrecognised.
const (
	DefaultLineQuality = LineStructured
	DefaultAnatomyRisk = LevelMedium
	DefaultComplexity  = ComplexityComplex
)

// Reference holds the input-vs-reference comparison scores. All floats are
// clamped to [0,1].
type Reference struct {
	// Present is true when at least one reference score was supplied.
	Present bool

	FinalScore        float64
	ConflictPenalty   float64
	StyleDistance     float64
	TextConflict      float64
	ImageConflict     float64
	AccessoryMismatch float64
	IsColored         bool
}

// Normalized is the defaulted view of an analysis report.
type Normalized struct {
	// EntityType, ConstructionLines and BrokenLines are empty when the
	// report omits them or carries an unknown value.
	EntityType              string
	ConstructionLines       string
	LowConstructionSublevel string
	BrokenLines             string

	LineQuality string
	AnatomyRisk string
	Complexity  string

	// ObjectScale is always set; ScaleInferred reports whether it was
	// derived from EntityType rather than read from the report.
	ObjectScale   string
	ScaleInferred bool

	SubjectDetails string
	EntityExamples []string
	StyleMatch     bool

	Issues []string
	Notes  []string

	// Fixes, Removes and Preserve are the analyst's edit lists. A note that
	// holds a JSON blob contributes its lists here and its own notes to Notes.
	Fixes    []string
	Removes  []string
	Preserve []string

	Reference Reference
}

var (
	entityTypes = map[string]bool{
		EntitySingleSimple:  true,
		EntitySingleComplex: true,
		EntityMultiObject:   true,
	}
	levels = map[string]bool{
		LevelLow:    true,
		LevelMedium: true,
		LevelHigh:   true,
	}
	sublevels = map[string]bool{
		SublevelNone:     true,
		SublevelOneTwo:   true,
		SublevelTwoThree: true,
	}
	lineQualities = map[string]bool{
		LineMessy:      true,
		LineStructured: true,
		LineClean:      true,
	}
	scales = map[string]bool{
		ScaleSmall:  true,
		ScaleMedium: true,
		ScaleLarge:  true,
	}
	// complexityAliases maps the analyst's vocabulary onto the two
	// complexity values the director understands.
	complexityAliases = map[string]string{
		"simple":   ComplexitySimple,
		"basic":    ComplexitySimple,
		"complex":  ComplexityComplex,
		"detailed": ComplexityComplex,
	}
)

// humanLikeTerms are subject tags that mark a human-like (posable) subject.
var humanLikeTerms = map[string]bool{
	"character":  true,
	"characters": true,
	"person":     true,
	"people":     true,
	"human":      true,
	"humanoid":   true,
	"girl":       true,
	"boy":        true,
	"man":        true,
	"woman":      true,
	"child":      true,
	"kid":        true,
	"body":       true,
	"figure":     true,
}

// Normalize converts a raw report into a Normalized record. A nil map yields
// the all-defaults record.
func Normalize(raw map[string]any) Normalized {
	n := Normalized{
		EntityType:              enumOrEmpty(raw[KeyEntityType], entityTypes),
		ConstructionLines:       enumOrEmpty(raw[KeyConstructionLines], levels),
		LowConstructionSublevel: enumOrEmpty(raw[KeyLowConstructionSublevel], sublevels),
		BrokenLines:             enumOrEmpty(raw[KeyBrokenLines], levels),
		LineQuality:             enumOrDefault(raw[KeyLineQuality], lineQualities, DefaultLineQuality),
		AnatomyRisk:             enumOrDefault(raw[KeyAnatomyRisk], levels, DefaultAnatomyRisk),
		Complexity:              DefaultComplexity,
		SubjectDetails:          strings.TrimSpace(toString(raw[KeySubjectDetails])),
		EntityExamples:          toStrings(raw[KeyEntityExamples]),
		StyleMatch:              toBool(raw[KeyStyleMatch]),
		Issues:                  toStrings(raw[KeyIssues]),
		Fixes:                   toStrings(raw[KeyFixes]),
		Removes:                 toStrings(raw[KeyRemoves]),
		Preserve:                toStrings(raw[KeyPreserve]),
	}
	n.unpackNotes(toStrings(raw[KeyNotes]))

	if c, ok := complexityAliases[canonicalEnum(toString(raw[KeyComplexity]))]; ok {
		n.Complexity = c
	}

	n.ObjectScale = enumOrEmpty(raw[KeyObjectScale], scales)
	if n.ObjectScale == "" {
		n.ObjectScale = InferScale(n.EntityType)
		n.ScaleInferred = true
	}

	n.Reference = normalizeReference(raw)
	return n
}

// InferScale maps an entity type to the object scale assumed when the
// report does not state one.
func InferScale(entityType string) string {
	switch entityType {
	case EntitySingleSimple:
		return ScaleSmall
	case EntityMultiObject:
		return ScaleLarge
	default:
		return ScaleMedium
	}
}

func normalizeReference(raw map[string]any) Reference {
	var ref Reference
	read := func(key string) float64 {
		v, ok := lookupFloat(raw, key)
		if ok {
			ref.Present = true
		}
		return clamp01(v)
	}

	ref.FinalScore = read(KeyReferenceFinalScore)
	ref.ConflictPenalty = read(KeyReferenceConflictPenalty)
	ref.StyleDistance = read(KeyReferenceStyleDistance)
	ref.TextConflict = read(KeyReferenceTextConflict)
	ref.ImageConflict = read(KeyReferenceImageConflict)
	ref.AccessoryMismatch = read(KeyReferenceAccessoryMismatch)
	ref.IsColored = toBool(raw[KeyReferenceIsColored])
	return ref
}

// unpackNotes keeps plain notes as they are. A note that parses as a JSON
// report is replaced by its notes, and its fixes, removes and preserve lists
// fill the ones the report left empty.
func (n *Normalized) unpackNotes(notes []string) {
	for _, note := range notes {
		blob := ParseBlob(note)
		if len(blob) == 0 {
			n.Notes = append(n.Notes, note)
			continue
		}
		n.Notes = append(n.Notes, toStrings(blob[KeyNotes])...)
		if len(n.Fixes) == 0 {
			n.Fixes = toStrings(blob[KeyFixes])
		}
		if len(n.Removes) == 0 {
			n.Removes = toStrings(blob[KeyRemoves])
		}
		if len(n.Preserve) == 0 {
			n.Preserve = toStrings(blob[KeyPreserve])
		}
	}
}

// FreeText returns the lower-cased notes, issues and fixes joined by
// newlines. It is the text scanned for issue phrases and exactness phrases.
func (n Normalized) FreeText() string {
	parts := make([]string, 0, len(n.Notes)+len(n.Issues)+len(n.Fixes))
	parts = append(parts, n.Notes...)
	parts = append(parts, n.Issues...)
	parts = append(parts, n.Fixes...)
	return strings.ToLower(strings.Join(parts, "\n"))
}

// HumanLike reports whether the subject tags describe a human-like subject.
func (n Normalized) HumanLike() bool {
	for _, tag := range n.subjectTerms() {
		if humanLikeTerms[tag] {
			return true
		}
	}
	return false
}

// NonCharacter reports whether the subject is known and is not human-like.
// An unknown subject is not treated as non-character.
func (n Normalized) NonCharacter() bool {
	return len(n.subjectTerms()) > 0 && !n.HumanLike()
}

func (n Normalized) subjectTerms() []string {
	text := strings.ToLower(n.SubjectDetails + " " + strings.Join(n.EntityExamples, " "))
	return strings.FieldsFunc(text, func(r rune) bool {
		return (r < 'a' || r > 'z') && r != '_'
	})
}

// canonicalEnum lower-cases and trims s and folds spaces and hyphens to
// underscores so "Single Simple" and "single-simple" both match.
func canonicalEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func enumOrEmpty(v any, allowed map[string]bool) string {
	s := canonicalEnum(toString(v))
	if allowed[s] {
		return s
	}
	return ""
}

func enumOrDefault(v any, allowed map[string]bool, def string) string {
	if s := enumOrEmpty(v, allowed); s != "" {
		return s
	}
	return def
}
