package report

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_NilReportUsesDefaults(t *testing.T) {
	n := Normalize(nil)

	assert.Equal(t, "", n.EntityType)
	assert.Equal(t, "", n.ConstructionLines)
	assert.Equal(t, "", n.BrokenLines)
	assert.Equal(t, LineStructured, n.LineQuality)
	assert.Equal(t, LevelMedium, n.AnatomyRisk)
	assert.Equal(t, ComplexityComplex, n.Complexity)
	assert.Equal(t, ScaleMedium, n.ObjectScale)
	assert.True(t, n.ScaleInferred)
	assert.False(t, n.Reference.Present)
	assert.Zero(t, n.Reference.FinalScore)
}

func TestNormalize_CanonicalizesEnums(t *testing.T) {
	n := Normalize(map[string]any{
		"entity_type":        " Single Simple ",
		"construction_lines": "LOW",
		"broken_lines":       "High",
		"line_quality":       "Messy",
		"anatomy_risk":       "high",
		"complexity":         "Detailed",
		"object_scale":       "Large",
	})

	assert.Equal(t, EntitySingleSimple, n.EntityType)
	assert.Equal(t, LevelLow, n.ConstructionLines)
	assert.Equal(t, LevelHigh, n.BrokenLines)
	assert.Equal(t, LineMessy, n.LineQuality)
	assert.Equal(t, LevelHigh, n.AnatomyRisk)
	assert.Equal(t, ComplexityComplex, n.Complexity)
	assert.Equal(t, ScaleLarge, n.ObjectScale)
	assert.False(t, n.ScaleInferred)
}

func TestNormalize_UnknownValuesFallBack(t *testing.T) {
	n := Normalize(map[string]any{
		"entity_type":  "spaceship",
		"line_quality": 42,
		"anatomy_risk": []any{"high"},
		"complexity":   "weird",
	})

	assert.Equal(t, "", n.EntityType)
	assert.Equal(t, DefaultLineQuality, n.LineQuality)
	assert.Equal(t, DefaultAnatomyRisk, n.AnatomyRisk)
	assert.Equal(t, DefaultComplexity, n.Complexity)
}

func TestNormalize_BasicComplexityIsSimple(t *testing.T) {
	n := Normalize(map[string]any{"complexity": "basic"})
	assert.Equal(t, ComplexitySimple, n.Complexity)
}

func TestNormalize_ReferenceScores(t *testing.T) {
	n := Normalize(map[string]any{
		"reference_final_score":        "0.8",
		"reference_conflict_penalty":   json.Number("0.25"),
		"reference_style_distance":     1.7,
		"reference_text_conflict":      "not a number",
		"reference_image_conflict":     -0.2,
		"reference_accessory_mismatch": nil,
		"reference_is_colored":         "yes",
	})

	ref := n.Reference
	assert.True(t, ref.Present)
	assert.InDelta(t, 0.8, ref.FinalScore, 1e-9)
	assert.InDelta(t, 0.25, ref.ConflictPenalty, 1e-9)
	assert.InDelta(t, 1.0, ref.StyleDistance, 1e-9)
	assert.Zero(t, ref.TextConflict)
	assert.Zero(t, ref.ImageConflict)
	assert.Zero(t, ref.AccessoryMismatch)
	assert.True(t, ref.IsColored)
}

func TestNormalize_UnparseableScoresAreNotPresent(t *testing.T) {
	n := Normalize(map[string]any{"reference_final_score": "n/a"})
	assert.False(t, n.Reference.Present)
	assert.Zero(t, n.Reference.FinalScore)
}

func TestInferScale(t *testing.T) {
	assert.Equal(t, ScaleSmall, InferScale(EntitySingleSimple))
	assert.Equal(t, ScaleMedium, InferScale(EntitySingleComplex))
	assert.Equal(t, ScaleLarge, InferScale(EntityMultiObject))
	assert.Equal(t, ScaleMedium, InferScale(""))
}

func TestNormalized_FreeText(t *testing.T) {
	n := Normalize(map[string]any{
		"notes":  []any{"Keep EXACT pose", 7, "  "},
		"issues": "Double Lines",
	})
	assert.Equal(t, "keep exact pose\ndouble lines", n.FreeText())
}

func TestNormalized_FreeTextIncludesFixes(t *testing.T) {
	n := Normalize(map[string]any{
		"notes": "clean pass",
		"fixes": []any{"Close gaps in the outline"},
	})
	assert.Equal(t, "clean pass\nclose gaps in the outline", n.FreeText())
}

func TestNormalize_UnpacksNoteBlobs(t *testing.T) {
	n := Normalize(map[string]any{
		"notes": []any{
			"```json\n{\"notes\": [\"pose drift\"], \"fixes\": [\"close gaps\"], \"removes\": \"stray marks\", \"preserve\": [\"face\"]}\n```",
			"plain",
		},
	})

	assert.Equal(t, []string{"pose drift", "plain"}, n.Notes)
	assert.Equal(t, []string{"close gaps"}, n.Fixes)
	assert.Equal(t, []string{"stray marks"}, n.Removes)
	assert.Equal(t, []string{"face"}, n.Preserve)
	assert.NotContains(t, n.FreeText(), "{")
	assert.NotContains(t, n.FreeText(), "```")
}

func TestNormalize_NoteBlobKeepsReportLists(t *testing.T) {
	n := Normalize(map[string]any{
		"fixes": []any{"thicken outline"},
		"notes": []any{`{"fixes": ["close gaps"], "preserve": ["hands"]}`},
	})

	assert.Empty(t, n.Notes)
	assert.Equal(t, []string{"thicken outline"}, n.Fixes)
	assert.Equal(t, []string{"hands"}, n.Preserve)
}

func TestNormalize_UnparseableNoteStays(t *testing.T) {
	n := Normalize(map[string]any{"notes": []any{"json output was cut off {", "{broken"}})
	assert.Equal(t, []string{"json output was cut off {", "{broken"}, n.Notes)
}

func TestNormalized_SubjectClassification(t *testing.T) {
	human := Normalize(map[string]any{"subject_details": "young girl, sword"})
	assert.True(t, human.HumanLike())
	assert.False(t, human.NonCharacter())

	prop := Normalize(map[string]any{"entity_examples": []any{"teapot", "cup"}})
	assert.False(t, prop.HumanLike())
	assert.True(t, prop.NonCharacter())

	unknown := Normalize(nil)
	assert.False(t, unknown.HumanLike())
	assert.False(t, unknown.NonCharacter())
}

func TestDecode_StripsFences(t *testing.T) {
	raw, err := Decode([]byte("```json\n{\"entity_type\": \"multi_object\", \"reference_final_score\": 1}\n```"))
	require.NoError(t, err)
	assert.Equal(t, "multi_object", raw["entity_type"])
	assert.Equal(t, json.Number("1"), raw["reference_final_score"])
}

func TestDecode_BareJSONPrefix(t *testing.T) {
	raw, err := Decode([]byte(`json {"line_quality": "clean"}`))
	require.NoError(t, err)
	assert.Equal(t, "clean", raw["line_quality"])
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte("   "))
	assert.True(t, errors.Is(err, ErrEmptyReport))

	_, err = Decode([]byte("null"))
	assert.True(t, errors.Is(err, ErrEmptyReport))
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report: decode")
}

func TestParseBlob_FailureYieldsEmptyMap(t *testing.T) {
	raw := ParseBlob("the model refused")
	require.NotNil(t, raw)
	assert.Empty(t, raw)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}

func TestMerge_VotesAndRisk(t *testing.T) {
	merged := Merge([]map[string]any{
		{
			"entity_type":        "single_complex",
			"line_quality":       "clean",
			"construction_lines": "low",
			"anatomy_risk":       "low",
			"notes":              []any{"keep pose"},
			"subject_details":    "girl, hat",
		},
		{
			"entity_type":               "multi_object",
			"line_quality":              "messy",
			"construction_lines":        "high",
			"broken_lines":              "medium",
			"low_construction_sublevel": "one_two",
			"notes":                     []any{"keep pose", "thin lines"},
			"subject_details":           "hat, dog",
		},
		{
			"entity_type":  "multi_object",
			"line_quality": "clean",
			"anatomy_risk": "medium",
		},
	})

	assert.Equal(t, "multi_object", merged["entity_type"])
	assert.Equal(t, "clean", merged["line_quality"])
	assert.Equal(t, "high", merged["construction_lines"])
	assert.Equal(t, "medium", merged["broken_lines"])
	assert.Equal(t, "medium", merged["anatomy_risk"])
	assert.Equal(t, "one_two", merged["low_construction_sublevel"])
	assert.Equal(t, []string{"keep pose", "thin lines"}, merged["notes"])
	assert.Equal(t, "girl, hat, dog", merged["subject_details"])
}

func TestMerge_VotesOnListValues(t *testing.T) {
	merged := Merge([]map[string]any{
		{"entity_examples": []any{"cup"}},
		{"entity_examples": []any{"girl", "sword"}},
		{"entity_examples": []any{"girl", "sword"}},
	})
	assert.Equal(t, []any{"girl", "sword"}, merged["entity_examples"])

	n := Normalize(merged)
	assert.True(t, n.HumanLike())
}

func TestMerge_TieKeepsEarliestValue(t *testing.T) {
	merged := Merge([]map[string]any{
		{"complexity": "simple"},
		{"complexity": "complex"},
	})
	assert.Equal(t, "simple", merged["complexity"])
}

func TestMerge_ReferenceScores(t *testing.T) {
	merged := Merge([]map[string]any{
		{"reference_final_score": 0.6, "reference_conflict_penalty": 0.1},
		{"reference_final_score": 0.8, "reference_conflict_penalty": 0.5, "reference_is_colored": true},
	})

	assert.InDelta(t, 0.7, merged["reference_final_score"].(float64), 1e-9)
	assert.InDelta(t, 0.5, merged["reference_conflict_penalty"].(float64), 1e-9)
	assert.Equal(t, true, merged["reference_is_colored"])

	n := Normalize(merged)
	assert.True(t, n.Reference.Present)
	assert.True(t, n.Reference.IsColored)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	first := map[string]any{"entity_type": "single_simple"}
	Merge([]map[string]any{first, {"entity_type": "multi_object"}, {"entity_type": "multi_object"}})
	assert.Equal(t, "single_simple", first["entity_type"])
}

func TestKeyframeIndices(t *testing.T) {
	assert.Nil(t, KeyframeIndices(0))
	assert.Equal(t, []int{0}, KeyframeIndices(1))
	assert.Equal(t, []int{0, 1, 2}, KeyframeIndices(3))
	assert.Equal(t, []int{0, 5, 9}, KeyframeIndices(10))
}
