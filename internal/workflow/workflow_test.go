package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/inkdirector/internal/plan"
)

const testGraph = `{
  "5":   {"class_type": "KSampler", "inputs": {"steps": 30, "cfg": 7.5, "denoise": 1.0, "seed": 42, "model": ["1", 0]}},
  "55":  {"class_type": "KSampler", "inputs": {"steps": 30, "cfg": 7.5, "denoise": 0.5}},
  "66":  {"class_type": "IPAdapterAdvanced", "inputs": {"weight": 1.0, "end_at": 1.0, "image": ["70", 0]}},
  "70":  {"class_type": "PrepImageForClipVision", "inputs": {"image": ["72", 0]}},
  "72":  {"class_type": "LoadImage", "inputs": {"image": "ref.png"}},
  "103": {"class_type": "ACN_AdvancedControlNetApply_v2", "inputs": {"strength": 1.0, "end_percent": 1.0}},
  "104": {"class_type": "ControlNetApplyAdvanced", "inputs": {"strength": 1.0, "end_percent": 1.0}},
  "105": {"class_type": "IPAdapterAdvanced", "inputs": {"weight": 1.0, "end_at": 1.0, "image": ["80", 0]}},
  "80":  {"class_type": "LoadImage", "inputs": {"image": "ref2.png"}}
}`

func testPlan() plan.Plan {
	return plan.Plan{
		Stage1:   plan.Sampler{Steps: 40, CFG: 8.5, Denoise: 0.7},
		Stage2:   plan.Sampler{Steps: 42, CFG: 8.5, Denoise: 0.4},
		Union:    plan.Conditioning{Strength: 0.5, EndPercent: 0.7},
		Pose:     plan.Conditioning{Strength: 0.95, EndPercent: 0.95},
		Adapter1: plan.Adapter{Weight: 0.5, EndAt: 0.6},
		Adapter2: plan.Adapter{Weight: 0.35, EndAt: 0.6},
	}
}

func decodeTestGraph(t *testing.T) Graph {
	t.Helper()
	g, err := Decode([]byte(testGraph))
	require.NoError(t, err)
	return g
}

func TestApply_PatchesEverySlot(t *testing.T) {
	g := decodeTestGraph(t)

	out, patched := Apply(g, testPlan(), DefaultNodeMap())
	assert.Equal(t, Slots(), patched)

	assert.Equal(t, 40, out["5"].Inputs["steps"])
	assert.Equal(t, 8.5, out["5"].Inputs["cfg"])
	assert.Equal(t, 0.7, out["5"].Inputs["denoise"])
	assert.Equal(t, 42, out["55"].Inputs["steps"])
	assert.Equal(t, 0.5, out["103"].Inputs["strength"])
	assert.Equal(t, 0.7, out["103"].Inputs["end_percent"])
	assert.Equal(t, 0.95, out["104"].Inputs["end_percent"])
	assert.Equal(t, 0.6, out["66"].Inputs["end_at"])
	assert.Equal(t, 0.35, out["105"].Inputs["weight"])

	// Unrelated inputs survive.
	assert.Equal(t, float64(42), out["5"].Inputs["seed"])
	assert.Equal(t, []any{"1", float64(0)}, out["5"].Inputs["model"])
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	g := decodeTestGraph(t)

	out, _ := Apply(g, testPlan(), DefaultNodeMap())
	out["5"].Inputs["model"].([]any)[0] = "changed"

	assert.Equal(t, float64(30), g["5"].Inputs["steps"])
	assert.Equal(t, "1", g["5"].Inputs["model"].([]any)[0])
}

func TestApply_SkipsMissingAndMismatchedNodes(t *testing.T) {
	g := decodeTestGraph(t)
	delete(g, "55")
	g["104"] = Node{ClassType: "LoadImage", Inputs: map[string]any{}}

	out, patched := Apply(g, testPlan(), DefaultNodeMap())
	assert.NotContains(t, patched, SlotStage2Sampler)
	assert.NotContains(t, patched, SlotPose)
	assert.Len(t, patched, 4)
	assert.NotContains(t, out["104"].Inputs, "strength")
}

func TestValidate(t *testing.T) {
	g := decodeTestGraph(t)
	require.NoError(t, Validate(g, DefaultNodeMap()))

	delete(g, "66")
	g["55"] = Node{ClassType: "VAEDecode"}

	err := Validate(g, DefaultNodeMap())
	assert.ErrorIs(t, err, ErrNodeMissing)
	assert.ErrorIs(t, err, ErrClassMismatch)
	assert.ErrorContains(t, err, "ip_adapter (node 66)")
	assert.ErrorContains(t, err, `got "VAEDecode"`)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`{}`))
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, err = Decode([]byte(`[1, 2]`))
	assert.ErrorContains(t, err, "workflow: decode")
}

func TestNodeMap_With(t *testing.T) {
	base := DefaultNodeMap()

	m, err := base.With(map[string]string{"ksampler2": "60"})
	require.NoError(t, err)
	assert.Equal(t, "60", m[SlotStage2Sampler])
	assert.Equal(t, "55", base[SlotStage2Sampler])

	_, err = base.With(map[string]string{"vae": "9"})
	assert.ErrorContains(t, err, `unknown slot "vae"`)
}

func TestSetReferenceImage(t *testing.T) {
	g := decodeTestGraph(t)

	ids := SetReferenceImage(g, "upload.png")
	assert.Equal(t, []string{"72", "80"}, ids)
	assert.Equal(t, "upload.png", g["72"].Inputs["image"])
	assert.Equal(t, "upload.png", g["80"].Inputs["image"])
}

func TestSetReferenceImage_LegacyFallback(t *testing.T) {
	g := Graph{
		"66": {ClassType: ClassIPAdapter, Inputs: map[string]any{"weight": 1.0}},
		"72": {ClassType: ClassLoadImage, Inputs: map[string]any{"image": "old.png"}},
	}

	ids := SetReferenceImage(g, "new.png")
	assert.Equal(t, []string{"72"}, ids)
	assert.Equal(t, "new.png", g["72"].Inputs["image"])

	assert.Empty(t, SetReferenceImage(Graph{}, "x.png"))
}
