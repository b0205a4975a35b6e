package export

import (
	"bytes"
	"encoding/json"
	"flag"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/plan"
)

var update = flag.Bool("update", false, "update golden files")

func TestFingerprint_Stable(t *testing.T) {
	raw := map[string]any{"entity_type": "single_complex", "line_quality": "messy"}
	opts := director.DefaultOptions()

	a, err := Fingerprint(raw, opts)
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"line_quality": "messy", "entity_type": "single_complex"}, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, uuid.Version(5), a.Version())

	opts.PoseLock = false
	c, err := Fingerprint(raw, opts)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestFingerprint_Unencodable(t *testing.T) {
	_, err := Fingerprint(map[string]any{"reference_final_score": math.NaN()}, director.Options{})
	assert.ErrorContains(t, err, "export: fingerprint")
}

func TestSequenceFingerprint_DistinctFromReport(t *testing.T) {
	frames := []map[string]any{{"entity_type": "single_simple"}}
	opts := director.DefaultOptions()

	seq, err := SequenceFingerprint(frames, opts)
	require.NoError(t, err)
	again, err := SequenceFingerprint([]map[string]any{{"entity_type": "single_simple"}}, opts)
	require.NoError(t, err)
	assert.Equal(t, seq, again)

	single, err := Fingerprint(map[string]any{"frames": frames}, opts)
	require.NoError(t, err)
	assert.NotEqual(t, seq, single)

	p := director.New(director.Config{}, nil).PlanSequence(frames, opts)
	exp, err := ExportSequence(frames, opts, p)
	require.NoError(t, err)
	assert.Equal(t, seq.String(), exp.ID)
	assert.Equal(t, "single_simple/trace", exp.Route)
}

func TestExportPlan(t *testing.T) {
	raw := map[string]any{"entity_type": "multi_object", "construction_lines": "high"}
	opts := director.DefaultOptions()
	p := director.New(director.Config{}, nil).Plan(raw, opts)

	exp, err := ExportPlan(raw, opts, p)
	require.NoError(t, err)

	id, err := Fingerprint(raw, opts)
	require.NoError(t, err)
	assert.Equal(t, id.String(), exp.ID)
	assert.Equal(t, "multi_object/high", exp.Route)
	assert.Equal(t, "Roughs->CleanUp", exp.Transition)

	ts, err := time.Parse(time.RFC3339, exp.ExportedAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	exp := &PlanExport{ID: "x", Route: "matrix", Plan: plan.Plan{Source: plan.SourceMatrix}}
	require.NoError(t, WriteJSON(&buf, exp))

	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "matrix", decoded["route"])
	assert.Contains(t, decoded["plan"], "ksampler1")
	assert.NotContains(t, decoded, "transition")
}

func TestGenerateMermaid(t *testing.T) {
	routes := []director.Route{
		{Name: "single_simple/trace", Source: plan.SourceFixed},
		{Name: "single_complex/low", Source: plan.SourceFixed, Adaptive: true},
		{Name: "matrix", Source: plan.SourceMatrix},
	}

	out := GenerateMermaid(routes)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `R0{"single_simple/trace"}`)
	assert.Contains(t, out, "R0 -->|yes| B_fixed")
	assert.Contains(t, out, "R0 -->|no| R1")
	assert.Contains(t, out, "R1 -->|yes| BA_fixed")
	assert.Contains(t, out, `BA_fixed["fixed override"] --> AC`)
	assert.Contains(t, out, `B_matrix["matrix baseline + rules"] --> REF`)
	assert.NotContains(t, out, "R2 -->|no|")
}

func TestGenerateMermaid_Empty(t *testing.T) {
	assert.Equal(t, "graph TD\n", GenerateMermaid(nil))
}

// TestGenerateMermaid_Golden compares the diagram of the live routing table
// against testdata/golden/routes.mmd. Run with -update to regenerate.
func TestGenerateMermaid_Golden(t *testing.T) {
	goldenPath := filepath.Join("..", "..", "testdata", "golden", "routes.mmd")
	actual := GenerateMermaid(director.Routes())

	if *update {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(actual), 0o644))
		t.Logf("updated %s", goldenPath)
		return
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		t.Skipf("golden file %s not found; run with -update to generate", goldenPath)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, string(golden), actual)
}
