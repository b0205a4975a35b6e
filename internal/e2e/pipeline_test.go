//go:build e2e

package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/inkdirector/internal/director"
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
	"github.com/dusk-indust/inkdirector/internal/workflow"
)

// fixtureDir returns the path to the testdata/fixtures directory.
func fixtureDir() string {
	return filepath.Join("..", "..", "testdata", "fixtures")
}

// fixtureRoutes maps each report fixture to the route it must take.
var fixtureRoutes = map[string]string{
	"trace_simple":      "single_simple/trace",
	"reconnect_broken":  "single_simple/reconnect",
	"complex_reference": "single_complex/high",
	"multi_medium":      "multi_object/medium",
	"unrouted_matrix":   "matrix",
}

// loadReports decodes every report fixture, keyed by file name without
// extension.
func loadReports(t *testing.T) map[string]map[string]any {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(fixtureDir(), "reports", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	reports := make(map[string]map[string]any, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		raw, err := report.Decode(data)
		require.NoError(t, err, path)
		reports[strings.TrimSuffix(filepath.Base(path), ".json")] = raw
	}
	return reports
}

func loadWorkflow(t *testing.T) workflow.Graph {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir(), "workflow.json"))
	require.NoError(t, err)
	g, err := workflow.Decode(data)
	require.NoError(t, err)
	return g
}

// TestPipeline_E2E plans every report fixture and writes the plan into the
// fixture workflow, checking the route, the plan invariants and the patched
// node values.
func TestPipeline_E2E(t *testing.T) {
	d := director.New(director.Config{}, nil)
	graph := loadWorkflow(t)
	nodes := workflow.DefaultNodeMap()
	require.NoError(t, workflow.Validate(graph, nodes))

	for name, raw := range loadReports(t) {
		t.Run(name, func(t *testing.T) {
			p := d.Plan(raw, director.DefaultOptions())

			want, ok := fixtureRoutes[name]
			require.True(t, ok, "no expected route for fixture %s", name)
			assert.Equal(t, want, p.Diagnostics.Route)
			assert.Empty(t, p.Violations())
			assert.Empty(t, p.Diagnostics.Fallbacks)

			patched, slots := workflow.Apply(graph, p, nodes)
			assert.Equal(t, workflow.Slots(), slots)
			assert.Equal(t, p.Stage1.Steps, patched["5"].Inputs["steps"])
			assert.Equal(t, p.Stage2.CFG, patched["55"].Inputs["cfg"])
			assert.Equal(t, p.Pose.EndPercent, patched["104"].Inputs["end_percent"])
			assert.Equal(t, p.Adapter2.EndAt, patched["105"].Inputs["end_at"])

			// Untouched nodes and inputs survive; the source graph is unchanged.
			assert.Equal(t, "euler", patched["5"].Inputs["sampler_name"])
			assert.Equal(t, graph["1"], patched["1"])
			assert.Equal(t, float64(30), graph["5"].Inputs["steps"])
		})
	}
}

// TestPipeline_E2E_ReferenceFixture checks the reference adjustments on the
// one fixture that carries reference scores.
func TestPipeline_E2E_ReferenceFixture(t *testing.T) {
	raw := loadReports(t)["complex_reference"]
	p := director.New(director.Config{}, nil).Plan(raw, director.DefaultOptions())

	assert.Equal(t, plan.SourceAdaptive, p.Source)
	assert.Equal(t, plan.ModeStyle, p.ReferenceMode)
	assert.LessOrEqual(t, p.Adapter2.EndAt, 0.50)
	assert.LessOrEqual(t, p.Adapter2.Weight, 0.30)
	assert.Contains(t, p.PromptModifiers, director.ModifierNoReferenceExtras)
	assert.Equal(t, 50, p.Stage2.Steps)

	g := loadWorkflow(t)
	assert.Equal(t, []string{"72"}, workflow.SetReferenceImage(g, "ref_upload.png"))
}

// TestPipeline_E2E_Sequence plans the fixtures as one sequence.
func TestPipeline_E2E_Sequence(t *testing.T) {
	reports := loadReports(t)
	frames := []map[string]any{
		reports["trace_simple"],
		reports["reconnect_broken"],
		reports["trace_simple"],
		reports["reconnect_broken"],
		reports["trace_simple"],
	}

	p := director.New(director.Config{}, nil).PlanSequence(frames, director.DefaultOptions())
	assert.Equal(t, "0,2,4", p.Diagnostics.Labels["keyframes"])
	assert.Equal(t, "single_simple/trace", p.Diagnostics.Route)
	assert.Empty(t, p.Violations())
}
