package director

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/inkdirector/internal/plan"
)

// Animation phases, in production order.
const (
	PhaseSkeleton = "Skeleton"
	PhaseRoughs   = "Roughs"
	PhaseTieDown  = "Tie Down"
	PhaseCleanUp  = "CleanUp"
	PhaseColors   = "Colors"
)

// DefaultTransition is the matrix row used when a transition is unknown.
const DefaultTransition = PhaseRoughs + "->" + PhaseCleanUp

// Baseline sampler settings on the matrix path.
const (
	baselineSteps     = 40
	baselineStage2CFG = 8.5

	// stage2AdapterOffset is subtracted from the stage-1 adapter weight to
	// derive the stage-2 weight of a matrix baseline.
	stage2AdapterOffset = 0.15
)

// Range is a closed interval whose midpoint is the baseline value.
type Range struct {
	Lo, Hi float64
}

// Mid returns the midpoint of r.
func (r Range) Mid() float64 { return (r.Lo + r.Hi) / 2 }

// Row is one named transition of the baseline matrix.
type Row struct {
	Source string
	Dest   string

	Stage1Denoise Range
	Stage1CFG     Range
	Stage2Denoise Range
	UnionStrength Range
	UnionEnd      Range
	PoseStrength  Range
	PoseEnd       Range
	AdapterWeight Range
	AdapterEnd    Range
}

// Transition returns the "Source->Dest" key of r.
func (r Row) Transition() string { return Transition(r.Source, r.Dest) }

var matrix = map[string]Row{
	"Skeleton->Roughs": {
		Source:        PhaseSkeleton,
		Dest:          PhaseRoughs,
		Stage1Denoise: Range{0.80, 0.90},
		Stage1CFG:     Range{7.0, 8.0},
		Stage2Denoise: Range{0.45, 0.55},
		UnionStrength: Range{0.35, 0.45},
		UnionEnd:      Range{0.50, 0.60},
		PoseStrength:  Range{0.80, 0.90},
		PoseEnd:       Range{0.80, 0.90},
		AdapterWeight: Range{0.35, 0.45},
		AdapterEnd:    Range{0.40, 0.50},
	},
	"Roughs->Tie Down": {
		Source:        PhaseRoughs,
		Dest:          PhaseTieDown,
		Stage1Denoise: Range{0.70, 0.80},
		Stage1CFG:     Range{7.5, 8.5},
		Stage2Denoise: Range{0.40, 0.50},
		UnionStrength: Range{0.40, 0.50},
		UnionEnd:      Range{0.60, 0.70},
		PoseStrength:  Range{0.85, 0.95},
		PoseEnd:       Range{0.85, 0.95},
		AdapterWeight: Range{0.40, 0.50},
		AdapterEnd:    Range{0.50, 0.60},
	},
	"Roughs->CleanUp": {
		Source:        PhaseRoughs,
		Dest:          PhaseCleanUp,
		Stage1Denoise: Range{0.65, 0.75},
		Stage1CFG:     Range{8.0, 9.0},
		Stage2Denoise: Range{0.35, 0.45},
		UnionStrength: Range{0.45, 0.55},
		UnionEnd:      Range{0.65, 0.75},
		PoseStrength:  Range{0.90, 1.00},
		PoseEnd:       Range{0.90, 1.00},
		AdapterWeight: Range{0.45, 0.55},
		AdapterEnd:    Range{0.55, 0.65},
	},
	"Tie Down->CleanUp": {
		Source:        PhaseTieDown,
		Dest:          PhaseCleanUp,
		Stage1Denoise: Range{0.55, 0.65},
		Stage1CFG:     Range{8.0, 9.0},
		Stage2Denoise: Range{0.30, 0.40},
		UnionStrength: Range{0.50, 0.60},
		UnionEnd:      Range{0.75, 0.85},
		PoseStrength:  Range{0.90, 1.00},
		PoseEnd:       Range{0.90, 1.00},
		AdapterWeight: Range{0.50, 0.60},
		AdapterEnd:    Range{0.60, 0.70},
	},
}

// Transition builds the matrix key for a phase pair.
func Transition(source, dest string) string {
	return fmt.Sprintf("%s->%s", strings.TrimSpace(source), strings.TrimSpace(dest))
}

// LookupRow returns the matrix row for transition. Unknown transitions
// resolve to the DefaultTransition row and ok is false.
func LookupRow(transition string) (row Row, ok bool) {
	if row, ok = matrix[transition]; ok {
		return row, true
	}
	return matrix[DefaultTransition], false
}

// Transitions returns the known transition keys in production order.
func Transitions() []string {
	return []string{"Skeleton->Roughs", "Roughs->Tie Down", "Roughs->CleanUp", "Tie Down->CleanUp"}
}

// baseline builds the midpoint plan of a matrix row.
func baseline(row Row) plan.Plan {
	weight := row.AdapterWeight.Mid()
	end := row.AdapterEnd.Mid()
	return plan.Plan{
		Stage1:   plan.Sampler{Steps: baselineSteps, CFG: row.Stage1CFG.Mid(), Denoise: row.Stage1Denoise.Mid()},
		Stage2:   plan.Sampler{Steps: baselineSteps, CFG: baselineStage2CFG, Denoise: row.Stage2Denoise.Mid()},
		Union:    plan.Conditioning{Strength: row.UnionStrength.Mid(), EndPercent: row.UnionEnd.Mid()},
		Pose:     plan.Conditioning{Strength: row.PoseStrength.Mid(), EndPercent: row.PoseEnd.Mid()},
		Adapter1: plan.Adapter{Weight: weight, EndAt: end},
		Adapter2: plan.Adapter{Weight: max(0, weight-stage2AdapterOffset), EndAt: end},
		Source:   plan.SourceMatrix,
	}
}

// phaseFactor weights reference influence by how late the destination phase
// sits in production.
func phaseFactor(dest string) float64 {
	switch dest {
	case PhaseSkeleton, PhaseRoughs:
		return 0.6
	case PhaseTieDown:
		return 0.8
	default:
		return 1.0
	}
}
