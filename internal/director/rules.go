package director

import (
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

// rule is one incremental adjustment of a matrix baseline.
type rule struct {
	name  string
	apply func(*plan.Plan, input)
}

// matrixRules run in order on every matrix baseline.
var matrixRules = []rule{
	{"line_quality", lineQualityRule},
	{"anatomy", anatomyRule},
	{"complexity", complexityRule},
	{"entity", entityRule},
	{"non_character", nonCharacterRule},
	{"construction", constructionRule},
	{"broken", brokenRule},
	{"heavy_structure", heavyStructureRule},
	{"pose_lock", poseLockRule},
	{"style", styleRule},
	{"dest_phase", destPhaseRule},
	{"issues", func(p *plan.Plan, in input) { applyIssueNudges(p, in.text) }},
}

// Step policy of the matrix path: rule deltas apply on top of the baseline
// and the result stays within [minSteps, maxSteps].
const (
	minSteps = 30
	maxSteps = 50
)

// matrixPlan builds the baseline for the resolved transition, applies every
// rule and the closing clamps. Steps start at 40/40 and keep the step rule
// deltas within [minSteps, maxSteps] instead of being reset to 40/40, so
// messy or complex frames still get their extra steps.
func matrixPlan(in input) plan.Plan {
	p := baseline(in.row)
	for _, r := range matrixRules {
		r.apply(&p, in)
	}
	finishMatrix(&p)
	return p
}

func lineQualityRule(p *plan.Plan, in input) {
	switch in.report.LineQuality {
	case report.LineMessy:
		plan.Shift(&p.Union.Strength, 0.10)
		plan.Shift(&p.Union.EndPercent, 0.10)
		plan.Shift(&p.Pose.Strength, 0.05)
		p.Stage1.Steps += 3
	case report.LineClean:
		plan.Shift(&p.Union.Strength, -0.10)
		plan.Shift(&p.Union.EndPercent, -0.05)
		plan.Shift(&p.Stage2.Denoise, 0.05)
	}
}

func anatomyRule(p *plan.Plan, in input) {
	if in.report.AnatomyRisk != report.LevelHigh {
		return
	}
	plan.Shift(&p.Adapter1.Weight, -0.10)
	plan.Shift(&p.Adapter2.Weight, -0.10)
	p.Pose.Strength = 1.0
}

func complexityRule(p *plan.Plan, in input) {
	switch in.report.Complexity {
	case report.ComplexitySimple:
		plan.Shift(&p.Union.Strength, -0.05)
		plan.Shift(&p.Stage1.Denoise, -0.05)
	case report.ComplexityComplex:
		plan.Shift(&p.Union.Strength, 0.05)
		p.Stage1.Steps += 2
		p.Stage2.Steps++
	}
}

func entityRule(p *plan.Plan, in input) {
	switch in.report.EntityType {
	case report.EntityMultiObject:
		plan.Shift(&p.Union.Strength, 0.10)
		plan.Shift(&p.Union.EndPercent, 0.05)
		plan.Shift(&p.Adapter1.Weight, -0.10)
		plan.Shift(&p.Adapter2.Weight, -0.10)
	case report.EntitySingleSimple:
		plan.Shift(&p.Union.Strength, -0.05)
		p.Stage1.Steps -= 2
		p.Stage2.Steps -= 2
	}
}

// nonCharacterRule caps pose conditioning for props and scenery. Pose lock
// overrides it.
func nonCharacterRule(p *plan.Plan, in input) {
	if !in.report.NonCharacter() || in.opts.PoseLock {
		return
	}
	p.Ceil(&p.Pose.Strength, 0.6, "matrix.non_character_pose")
	p.Ceil(&p.Pose.EndPercent, 0.6, "matrix.non_character_pose")
}

func constructionRule(p *plan.Plan, in input) {
	switch in.report.ConstructionLines {
	case report.LevelHigh:
		plan.Shift(&p.Union.EndPercent, -0.15)
		plan.Shift(&p.Union.Strength, -0.10)
		plan.Shift(&p.Adapter1.Weight, -0.10)
	case report.LevelMedium:
		plan.Shift(&p.Union.EndPercent, -0.07)
		plan.Shift(&p.Union.Strength, -0.05)
		plan.Shift(&p.Adapter1.Weight, -0.05)
	}
}

func brokenRule(p *plan.Plan, in input) {
	switch in.report.BrokenLines {
	case report.LevelMedium:
		plan.ShiftCFG(&p.Stage2.CFG, 0.4)
	case report.LevelHigh:
		plan.ShiftCFG(&p.Stage2.CFG, 0.8)
		plan.Shift(&p.Union.Strength, 0.05)
	}
}

// heavyStructureRule handles heavy construction or badly broken strokes:
// pose carries the structure and union is loosened.
func heavyStructureRule(p *plan.Plan, in input) {
	if in.report.ConstructionLines != report.LevelHigh && in.report.BrokenLines != report.LevelHigh {
		return
	}
	p.Pose = plan.Conditioning{Strength: 1.0, EndPercent: 1.0}
	plan.Shift(&p.Union.Strength, -0.10)
	plan.Shift(&p.Union.EndPercent, -0.10)
	p.Ceil(&p.Stage1.Denoise, 0.70, "matrix.heavy_structure_denoise")
}

func poseLockRule(p *plan.Plan, in input) {
	if !in.opts.PoseLock {
		return
	}
	p.Floor(&p.Pose.Strength, 0.95, "matrix.pose_lock")
	p.Floor(&p.Pose.EndPercent, 0.95, "matrix.pose_lock")
	p.Ceil(&p.Stage1.CFG, 8.0, "matrix.pose_lock_cfg")
}

func styleRule(p *plan.Plan, in input) {
	if in.opts.StyleLock {
		p.Limit(&p.Adapter1.Weight, 0.35, 0.65, "matrix.style_lock")
	}
	if in.report.StyleMatch {
		p.Limit(&p.Adapter1.Weight, 0.50, 0.75, "matrix.style_match")
	}
}

func destPhaseRule(p *plan.Plan, in input) {
	switch in.row.Dest {
	case PhaseCleanUp:
		p.Floor(&p.Pose.Strength, 0.90, "matrix.cleanup_pose")
		p.Floor(&p.Pose.EndPercent, 0.85, "matrix.cleanup_pose")
		p.Floor(&p.Union.Strength, 0.45, "matrix.cleanup_union")
		p.Floor(&p.Union.EndPercent, 0.65, "matrix.cleanup_union")
		p.Ceil(&p.Adapter1.Weight, 0.60, "matrix.cleanup_adapter")
	case PhaseTieDown:
		p.Ceil(&p.Adapter1.Weight, 0.55, "matrix.tiedown_adapter")
		p.Ceil(&p.Adapter1.EndAt, 0.60, "matrix.tiedown_adapter")
		p.Ceil(&p.Stage1.Denoise, 0.78, "matrix.tiedown_denoise")
	}
}

// finishMatrix applies the closing clamps of the matrix path.
func finishMatrix(p *plan.Plan) {
	p.Stage1.Steps = min(max(p.Stage1.Steps, minSteps), maxSteps)
	p.Stage2.Steps = min(max(p.Stage2.Steps, minSteps), maxSteps)

	p.Limit(&p.Union.Strength, 0.3, 0.6, "matrix.union_strength")
	p.Limit(&p.Union.EndPercent, 0.2, 0.9, "matrix.union_end")
	if p.Pose.EndPercent >= plan.PoseEndMeaningful {
		p.Ceil(&p.Union.EndPercent, p.Pose.EndPercent-plan.UnionPoseGap, "matrix.union_end_below_pose")
	}
	for _, a := range []*plan.Adapter{&p.Adapter1, &p.Adapter2} {
		p.Ceil(&a.EndAt, p.Union.EndPercent-plan.EndMargin, "matrix.adapter_end_below_union")
	}
	p.Ceil(&p.Stage2.Denoise, p.Stage1.Denoise-0.05, "matrix.stage2_denoise_below_stage1")
}
