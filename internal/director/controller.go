package director

import (
	"strconv"

	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

// Adaptive controller thresholds.
const (
	styleDistanceShift = 0.5
	hallucinationLimit = 0.6

	// A scene is noisy when line quality is messy or any of these is reached.
	noisyConflict      = 0.40
	noisyStyleDistance = 0.40
	noisyTextConflict  = 0.35
	noisyImageConflict = 0.35

	largeStage2Steps = 50
)

// hallucinationRisk estimates how likely stage 2 is to invent content.
func hallucinationRisk(p plan.Plan, conflict float64) float64 {
	cfg := (p.Stage2.CFG - plan.CFGMin) / (plan.CFGMax - plan.CFGMin)
	return clamp01(0.35*cfg + 0.25*p.Stage2.Denoise + 0.25*p.Adapter2.Weight + 0.15*conflict)
}

func dampHallucination(p *plan.Plan) {
	plan.ShiftCFG(&p.Stage1.CFG, -0.3)
	plan.ShiftCFG(&p.Stage2.CFG, -0.5)
	plan.Shift(&p.Adapter2.Weight, -0.10)
	p.Ceil(&p.Stage2.CFG, p.Stage1.CFG, "adaptive.stage2_cfg_le_stage1")
	p.Diagnostics.AddClamp("adaptive.hallucination_damping")
}

func noisy(rep report.Normalized, sig Signals) bool {
	return rep.LineQuality == report.LineMessy ||
		sig.Conflict >= noisyConflict ||
		sig.D >= noisyStyleDistance ||
		sig.TextConflict >= noisyTextConflict ||
		sig.ImageConflict >= noisyImageConflict
}

// adaptive recomputes strengths, weights, cfg and denoise from the derived
// signals. Steps and end points are taken from the incoming plan.
func adaptive(p plan.Plan, in input) plan.Plan {
	rep := in.report
	sig := computeSignals(rep, in.opts.PoseLock, in.text)
	prof := profileFor(rep, sig)
	c := sig.Conflict

	p.Union.Strength = 0.5 + 0.4*(1-sig.S)
	p.Pose.Strength = 0.6 + 0.4*sig.P
	p.Adapter1.Weight = 0.4 + 0.5*sig.R - 0.4*sig.P
	p.Adapter2.Weight = 0.2 + 0.3*sig.R - 0.5*c
	p.Stage1.Denoise = 0.6 + 0.3*(1-sig.R)
	p.Stage1.CFG = max(7.5-0.7*c, sig.StrictnessFloor)
	p.Stage2.CFG = max(7.5+0.5*sig.R-0.6*c, sig.StrictnessFloor-0.5)
	p.Stage2.Denoise = 0.45 - 0.2*sig.R
	if sig.D > styleDistanceShift {
		p.Adapter2.Weight += 0.05
		p.Stage1.Denoise -= 0.08
		p.Diagnostics.AddClamp("adaptive.style_distance")
	}

	p.Limit(&p.Union.Strength, prof.Union.Lo, prof.Union.Hi, "profile.union")
	p.Limit(&p.Pose.Strength, prof.Pose.Lo, prof.Pose.Hi, "profile.pose")
	p.Limit(&p.Adapter1.Weight, prof.Adapter1.Lo, prof.Adapter1.Hi, "profile.adapter1")
	p.Limit(&p.Adapter2.Weight, prof.Adapter2.Lo, prof.Adapter2.Hi, "profile.adapter2")
	p.Limit(&p.Stage1.Denoise, prof.Stage1Denoise.Lo, prof.Stage1Denoise.Hi, "profile.stage1_denoise")
	p.Limit(&p.Stage2.Denoise, prof.Stage2Denoise.Lo, prof.Stage2Denoise.Hi, "profile.stage2_denoise")
	p.Limit(&p.Stage1.CFG, prof.Stage1CFG.Lo, prof.Stage1CFG.Hi, "profile.stage1_cfg")
	p.Limit(&p.Stage2.CFG, prof.Stage2CFG.Lo, prof.Stage2CFG.Hi, "profile.stage2_cfg")
	p.Ceil(&p.Stage2.CFG, p.Stage1.CFG, "adaptive.stage2_cfg_le_stage1")

	sig.H = hallucinationRisk(p, c)
	if sig.H > hallucinationLimit {
		dampHallucination(&p)
	}

	isNoisy := noisy(rep, sig)
	if isNoisy {
		p.Floor(&p.Pose.Strength, 0.95, "hard.pose")
		p.Limit(&p.Union.Strength, 0.70, 0.80, "hard.union")
		p.Limit(&p.Stage1.Denoise, 0.75, 0.90, "hard.stage1_denoise")
		p.Limit(&p.Stage2.Denoise, 0.30, 0.55, "hard.stage2_denoise")
		p.Ceil(&p.Adapter1.Weight, 0.45, "hard.adapter1")
		p.Ceil(&p.Adapter2.Weight, 0.35, "hard.adapter2")
	} else {
		p.Floor(&p.Adapter2.Weight, 0.50, "hard.adapter2_floor")
	}
	enforceAdapterGap(&p)

	switch {
	case p.Adapter2.Weight > 0.50:
		p.Ceil(&p.Stage2.CFG, 7.4, "adaptive.stage2_cfg_adapter")
	case p.Adapter2.Weight > 0.40:
		p.Ceil(&p.Stage2.CFG, 7.8, "adaptive.stage2_cfg_adapter")
	}
	p.Ceil(&p.Stage2.CFG, p.Stage1.CFG, "adaptive.stage2_cfg_le_stage1")

	if rep.EntityType == report.EntitySingleComplex && rep.ObjectScale == report.ScaleLarge {
		p.Stage2.Steps = largeStage2Steps
		p.Limit(&p.Stage2.CFG, 8.5, 9.0, "large.stage2_cfg")
		p.Floor(&p.Stage1.CFG, p.Stage2.CFG, "large.stage1_cfg")
		p.Ceil(&p.Stage2.Denoise, 0.40, "large.stage2_denoise")
		p.Floor(&p.Adapter2.Weight, 0.50, "large.adapter2")
		enforceAdapterGap(&p)
	}

	if p.Pose.EndPercent >= plan.PoseEndMeaningful {
		p.Ceil(&p.Union.EndPercent, p.Pose.EndPercent-plan.UnionPoseGap, "adaptive.union_end_below_pose")
	}
	for _, a := range []*plan.Adapter{&p.Adapter1, &p.Adapter2} {
		p.Ceil(&a.EndAt, p.Union.EndPercent-plan.EndMargin, "adaptive.adapter_end_below_union")
	}
	if c > highConflict {
		p.Ceil(&p.Adapter2.EndAt, 0.50, "adaptive.conflict_end")
	}

	p.Source = plan.SourceAdaptive
	recordSignals(&p, sig, prof, isNoisy)
	return p
}

// enforceAdapterGap keeps the stage-1 adapter at least plan.AdapterGap above
// stage 2, raising stage 1 when it can and lowering stage 2 otherwise.
func enforceAdapterGap(p *plan.Plan) {
	if p.Adapter1.Weight >= p.Adapter2.Weight+plan.AdapterGap {
		return
	}
	if target := p.Adapter2.Weight + plan.AdapterGap; target <= 1 {
		p.Adapter1.Weight = target
		p.Diagnostics.AddClamp("adaptive.adapter_gap_raise")
		return
	}
	p.Adapter2.Weight = p.Adapter1.Weight - plan.AdapterGap
	p.Diagnostics.AddClamp("adaptive.adapter_gap_lower")
}

func recordSignals(p *plan.Plan, sig Signals, prof BoundProfile, isNoisy bool) {
	d := &p.Diagnostics
	d.SetSignal("S", sig.S)
	d.SetSignal("P", sig.P)
	d.SetSignal("R", sig.R)
	d.SetSignal("D", sig.D)
	d.SetSignal("H", sig.H)
	d.SetSignal("conflict", sig.Conflict)
	d.SetSignal("strictness_floor", sig.StrictnessFloor)
	d.SetSignal("exact_phrases", float64(sig.ExactPhrases))
	d.SetLabel("profile", prof.Name)
	d.SetLabel("noisy", strconv.FormatBool(isNoisy))
}
