package director

import (
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

// Fixed-category overrides. The values are tuned per category and are used
// as given; only the sub-level and broken-stroke variants adjust them.

const (
	fixedStage1Steps = 40
	fixedStage2Steps = 50
)

func fixedPlan(s1, s2 plan.Sampler, union, pose plan.Conditioning, a1, a2 plan.Adapter) plan.Plan {
	s1.Steps = fixedStage1Steps
	s2.Steps = fixedStage2Steps
	return plan.Plan{
		Stage1:   s1,
		Stage2:   s2,
		Union:    union,
		Pose:     pose,
		Adapter1: a1,
		Adapter2: a2,
		Source:   plan.SourceFixed,
	}
}

var fullPose = plan.Conditioning{Strength: 1.0, EndPercent: 1.0}

// traceOverride inks a clean single subject: near-maximal structure lock.
func traceOverride(in input) plan.Plan {
	p := fixedPlan(
		plan.Sampler{CFG: 8.0, Denoise: 0.70},
		plan.Sampler{CFG: 7.0, Denoise: 0.50},
		plan.Conditioning{Strength: 0.9, EndPercent: 1.0},
		fullPose,
		plan.Adapter{Weight: 0.40, EndAt: 0.80},
		plan.Adapter{Weight: 0.25, EndAt: 0.60},
	)

	switch in.report.LowConstructionSublevel {
	case report.SublevelOneTwo:
		p.Union.EndPercent = 0.95
	case report.SublevelTwoThree:
		p.Union = plan.Conditioning{Strength: 0.85, EndPercent: 0.90}
	}
	if s := in.report.LowConstructionSublevel; s != "" {
		p.Diagnostics.SetLabel("sublevel", s)
	}
	return p
}

// reconnectOverride raises stage-2 cfg and denoise to close broken strokes.
func reconnectOverride(in input) plan.Plan {
	cfg, denoise := 9.2, 0.65
	if in.report.BrokenLines == report.LevelHigh {
		cfg, denoise = 9.6, 0.75
	}
	return fixedPlan(
		plan.Sampler{CFG: cfg, Denoise: 0.70},
		plan.Sampler{CFG: cfg, Denoise: denoise},
		plan.Conditioning{Strength: 0.95, EndPercent: 1.0},
		fullPose,
		plan.Adapter{Weight: 0.40, EndAt: 0.80},
		plan.Adapter{Weight: 0.25, EndAt: 0.60},
	)
}

// simpleConstructionOverride weakens union and adapter so guide lines are
// not traced.
func simpleConstructionOverride(in input) plan.Plan {
	end := 0.80
	if in.report.ConstructionLines == report.LevelHigh {
		end = 0.65
	}
	return fixedPlan(
		plan.Sampler{CFG: 8.0, Denoise: 0.75},
		plan.Sampler{CFG: 7.5, Denoise: 0.45},
		plan.Conditioning{Strength: 0.75, EndPercent: end},
		fullPose,
		plan.Adapter{Weight: 0.35, EndAt: 0.60},
		plan.Adapter{Weight: 0.20, EndAt: 0.50},
	)
}

func complexLowOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.72},
		plan.Sampler{CFG: 8.0, Denoise: 0.45},
		plan.Conditioning{Strength: 0.65, EndPercent: 0.85},
		fullPose,
		plan.Adapter{Weight: 0.50, EndAt: 0.70},
		plan.Adapter{Weight: 0.35, EndAt: 0.55},
	)
}

func complexMediumOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.75},
		plan.Sampler{CFG: 8.0, Denoise: 0.45},
		plan.Conditioning{Strength: 0.55, EndPercent: 0.75},
		fullPose,
		plan.Adapter{Weight: 0.45, EndAt: 0.60},
		plan.Adapter{Weight: 0.30, EndAt: 0.50},
	)
}

func complexHighOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.78},
		plan.Sampler{CFG: 8.0, Denoise: 0.42},
		plan.Conditioning{Strength: 0.45, EndPercent: 0.60},
		fullPose,
		plan.Adapter{Weight: 0.40, EndAt: 0.50},
		plan.Adapter{Weight: 0.25, EndAt: 0.45},
	)
}

func complexHighBrokenOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 9.2, Denoise: 0.78},
		plan.Sampler{CFG: 9.0, Denoise: 0.50},
		plan.Conditioning{Strength: 0.50, EndPercent: 0.60},
		fullPose,
		plan.Adapter{Weight: 0.40, EndAt: 0.50},
		plan.Adapter{Weight: 0.25, EndAt: 0.45},
	)
}

func multiLowOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.68},
		plan.Sampler{CFG: 8.0, Denoise: 0.40},
		plan.Conditioning{Strength: 0.80, EndPercent: 0.90},
		plan.Conditioning{Strength: 0.70, EndPercent: 0.75},
		plan.Adapter{Weight: 0.35, EndAt: 0.60},
		plan.Adapter{Weight: 0.20, EndAt: 0.45},
	)
}

func multiMediumOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.70},
		plan.Sampler{CFG: 8.0, Denoise: 0.40},
		plan.Conditioning{Strength: 0.70, EndPercent: 0.80},
		plan.Conditioning{Strength: 0.70, EndPercent: 0.75},
		plan.Adapter{Weight: 0.32, EndAt: 0.55},
		plan.Adapter{Weight: 0.20, EndAt: 0.45},
	)
}

func multiHighOverride(input) plan.Plan {
	return fixedPlan(
		plan.Sampler{CFG: 8.5, Denoise: 0.72},
		plan.Sampler{CFG: 8.0, Denoise: 0.40},
		plan.Conditioning{Strength: 0.60, EndPercent: 0.70},
		plan.Conditioning{Strength: 0.75, EndPercent: 0.80},
		plan.Adapter{Weight: 0.30, EndAt: 0.50},
		plan.Adapter{Weight: 0.15, EndAt: 0.40},
	)
}
