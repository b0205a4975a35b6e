package director

import (
	"strings"

	"github.com/dusk-indust/inkdirector/internal/plan"
)

// Phrase sets scanned in the lower-cased notes and issues.
var (
	overProcessedPhrases = []string{
		"over-processed",
		"overprocessed",
		"over processed",
		"overcooked",
		"too smooth",
	}
	guidelineTracingPhrases = []string{
		"double lines",
		"double-lines",
		"kept guidelines",
		"guidelines kept",
		"traced guidelines",
		"kept construction",
		"construction lines visible",
		"ghost lines",
		"sketch lines remain",
	}
	poseDriftPhrases = []string{
		"pose drift",
		"pose shift",
		"pose changed",
	}
	thinLinePhrases = []string{
		"thin lines",
		"weak lines",
		"faint lines",
	}
)

// Safety bounds of the issue layer.
const (
	stage2CFGFloor = 8.5
	unionEndFloor  = 0.2
)

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// applyIssueNudges applies the corrective nudges for every phrase set found
// in text.
func applyIssueNudges(p *plan.Plan, text string) {
	if text == "" {
		return
	}

	if containsAny(text, overProcessedPhrases) {
		plan.Shift(&p.Stage2.Denoise, -0.10)
		plan.ShiftCFG(&p.Stage2.CFG, -0.5)
		plan.Shift(&p.Adapter1.Weight, -0.05)
		plan.Shift(&p.Adapter2.Weight, -0.05)
		p.Diagnostics.AddClamp("issue.over_processed")
	}

	if containsAny(text, guidelineTracingPhrases) {
		p.Union.EndPercent = max(unionEndFloor, p.Union.EndPercent-0.10)
		plan.Shift(&p.Union.Strength, -0.05)
		plan.Shift(&p.Adapter1.Weight, -0.05)
		plan.Shift(&p.Adapter2.Weight, -0.05)
		plan.Shift(&p.Stage1.Denoise, 0.03)
		p.Diagnostics.AddClamp("issue.guideline_tracing")
	}

	if containsAny(text, poseDriftPhrases) {
		p.Pose = plan.Conditioning{Strength: 1.0, EndPercent: 1.0}
		plan.Shift(&p.Union.Strength, 0.05)
		p.Diagnostics.AddClamp("issue.pose_drift")
	}

	if containsAny(text, thinLinePhrases) {
		plan.ShiftCFG(&p.Stage2.CFG, 0.3)
		plan.Shift(&p.Stage2.Denoise, 0.05)
		plan.Shift(&p.Union.Strength, 0.05)
		p.Diagnostics.AddClamp("issue.thin_lines")
	}
}

// applyIssueLayer is the final stage: free-text nudges followed by the cfg
// safety pass. Fixed-category plans keep their tuned stage-2 cfg.
func applyIssueLayer(p plan.Plan, in input) plan.Plan {
	applyIssueNudges(&p, in.text)

	p.Limit(&p.Stage1.CFG, plan.CFGMin, plan.CFGMax, "safety.stage1_cfg")
	if p.Source != plan.SourceFixed {
		p.Limit(&p.Stage2.CFG, stage2CFGFloor, plan.CFGMax, "safety.stage2_cfg")
	}
	p.Ceil(&p.Stage2.CFG, p.Stage1.CFG, "safety.stage2_cfg_le_stage1")
	return p
}
