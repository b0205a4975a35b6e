package director

import (
	"github.com/dusk-indust/inkdirector/internal/plan"
)

// Prompt directives emitted for the prompt compiler.
const (
	ModifierPreservePose       = "preserve the input pose and gesture"
	ModifierPreserveFace       = "preserve the input facial features"
	ModifierNoReferenceExtras  = "do not add accessories from the reference"
	ModifierMatchLineWeight    = "match the reference line weight"
	ModifierConfidentStrokes   = "confident, continuous strokes"
	ModifierPreserveProportion = "keep the input proportions"
)

// Influence thresholds for the reference mode.
const (
	identityInfluence = 0.7
	styleInfluence    = 0.4

	coloredAdapterCap = 0.30
	conflictEndCap    = 0.50
)

// adjustReference rescales the adapters and structure lock from the
// reference similarity. Without reference scores it only selects the light
// style mode.
func adjustReference(p plan.Plan, in input) plan.Plan {
	ref := in.report.Reference
	if !ref.Present {
		p.ReferenceMode = plan.ModeStyleLite
		p.ReferenceModeStage2 = plan.ModeStyleLite
		p.Diagnostics.SetLabel("reference", "absent")
		return p
	}

	c := ref.ConflictPenalty
	phase := phaseFactor(in.row.Dest)
	influence := clamp01(ref.FinalScore * phase * (1 - c))

	weight := 0.15 + 0.65*influence
	end := 0.30 + 0.60*influence
	if c > highConflict && end > conflictEndCap {
		end = conflictEndCap
		p.Diagnostics.AddClamp("reference.conflict_end")
	}
	p.Adapter1 = plan.Adapter{Weight: weight, EndAt: end}
	p.Adapter2 = plan.Adapter{Weight: max(0, weight-stage2AdapterOffset), EndAt: end}
	if ref.IsColored {
		p.Ceil(&p.Adapter2.Weight, coloredAdapterCap, "reference.colored")
	}

	switch {
	case influence >= identityInfluence:
		p.ReferenceMode = plan.ModeIdentity
		p.ReferenceModeStage2 = plan.ModeStyle
	case influence >= styleInfluence:
		p.ReferenceMode = plan.ModeStyle
		p.ReferenceModeStage2 = plan.ModeStyle
	default:
		p.ReferenceMode = plan.ModeStyleLite
		p.ReferenceModeStage2 = plan.ModeStyleLite
	}

	if c > highConflict {
		p.AddModifier(ModifierPreservePose)
		p.AddModifier(ModifierPreserveFace)
		p.AddModifier(ModifierPreserveProportion)
		if ref.AccessoryMismatch >= accessoryMismatchCap {
			p.AddModifier(ModifierNoReferenceExtras)
		}
	}
	if influence >= identityInfluence {
		p.AddModifier(ModifierMatchLineWeight)
		p.AddModifier(ModifierConfidentStrokes)
	}

	// More trust in the reference loosens the structure lock.
	plan.Shift(&p.Union.Strength, p.Union.Strength*0.25*(0.5-influence))
	plan.ShiftCFG(&p.Stage1.CFG, -0.3*c)
	plan.ShiftCFG(&p.Stage2.CFG, -0.3*c)
	plan.Shift(&p.Stage1.Denoise, 0.05*c)
	plan.Shift(&p.Stage2.Denoise, -0.05*c)

	p.Diagnostics.SetSignal("influence", influence)
	p.Diagnostics.SetSignal("phase_factor", phase)
	p.Diagnostics.SetLabel("reference", string(p.ReferenceMode))
	return p
}
