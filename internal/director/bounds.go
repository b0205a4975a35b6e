package director

import "github.com/dusk-indust/inkdirector/internal/report"

// Bound is a closed interval a controller candidate is clamped into.
type Bound struct {
	Lo, Hi float64
}

func (b Bound) clamp(v float64) float64 { return max(b.Lo, min(b.Hi, v)) }

// BoundProfile holds the per-category bounds of the adaptive controller.
type BoundProfile struct {
	Name string

	Union         Bound
	Pose          Bound
	Adapter1      Bound
	Adapter2      Bound
	Stage1Denoise Bound
	Stage2Denoise Bound
	Stage1CFG     Bound
	Stage2CFG     Bound
}

var (
	singleSimpleProfile = BoundProfile{
		Name:          report.EntitySingleSimple,
		Union:         Bound{0.75, 1.00},
		Pose:          Bound{0.85, 1.00},
		Adapter1:      Bound{0.30, 0.60},
		Adapter2:      Bound{0.15, 0.45},
		Stage1Denoise: Bound{0.60, 0.85},
		Stage2Denoise: Bound{0.30, 0.60},
		Stage1CFG:     Bound{7.0, 9.5},
		Stage2CFG:     Bound{7.0, 9.5},
	}
	singleComplexProfile = BoundProfile{
		Name:          report.EntitySingleComplex,
		Union:         Bound{0.40, 0.70},
		Pose:          Bound{0.80, 1.00},
		Adapter1:      Bound{0.30, 0.75},
		Adapter2:      Bound{0.20, 0.60},
		Stage1Denoise: Bound{0.60, 0.90},
		Stage2Denoise: Bound{0.25, 0.55},
		Stage1CFG:     Bound{7.0, 10.0},
		Stage2CFG:     Bound{7.0, 9.5},
	}
	multiObjectProfile = BoundProfile{
		Name:          report.EntityMultiObject,
		Union:         Bound{0.55, 0.85},
		Pose:          Bound{0.60, 0.90},
		Adapter1:      Bound{0.25, 0.60},
		Adapter2:      Bound{0.15, 0.45},
		Stage1Denoise: Bound{0.60, 0.85},
		Stage2Denoise: Bound{0.25, 0.50},
		Stage1CFG:     Bound{7.0, 10.0},
		Stage2CFG:     Bound{7.0, 9.5},
	}
)

// Signal thresholds that tighten a profile.
const (
	highConflict         = 0.40
	accessoryMismatchCap = 0.50
	highPoseRisk         = 0.80

	largeUnionNarrowing   = 0.05
	largeHumanStage1Floor = 0.75
	largeHumanStage2Ceil  = 0.55
)

// profileFor selects the base profile for the report's entity type and
// tightens it with the object scale and the derived signals.
func profileFor(rep report.Normalized, sig Signals) BoundProfile {
	var prof BoundProfile
	switch rep.EntityType {
	case report.EntitySingleSimple:
		prof = singleSimpleProfile
	case report.EntityMultiObject:
		prof = multiObjectProfile
	default:
		prof = singleComplexProfile
	}

	if rep.ObjectScale == report.ScaleLarge {
		prof.Union.Lo += largeUnionNarrowing
		prof.Union.Hi -= largeUnionNarrowing
		if rep.HumanLike() {
			prof.Stage1Denoise.Lo = max(prof.Stage1Denoise.Lo, largeHumanStage1Floor)
			prof.Stage2Denoise.Hi = min(prof.Stage2Denoise.Hi, largeHumanStage2Ceil)
		}
	}

	if sig.Conflict > highConflict {
		prof.Adapter1.Hi = min(prof.Adapter1.Hi, 0.50)
		prof.Adapter2.Hi = min(prof.Adapter2.Hi, 0.35)
	}
	if rep.Reference.IsColored || sig.AccessoryMismatch >= accessoryMismatchCap {
		prof.Adapter2.Hi = min(prof.Adapter2.Hi, 0.30)
	}

	switch rep.LineQuality {
	case report.LineMessy:
		// Repair mode: allow more change in stage 1.
		prof.Stage1Denoise.Hi = min(1, prof.Stage1Denoise.Hi+0.05)
		prof.Adapter1.Hi = min(1, prof.Adapter1.Hi+0.05)
	case report.LineClean:
		prof.Adapter2.Hi -= 0.05
		prof.Stage2Denoise.Hi -= 0.05
	}

	if sig.P >= highPoseRisk {
		prof.Adapter1.Hi -= 0.10
	}

	for _, b := range []*Bound{
		&prof.Union, &prof.Pose, &prof.Adapter1, &prof.Adapter2,
		&prof.Stage1Denoise, &prof.Stage2Denoise, &prof.Stage1CFG, &prof.Stage2CFG,
	} {
		if b.Lo > b.Hi {
			b.Lo = b.Hi
		}
	}
	return prof
}
