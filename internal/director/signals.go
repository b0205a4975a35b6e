package director

import (
	"regexp"
	"strings"

	"github.com/dusk-indust/inkdirector/internal/report"
)

// Signals are the derived risk and confidence values of the adaptive
// controller. All values lie in [0,1] except StrictnessFloor, which is a cfg.
type Signals struct {
	// S is structure confidence.
	S float64
	// P is pose risk.
	P float64
	// R is reference reliability.
	R float64
	// D is style distance to the reference.
	D float64
	// H is hallucination risk. It is only known after the provisional
	// stage-2 values have been chosen.
	H float64

	Conflict          float64
	TextConflict      float64
	ImageConflict     float64
	AccessoryMismatch float64

	// ExactPhrases counts exactness phrases in the report's free text.
	ExactPhrases    int
	StrictnessFloor float64
}

var (
	constructionPenalty = map[string]float64{
		report.LevelLow:    0.10,
		report.LevelMedium: 0.45,
		report.LevelHigh:   0.80,
	}
	brokenPenalty = map[string]float64{
		report.LevelLow:    0.10,
		report.LevelMedium: 0.40,
		report.LevelHigh:   0.75,
	}
	lineQualityBonus = map[string]float64{
		report.LineClean:      0.25,
		report.LineStructured: 0.15,
		report.LineMessy:      0.0,
	}
	poseRisk = map[string]float64{
		report.LevelLow:    0.25,
		report.LevelMedium: 0.55,
		report.LevelHigh:   0.85,
	}
)

const (
	constructionWeight = 0.55
	brokenWeight       = 0.45
	poseLockRisk       = 0.05

	strictnessBase     = 7.0
	strictnessPerMatch = 0.45
	strictnessMaxCount = 4
)

// exactnessPhrases mark a request for a faithful reproduction of the input.
var exactnessPhrases = []string{
	"exact",
	"exactly",
	"precise",
	"precisely",
	"identical",
	"faithful",
	"faithfully",
	"strict",
	"strictly",
	"same as",
	"one-to-one",
	"pixel-perfect",
	"1:1",
}

var exactnessPattern = func() *regexp.Regexp {
	quoted := make([]string, len(exactnessPhrases))
	for i, p := range exactnessPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}()

// countExactness counts exactness phrases in lower-cased text.
func countExactness(text string) int {
	return len(exactnessPattern.FindAllStringIndex(text, -1))
}

// strictnessFloor is the stage-1 cfg floor implied by n exactness phrases.
func strictnessFloor(n int) float64 {
	return strictnessBase + strictnessPerMatch*float64(min(n, strictnessMaxCount))
}

// computeSignals derives S, P, R and D from a normalized report. H is left
// at zero for the controller to fill in.
func computeSignals(rep report.Normalized, poseLock bool, text string) Signals {
	cp, ok := constructionPenalty[rep.ConstructionLines]
	if !ok {
		cp = constructionPenalty[report.LevelMedium]
	}
	bp, ok := brokenPenalty[rep.BrokenLines]
	if !ok {
		bp = brokenPenalty[report.LevelMedium]
	}

	p := poseRisk[rep.AnatomyRisk]
	if poseLock {
		p += poseLockRisk
	}

	ref := rep.Reference
	n := countExactness(text)
	return Signals{
		S:                 clamp01(1 - (constructionWeight*cp + brokenWeight*bp) + lineQualityBonus[rep.LineQuality]),
		P:                 clamp01(p),
		R:                 clamp01(ref.FinalScore * (1 - ref.ConflictPenalty)),
		D:                 ref.StyleDistance,
		Conflict:          ref.ConflictPenalty,
		TextConflict:      ref.TextConflict,
		ImageConflict:     ref.ImageConflict,
		AccessoryMismatch: ref.AccessoryMismatch,
		ExactPhrases:      n,
		StrictnessFloor:   strictnessFloor(n),
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
