package plan

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Structural invariants shared by every path.
const (
	// AdapterGap is the minimum distance between the stage-1 and stage-2
	// adapter weights.
	AdapterGap = 0.10

	// UnionPoseGap is the distance kept between the union end point and the
	// pose end point on matrix and adaptive plans.
	UnionPoseGap = 0.15

	// PoseEndMeaningful is the pose end point from which UnionPoseGap applies.
	PoseEndMeaningful = 0.30

	// EndMargin is the distance an adapter end point is pulled below the
	// union end point when it reaches it.
	EndMargin = 0.05

	// MaxSteps bounds the sampler step count.
	MaxSteps = 150
)

// ErrInvalid is wrapped by Validate.
var ErrInvalid = errors.New("plan: invalid")

const epsilon = 1e-9

// Seal clamps every field into range, enforces the ordering invariants and
// rounds all floats to three decimals. It is idempotent.
func (p Plan) Seal() Plan {
	q := p.Clone()

	q.Limit(&q.Stage1.CFG, CFGMin, CFGMax, "bounds.stage1_cfg")
	q.Limit(&q.Stage2.CFG, CFGMin, CFGMax, "bounds.stage2_cfg")
	for _, f := range q.unitFields() {
		q.Limit(f.v, 0, 1, "bounds."+f.name)
	}
	q.Stage1.Steps = min(max(q.Stage1.Steps, 1), MaxSteps)
	q.Stage2.Steps = min(max(q.Stage2.Steps, 1), MaxSteps)

	q.round()

	if q.Source != SourceFixed && q.Pose.EndPercent >= PoseEndMeaningful {
		q.Ceil(&q.Union.EndPercent, Round(q.Pose.EndPercent-UnionPoseGap), "invariant.union_end_below_pose")
	}
	q.Floor(&q.Union.EndPercent, EndMargin, "invariant.union_end_floor")
	for _, a := range []*Adapter{&q.Adapter1, &q.Adapter2} {
		if a.EndAt >= q.Union.EndPercent {
			a.EndAt = math.Max(0, Round(q.Union.EndPercent-EndMargin))
			q.Diagnostics.AddClamp("invariant.adapter_end_below_union")
		}
	}

	q.Ceil(&q.Stage2.CFG, q.Stage1.CFG, "invariant.stage2_cfg_le_stage1")
	q.Floor(&q.Adapter1.Weight, AdapterGap, "invariant.adapter1_floor")
	q.Ceil(&q.Adapter2.Weight, math.Max(0, Round(q.Adapter1.Weight-AdapterGap)), "invariant.adapter_gap")
	return q
}

// Violations lists every invariant the plan breaks. A sealed plan built from
// finite inputs has none.
func (p Plan) Violations() []string {
	var out []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			out = append(out, fmt.Sprintf(format, args...))
		}
	}
	inRange := func(v, lo, hi float64) bool {
		return v >= lo-epsilon && v <= hi+epsilon
	}

	check(inRange(p.Stage1.CFG, CFGMin, CFGMax), "stage1 cfg %v outside [%v,%v]", p.Stage1.CFG, CFGMin, CFGMax)
	check(inRange(p.Stage2.CFG, CFGMin, CFGMax), "stage2 cfg %v outside [%v,%v]", p.Stage2.CFG, CFGMin, CFGMax)
	for _, f := range p.unitFields() {
		check(inRange(*f.v, 0, 1), "%s %v outside [0,1]", f.name, *f.v)
	}
	check(p.Stage1.Steps >= 1 && p.Stage1.Steps <= MaxSteps, "stage1 steps %d out of range", p.Stage1.Steps)
	check(p.Stage2.Steps >= 1 && p.Stage2.Steps <= MaxSteps, "stage2 steps %d out of range", p.Stage2.Steps)

	check(p.Stage2.CFG <= p.Stage1.CFG+epsilon, "stage2 cfg %v above stage1 cfg %v", p.Stage2.CFG, p.Stage1.CFG)
	check(p.Adapter2.Weight <= p.Adapter1.Weight-AdapterGap+epsilon,
		"stage2 adapter %v not %v below stage1 adapter %v", p.Adapter2.Weight, AdapterGap, p.Adapter1.Weight)
	check(p.Adapter1.EndAt < p.Union.EndPercent, "adapter end %v not below union end %v", p.Adapter1.EndAt, p.Union.EndPercent)
	check(p.Adapter2.EndAt < p.Union.EndPercent, "stage2 adapter end %v not below union end %v", p.Adapter2.EndAt, p.Union.EndPercent)
	if p.Source != SourceFixed && p.Pose.EndPercent >= PoseEndMeaningful {
		check(p.Union.EndPercent <= p.Pose.EndPercent-UnionPoseGap+epsilon,
			"union end %v not %v below pose end %v", p.Union.EndPercent, UnionPoseGap, p.Pose.EndPercent)
	}
	return out
}

// Validate returns an error wrapping ErrInvalid when p breaks an invariant.
func (p Plan) Validate() error {
	if v := p.Violations(); len(v) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(v, "; "))
	}
	return nil
}

type field struct {
	name string
	v    *float64
}

func (p *Plan) unitFields() []field {
	return []field{
		{"stage1_denoise", &p.Stage1.Denoise},
		{"stage2_denoise", &p.Stage2.Denoise},
		{"union_strength", &p.Union.Strength},
		{"union_end", &p.Union.EndPercent},
		{"pose_strength", &p.Pose.Strength},
		{"pose_end", &p.Pose.EndPercent},
		{"adapter1_weight", &p.Adapter1.Weight},
		{"adapter1_end", &p.Adapter1.EndAt},
		{"adapter2_weight", &p.Adapter2.Weight},
		{"adapter2_end", &p.Adapter2.EndAt},
	}
}

func (p *Plan) round() {
	for _, f := range p.floatFields() {
		*f.v = Round(*f.v)
	}
}

func (p *Plan) floatFields() []field {
	return append(p.unitFields(),
		field{"stage1_cfg", &p.Stage1.CFG},
		field{"stage2_cfg", &p.Stage2.CFG},
	)
}
