// Package plan defines the generation plan: the bounded sampler, conditioning
// and adapter parameters that drive the two-stage line-art cleanup workflow.
//
// A Plan is a value. Stages that transform a plan receive a copy and return a
// new one; Clone must be used before mutating the slices or maps it holds.
package plan

import "slices"

// Sampler cfg range shared by both stages.
const (
	CFGMin = 7.0
	CFGMax = 10.0
)

// Mode selects how strongly the reference image is transferred.
type Mode string

const (
	ModeIdentity  Mode = "identity"
	ModeStyle     Mode = "style"
	ModeStyleLite Mode = "style_lite"
)

// Source records which computation path produced the plan.
type Source string

const (
	SourceFixed    Source = "fixed"
	SourceMatrix   Source = "matrix"
	SourceAdaptive Source = "adaptive"
)

// Sampler holds the parameters of one sampling stage.
type Sampler struct {
	Steps   int     `json:"steps"`
	CFG     float64 `json:"cfg"`
	Denoise float64 `json:"denoise"`
}

// Conditioning holds the strength and temporal end point of a structural
// conditioning step.
type Conditioning struct {
	Strength   float64 `json:"strength"`
	EndPercent float64 `json:"end_percent"`
}

// Adapter holds the weight and temporal end point of the image adapter.
type Adapter struct {
	Weight float64 `json:"weight"`
	EndAt  float64 `json:"end_at"`
}

// Plan is the full parameter set for one generation request.
type Plan struct {
	Stage1 Sampler `json:"ksampler1"`
	Stage2 Sampler `json:"ksampler2"`

	Union Conditioning `json:"controlnet_union"`
	Pose  Conditioning `json:"controlnet_openpose"`

	Adapter1 Adapter `json:"ip_adapter"`
	Adapter2 Adapter `json:"ip_adapter_ks2"`

	ReferenceMode       Mode     `json:"reference_mode"`
	ReferenceModeStage2 Mode     `json:"reference_mode_ks2"`
	PromptModifiers     []string `json:"prompt_modifiers,omitempty"`

	Source      Source      `json:"source"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	p.PromptModifiers = slices.Clone(p.PromptModifiers)
	p.Diagnostics = p.Diagnostics.clone()
	return p
}

// AddModifier appends a prompt directive unless it is already present.
func (p *Plan) AddModifier(directive string) {
	if !slices.Contains(p.PromptModifiers, directive) {
		p.PromptModifiers = append(p.PromptModifiers, directive)
	}
}
