package plan

import (
	"fmt"
	"maps"
	"slices"
)

// Diagnostics records how a plan was derived. It is informational only and
// never feeds back into control flow.
type Diagnostics struct {
	// Route is the name of the strategy that produced the base plan.
	Route string `json:"route,omitempty"`

	// Signals holds named derived values (S, P, R, D, H, influence, ...).
	Signals map[string]float64 `json:"signals,omitempty"`

	// Labels holds named categorical facts such as the resolved transition.
	Labels map[string]string `json:"labels,omitempty"`

	// ClampReasons lists every clamp rule that changed a value, sorted and
	// without duplicates.
	ClampReasons []string `json:"clamp_reasons,omitempty"`

	// Fallbacks lists the stages that failed and were skipped.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// SetSignal records a named derived value.
func (d *Diagnostics) SetSignal(name string, v float64) {
	if d.Signals == nil {
		d.Signals = make(map[string]float64)
	}
	d.Signals[name] = v
}

// SetLabel records a named categorical value.
func (d *Diagnostics) SetLabel(name, v string) {
	if d.Labels == nil {
		d.Labels = make(map[string]string)
	}
	d.Labels[name] = v
}

// AddClamp records that the named clamp rule fired.
func (d *Diagnostics) AddClamp(reason string) {
	i, found := slices.BinarySearch(d.ClampReasons, reason)
	if !found {
		d.ClampReasons = slices.Insert(d.ClampReasons, i, reason)
	}
}

// HasClamp reports whether the named clamp rule fired.
func (d Diagnostics) HasClamp(reason string) bool {
	_, found := slices.BinarySearch(d.ClampReasons, reason)
	return found
}

// AddFallback records that stage failed with err and its output was dropped.
func (d *Diagnostics) AddFallback(stage string, err error) {
	d.Fallbacks = append(d.Fallbacks, fmt.Sprintf("%s: %v", stage, err))
}

func (d Diagnostics) clone() Diagnostics {
	d.Signals = maps.Clone(d.Signals)
	d.Labels = maps.Clone(d.Labels)
	d.ClampReasons = slices.Clone(d.ClampReasons)
	d.Fallbacks = slices.Clone(d.Fallbacks)
	return d
}
