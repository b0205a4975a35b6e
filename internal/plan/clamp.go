package plan

import "math"

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds v to three decimals, the precision the workflow nodes accept.
func Round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Limit clamps *v to [lo, hi] and records reason when the value changed.
func (p *Plan) Limit(v *float64, lo, hi float64, reason string) bool {
	c := Clamp(*v, lo, hi)
	if c == *v {
		return false
	}
	*v = c
	p.Diagnostics.AddClamp(reason)
	return true
}

// Floor raises *v to at least lo, recording reason when it fired.
func (p *Plan) Floor(v *float64, lo float64, reason string) bool {
	return p.Limit(v, lo, math.Inf(1), reason)
}

// Ceil lowers *v to at most hi, recording reason when it fired.
func (p *Plan) Ceil(v *float64, hi float64, reason string) bool {
	return p.Limit(v, math.Inf(-1), hi, reason)
}

// Shift adds delta to a unit-interval field and clamps it to [0, 1].
func Shift(v *float64, delta float64) {
	*v = Clamp(*v+delta, 0, 1)
}

// ShiftCFG adds delta to a cfg field and clamps it to [CFGMin, CFGMax].
func ShiftCFG(v *float64, delta float64) {
	*v = Clamp(*v+delta, CFGMin, CFGMax)
}
