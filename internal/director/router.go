package director

import (
	"slices"

	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/report"
)

// Route is one entry of the strategy table: a predicate over the normalized
// report and the builder of the base plan when it matches.
type Route struct {
	Name        string
	Description string
	Source      plan.Source

	// Adaptive routes re-enter the adaptive controller with the built plan
	// as the fallback.
	Adaptive bool

	match func(input) bool
	build func(input) plan.Plan
}

// routes is evaluated top-down; the first match wins. The last entry always
// matches.
var routes = []Route{
	{
		Name:        "single_simple/trace",
		Description: "single simple subject, light construction, intact strokes",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntitySingleSimple), construction(report.LevelLow), not(brokenAtLeastMedium)),
		build:       traceOverride,
	},
	{
		Name:        "single_simple/reconnect",
		Description: "single simple subject, light construction, broken strokes",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntitySingleSimple), construction(report.LevelLow), brokenAtLeastMedium),
		build:       reconnectOverride,
	},
	{
		Name:        "single_simple/construction",
		Description: "single simple subject over medium or heavy construction",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntitySingleSimple), construction(report.LevelMedium, report.LevelHigh)),
		build:       simpleConstructionOverride,
	},
	{
		Name:        "single_complex/low",
		Description: "single complex subject, light construction",
		Source:      plan.SourceFixed,
		Adaptive:    true,
		match:       all(entity(report.EntitySingleComplex), construction(report.LevelLow)),
		build:       complexLowOverride,
	},
	{
		Name:        "single_complex/medium",
		Description: "single complex subject, medium construction",
		Source:      plan.SourceFixed,
		Adaptive:    true,
		match:       all(entity(report.EntitySingleComplex), construction(report.LevelMedium)),
		build:       complexMediumOverride,
	},
	{
		Name:        "single_complex/high-broken",
		Description: "single complex subject, heavy construction and broken strokes",
		Source:      plan.SourceFixed,
		Adaptive:    true,
		match:       all(entity(report.EntitySingleComplex), construction(report.LevelHigh), broken(report.LevelHigh)),
		build:       complexHighBrokenOverride,
	},
	{
		Name:        "single_complex/high",
		Description: "single complex subject, heavy construction",
		Source:      plan.SourceFixed,
		Adaptive:    true,
		match:       all(entity(report.EntitySingleComplex), construction(report.LevelHigh)),
		build:       complexHighOverride,
	},
	{
		Name:        "multi_object/low",
		Description: "several subjects, light construction",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntityMultiObject), construction(report.LevelLow)),
		build:       multiLowOverride,
	},
	{
		Name:        "multi_object/medium",
		Description: "several subjects, medium construction",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntityMultiObject), construction(report.LevelMedium)),
		build:       multiMediumOverride,
	},
	{
		Name:        "multi_object/high",
		Description: "several subjects, heavy construction",
		Source:      plan.SourceFixed,
		match:       all(entity(report.EntityMultiObject), construction(report.LevelHigh)),
		build:       multiHighOverride,
	},
	{
		Name:        "single_complex/matrix",
		Description: "single complex subject without a fixed category: matrix baseline and rules",
		Source:      plan.SourceMatrix,
		Adaptive:    true,
		match:       entity(report.EntitySingleComplex),
		build:       matrixPlan,
	},
	{
		Name:        "matrix",
		Description: "matrix baseline and rules",
		Source:      plan.SourceMatrix,
		match:       func(input) bool { return true },
		build:       matrixPlan,
	},
}

// Routes returns the strategy table in evaluation order.
func Routes() []Route {
	return slices.Clone(routes)
}

func selectRoute(in input) Route {
	for _, rt := range routes {
		if rt.match(in) {
			return rt
		}
	}
	return routes[len(routes)-1]
}

func all(preds ...func(input) bool) func(input) bool {
	return func(in input) bool {
		for _, pred := range preds {
			if !pred(in) {
				return false
			}
		}
		return true
	}
}

func not(pred func(input) bool) func(input) bool {
	return func(in input) bool { return !pred(in) }
}

func entity(want string) func(input) bool {
	return func(in input) bool { return in.report.EntityType == want }
}

func construction(levels ...string) func(input) bool {
	return func(in input) bool { return slices.Contains(levels, in.report.ConstructionLines) }
}

func broken(levels ...string) func(input) bool {
	return func(in input) bool { return slices.Contains(levels, in.report.BrokenLines) }
}

var brokenAtLeastMedium = broken(report.LevelMedium, report.LevelHigh)
