// Package workflow writes generation plans into API-format node graphs of
// the image pipeline. Graphs are patched on a copy; submission and polling
// stay with the caller.
package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/dusk-indust/inkdirector/internal/plan"
)

// Sentinel errors returned by Validate and Decode.
var (
	ErrNodeMissing   = errors.New("workflow: node missing")
	ErrClassMismatch = errors.New("workflow: class mismatch")
	ErrEmptyGraph    = errors.New("workflow: empty graph")
)

// Node classes the patcher writes into.
const (
	ClassKSampler        = "KSampler"
	ClassControlNet      = "ControlNetApplyAdvanced"
	ClassControlNetACN   = "ACN_AdvancedControlNetApply_v2"
	ClassIPAdapter       = "IPAdapterAdvanced"
	ClassLoadImage       = "LoadImage"
	ClassPrepClipVision  = "PrepImageForClipVision"
	legacyReferenceImage = "72"
)

// Node is one entry of an API-format graph.
type Node struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
	Meta      map[string]any `json:"_meta,omitempty"`
}

// Graph maps node ids to nodes.
type Graph map[string]Node

// Slot names a plan section that maps onto one graph node.
type Slot string

// Plan slots, named after their JSON keys in plan.Plan.
const (
	SlotStage1Sampler Slot = "ksampler1"
	SlotStage2Sampler Slot = "ksampler2"
	SlotUnion         Slot = "controlnet_union"
	SlotPose          Slot = "controlnet_openpose"
	SlotAdapter1      Slot = "ip_adapter"
	SlotAdapter2      Slot = "ip_adapter_ks2"
)

// Slots lists every slot in patch order.
func Slots() []Slot {
	return []Slot{SlotStage1Sampler, SlotStage2Sampler, SlotUnion, SlotPose, SlotAdapter1, SlotAdapter2}
}

// NodeMap assigns a node id to each slot.
type NodeMap map[Slot]string

// DefaultNodeMap returns the node ids of the two-stage cleanup workflow.
func DefaultNodeMap() NodeMap {
	return NodeMap{
		SlotStage1Sampler: "5",
		SlotStage2Sampler: "55",
		SlotUnion:         "103",
		SlotPose:          "104",
		SlotAdapter1:      "66",
		SlotAdapter2:      "105",
	}
}

// With returns a copy of m with overrides applied. Unknown slot names are
// rejected.
func (m NodeMap) With(overrides map[string]string) (NodeMap, error) {
	out := maps.Clone(m)
	if out == nil {
		out = NodeMap{}
	}
	for name, id := range overrides {
		slot := Slot(name)
		if !slices.Contains(Slots(), slot) {
			return nil, fmt.Errorf("workflow: unknown slot %q", name)
		}
		out[slot] = id
	}
	return out, nil
}

var slotClasses = map[Slot][]string{
	SlotStage1Sampler: {ClassKSampler},
	SlotStage2Sampler: {ClassKSampler},
	SlotUnion:         {ClassControlNet, ClassControlNetACN},
	SlotPose:          {ClassControlNet, ClassControlNetACN},
	SlotAdapter1:      {ClassIPAdapter},
	SlotAdapter2:      {ClassIPAdapter},
}

// Decode parses an API-format graph.
func Decode(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("workflow: decode: %w", err)
	}
	if len(g) == 0 {
		return nil, ErrEmptyGraph
	}
	return g, nil
}

// Clone deep-copies g, including nested input values.
func (g Graph) Clone() Graph {
	if g == nil {
		return nil
	}
	out := make(Graph, len(g))
	for id, n := range g {
		out[id] = Node{
			ClassType: n.ClassType,
			Inputs:    cloneMap(n.Inputs),
			Meta:      cloneMap(n.Meta),
		}
	}
	return out
}

// Validate checks that every slot of nodes exists in g with an accepted
// class. All problems are reported, joined.
func Validate(g Graph, nodes NodeMap) error {
	var errs []error
	for _, slot := range Slots() {
		id, ok := nodes[slot]
		if !ok {
			continue
		}
		n, ok := g[id]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s (node %s)", ErrNodeMissing, slot, id))
			continue
		}
		if !slices.Contains(slotClasses[slot], n.ClassType) {
			errs = append(errs, fmt.Errorf("%w: %s (node %s): expected %v, got %q",
				ErrClassMismatch, slot, id, slotClasses[slot], n.ClassType))
		}
	}
	return errors.Join(errs...)
}

// Apply writes p into a copy of g and reports which slots were patched.
// Slots whose node is absent or of an unexpected class are skipped.
func Apply(g Graph, p plan.Plan, nodes NodeMap) (Graph, []Slot) {
	out := g.Clone()
	var patched []Slot
	for _, slot := range Slots() {
		n, ok := lookup(out, nodes, slot)
		if !ok {
			continue
		}
		for k, v := range slotInputs(p, slot) {
			n.Inputs[k] = v
		}
		patched = append(patched, slot)
	}
	return out, patched
}

func lookup(g Graph, nodes NodeMap, slot Slot) (Node, bool) {
	id, ok := nodes[slot]
	if !ok {
		return Node{}, false
	}
	n, ok := g[id]
	if !ok || !slices.Contains(slotClasses[slot], n.ClassType) {
		return Node{}, false
	}
	if n.Inputs == nil {
		n.Inputs = map[string]any{}
		g[id] = n
	}
	return n, true
}

func slotInputs(p plan.Plan, slot Slot) map[string]any {
	switch slot {
	case SlotStage1Sampler:
		return samplerInputs(p.Stage1)
	case SlotStage2Sampler:
		return samplerInputs(p.Stage2)
	case SlotUnion:
		return conditioningInputs(p.Union)
	case SlotPose:
		return conditioningInputs(p.Pose)
	case SlotAdapter1:
		return adapterInputs(p.Adapter1)
	case SlotAdapter2:
		return adapterInputs(p.Adapter2)
	}
	return nil
}

func samplerInputs(s plan.Sampler) map[string]any {
	return map[string]any{"steps": s.Steps, "cfg": s.CFG, "denoise": s.Denoise}
}

func conditioningInputs(c plan.Conditioning) map[string]any {
	return map[string]any{"strength": c.Strength, "end_percent": c.EndPercent}
}

func adapterInputs(a plan.Adapter) map[string]any {
	return map[string]any{"weight": a.Weight, "end_at": a.EndAt}
}

// SetReferenceImage points the image loaders feeding every adapter node at
// filename, following one PrepImageForClipVision hop. When no loader is
// reachable it falls back to the legacy reference loader. It returns the ids
// of the updated loaders.
func SetReferenceImage(g Graph, filename string) []string {
	updated := map[string]bool{}
	for _, n := range g {
		if n.ClassType != ClassIPAdapter {
			continue
		}
		id, ok := linkSource(n.Inputs["image"])
		if !ok {
			continue
		}
		src, ok := g[id]
		if ok && src.ClassType == ClassPrepClipVision {
			if id, ok = linkSource(src.Inputs["image"]); ok {
				src, ok = g[id]
			}
		}
		if ok && src.ClassType == ClassLoadImage {
			setInput(g, id, "image", filename)
			updated[id] = true
		}
	}
	if len(updated) == 0 {
		if n, ok := g[legacyReferenceImage]; ok && n.ClassType == ClassLoadImage {
			setInput(g, legacyReferenceImage, "image", filename)
			updated[legacyReferenceImage] = true
		}
	}
	ids := slices.Collect(maps.Keys(updated))
	sort.Strings(ids)
	return ids
}

// linkSource returns the upstream node id of a ["id", output] link.
func linkSource(v any) (string, bool) {
	link, ok := v.([]any)
	if !ok || len(link) == 0 {
		return "", false
	}
	switch id := link[0].(type) {
	case string:
		return id, true
	case float64:
		return fmt.Sprint(id), true
	case int:
		return fmt.Sprint(id), true
	}
	return "", false
}

func setInput(g Graph, id, key string, v any) {
	n := g[id]
	if n.Inputs == nil {
		n.Inputs = map[string]any{}
	}
	n.Inputs[key] = v
	g[id] = n
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
