package mcptools

import (
	"github.com/dusk-indust/inkdirector/internal/plan"
	"github.com/dusk-indust/inkdirector/internal/workflow"
)

// --- MCP Tool Types for the planning server mode (serve-mcp) ---
// These tools let the dashboard and agents request plans and patched
// workflows as structured calls instead of shelling out to the CLI.

// PlanOptions are the per-call overrides of the server's default options.
type PlanOptions struct {
	SourcePhase string `json:"sourcePhase,omitempty" jsonschema:"source animation phase, e.g. Roughs (default from server config)"`
	DestPhase   string `json:"destPhase,omitempty" jsonschema:"destination animation phase, e.g. CleanUp (default from server config)"`
	PoseLock    *bool  `json:"poseLock,omitempty" jsonschema:"force strong pose conditioning"`
	StyleLock   *bool  `json:"styleLock,omitempty" jsonschema:"bound the stage-1 reference adapter weight"`
}

// CreatePlanInput is the input for the create_generation_plan MCP tool.
// Exactly one of Report, ReportText or Frames is used, in that order.
type CreatePlanInput struct {
	Report     map[string]any   `json:"report,omitempty" jsonschema:"decoded analysis report"`
	ReportText string           `json:"reportText,omitempty" jsonschema:"raw analysis response, optionally fenced JSON"`
	Frames     []map[string]any `json:"frames,omitempty" jsonschema:"per-frame reports of a sequence; keyframes are merged into one plan"`
	Options    PlanOptions      `json:"options,omitempty" jsonschema:"overrides of the server default options"`
}

// CreatePlanOutput is the result of the create_generation_plan MCP tool.
type CreatePlanOutput struct {
	ID     string    `json:"id"`
	Route  string    `json:"route"`
	Cached bool      `json:"cached"`
	Plan   plan.Plan `json:"plan"`
}

// PatchWorkflowInput is the input for the patch_workflow MCP tool.
type PatchWorkflowInput struct {
	Workflow       workflow.Graph    `json:"workflow" jsonschema:"API-format workflow graph"`
	Plan           *plan.Plan        `json:"plan,omitempty" jsonschema:"plan to write; computed from report when absent"`
	Report         map[string]any    `json:"report,omitempty" jsonschema:"analysis report used when no plan is given"`
	Nodes          map[string]string `json:"nodes,omitempty" jsonschema:"node id overrides by slot name"`
	ReferenceImage string            `json:"referenceImage,omitempty" jsonschema:"uploaded reference image filename"`
	Strict         bool              `json:"strict,omitempty" jsonschema:"fail when a mapped node is missing or has the wrong class"`
	Options        PlanOptions       `json:"options,omitempty" jsonschema:"overrides of the server default options"`
}

// PatchWorkflowOutput is the result of the patch_workflow MCP tool.
type PatchWorkflowOutput struct {
	Workflow         workflow.Graph `json:"workflow"`
	Patched          []string       `json:"patched"`
	ReferenceLoaders []string       `json:"referenceLoaders,omitempty"`
	Plan             plan.Plan      `json:"plan"`
}

// DescribeRoutesInput is the input for the describe_routes MCP tool.
type DescribeRoutesInput struct{}

// DescribeRoutesOutput is the result of the describe_routes MCP tool.
type DescribeRoutesOutput struct {
	Routes      []RouteSummary `json:"routes"`
	Transitions []string       `json:"transitions"`
	Mermaid     string         `json:"mermaid"`
}

// RouteSummary is a brief overview of one routing table entry.
type RouteSummary struct {
	Priority    int    `json:"priority"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Adaptive    bool   `json:"adaptive"`
}
